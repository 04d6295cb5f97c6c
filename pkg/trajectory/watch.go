package trajectory

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchPolicy wakes a waiting fetch as soon as something is created, written
// or renamed in the trajectory directory, instead of sleeping a fixed time.
// Fallback bounds each wait so missed events only cost latency.
type WatchPolicy struct {
	watcher  *fsnotify.Watcher
	fallback time.Duration
	logger   zerolog.Logger
}

// NewWatchPolicy starts watching dir. Close must be called to release the
// underlying watcher.
func NewWatchPolicy(dir string, fallback time.Duration, logger zerolog.Logger) (*WatchPolicy, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &WatchPolicy{
		watcher:  watcher,
		fallback: fallback,
		logger:   logger,
	}, nil
}

func (p *WatchPolicy) Wait(ctx context.Context, attempt int) error {
	if attempt <= 0 {
		return ctx.Err()
	}

	var timeout <-chan time.Time
	if p.fallback > 0 {
		timer := time.NewTimer(p.fallback)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return nil
		case event, ok := <-p.watcher.Events:
			if !ok {
				return sleep(ctx, p.fallback)
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				return nil
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return sleep(ctx, p.fallback)
			}
			p.logger.Warn().Err(err).Msg("directory watcher error")
		}
	}
}

// Close stops the watcher
func (p *WatchPolicy) Close() error {
	return p.watcher.Close()
}
