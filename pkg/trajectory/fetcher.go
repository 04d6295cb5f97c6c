package trajectory

import (
	"context"
	"errors"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/oxygene76/trajview/internal/types"
)

// Mode selects how a fetch reacts to a snapshot that is not there yet.
type Mode int

const (
	// Tolerant retries until the snapshot appears or ctx is done.
	Tolerant Mode = iota
	// Strict makes exactly one attempt and treats absence as a hard failure.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Tolerant:
		return "tolerant"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// AttemptHook observes every read attempt. attempt starts at 1.
type AttemptHook func(iteration, attempt int)

// Fetcher obtains snapshots from a trajectory directory written by a
// concurrently running producer.
type Fetcher struct {
	reader    *Reader
	policy    Policy
	logger    zerolog.Logger
	logEvery  int
	onAttempt AttemptHook
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithPolicy sets the retry policy used in tolerant mode
func WithPolicy(p Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

func WithReader(r *Reader) Option {
	return func(f *Fetcher) { f.reader = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithLogEvery reports a "still waiting" line at info level every n
// unsuccessful attempts. Zero disables it.
func WithLogEvery(n int) Option {
	return func(f *Fetcher) { f.logEvery = n }
}

func WithAttemptHook(h AttemptHook) Option {
	return func(f *Fetcher) { f.onAttempt = h }
}

// NewFetcher creates a fetcher. Without options it busy-polls with the
// binary decoder and does not log.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		reader:   NewReader(nil),
		policy:   NoWait(),
		logger:   zerolog.Nop(),
		logEvery: 100,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchOne returns the snapshot for iteration.
//
// In Tolerant mode it blocks until the file appears; only ctx can bound the
// wait. In Strict mode absence is reported as ErrMissingIteration after a
// single attempt. Corrupt files fail immediately in both modes.
func (f *Fetcher) FetchOne(ctx context.Context, dir string, iteration int, mode Mode) (*types.Snapshot, error) {
	log := f.logger.With().Str("dir", dir).Int("iteration", iteration).Str("mode", mode.String()).Logger()
	log.Debug().Msg("Fetching snapshot")

	switch mode {
	case Strict:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.attempted(iteration, 1)

		snap, err := f.reader.Read(dir, iteration)
		if errors.Is(err, ErrNotYetAvailable) {
			return nil, errorsmod.Wrapf(ErrMissingIteration, "%s", SnapshotPath(dir, iteration))
		}
		return snap, err

	case Tolerant:
		for attempt := 0; ; attempt++ {
			if err := f.policy.Wait(ctx, attempt); err != nil {
				log.Debug().Err(err).Int("attempts", attempt).Msg("Stopped waiting for snapshot")
				return nil, err
			}
			f.attempted(iteration, attempt+1)

			snap, err := f.reader.Read(dir, iteration)
			if err == nil {
				log.Debug().Int("attempts", attempt+1).Msg("Fetched snapshot")
				return snap, nil
			}
			if !errors.Is(err, ErrNotYetAvailable) {
				log.Error().Err(err).Msg("Snapshot fetch failed")
				return nil, err
			}

			if f.logEvery > 0 && (attempt+1)%f.logEvery == 0 {
				log.Info().Int("attempts", attempt+1).Msg("Still waiting for snapshot")
			} else {
				log.Trace().Int("attempts", attempt+1).Msg("Snapshot not yet available")
			}
		}

	default:
		return nil, errorsmod.Wrapf(ErrInvalidRequest, "unknown fetch mode %d", int(mode))
	}
}

func (f *Fetcher) attempted(iteration, attempt int) {
	if f.onAttempt != nil {
		f.onAttempt(iteration, attempt)
	}
}
