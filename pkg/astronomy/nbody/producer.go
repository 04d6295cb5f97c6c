package nbody

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/oxygene76/trajview/internal/types"
	"github.com/oxygene76/trajview/pkg/serde"
	"github.com/oxygene76/trajview/pkg/trajectory"
)

// SnapshotSink receives the body states of every iteration of a run
type SnapshotSink interface {
	OnStart(totalIterations int) error
	OnSnapshot(iteration int, bodies []types.BodyState) error
	OnEnd() error
}

// DirectoryWriter writes one <iteration>.bin file per snapshot. Each file is
// renamed into place once complete, so a concurrent reader never observes a
// partial snapshot.
type DirectoryWriter struct {
	dir       string
	floatSize int32
	delay     time.Duration
}

// NewDirectoryWriter creates dir if needed. delay is slept after every
// snapshot to emulate a slow producer.
func NewDirectoryWriter(dir string, floatSize int32, delay time.Duration) (*DirectoryWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirectoryWriter{dir: dir, floatSize: floatSize, delay: delay}, nil
}

func (w *DirectoryWriter) OnStart(int) error { return nil }

func (w *DirectoryWriter) OnSnapshot(iteration int, bodies []types.BodyState) error {
	if err := serde.WriteFile(trajectory.SnapshotPath(w.dir, iteration), bodies, w.floatSize); err != nil {
		return err
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	return nil
}

func (w *DirectoryWriter) OnEnd() error { return nil }

// Run integrates the system for n steps of size dt. The initial state is
// emitted as iteration 0, so the sink receives n+1 snapshots.
func (s *System) Run(ctx context.Context, n int, dt float64, sink SnapshotSink, logger zerolog.Logger) error {
	if err := sink.OnStart(n + 1); err != nil {
		return err
	}

	initialEnergy := s.TotalEnergy()
	logger.Info().Int("bodies", len(s.Bodies)).Int("iterations", n).Float64("dt", dt).
		Float64("energy", initialEnergy).Msg("Starting simulation")

	if err := sink.OnSnapshot(0, s.States()); err != nil {
		return fmt.Errorf("iteration 0: %w", err)
	}

	start := time.Now()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.LeapfrogStep(dt)

		if err := sink.OnSnapshot(i, s.States()); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		logger.Debug().Int("iteration", i).Msg("Wrote snapshot")
	}

	finalEnergy := s.TotalEnergy()
	drift := 0.0
	if initialEnergy != 0 {
		drift = (finalEnergy - initialEnergy) / initialEnergy
	}
	logger.Info().Dur("elapsed", time.Since(start)).Float64("energy", finalEnergy).
		Float64("relative_energy_drift", drift).Msg("Simulation finished")

	return sink.OnEnd()
}
