package render

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/oxygene76/trajview/internal/types"
	"github.com/oxygene76/trajview/pkg/trajectory"
)

// LogRenderer reports live progress through the logger, one line every
// `every` iterations.
type LogRenderer struct {
	logger zerolog.Logger
	every  int
}

func NewLogRenderer(logger zerolog.Logger, every int) *LogRenderer {
	if every <= 0 {
		every = 1
	}
	return &LogRenderer{logger: logger, every: every}
}

func (r *LogRenderer) Render(_ context.Context, delta types.Delta, bundle types.Bundle) error {
	if delta.Iteration%r.every != 0 {
		return nil
	}

	ev := r.logger.Info().Int("iteration", delta.Iteration).Int("bodies", delta.NumBodies)
	if len(bundle) > 0 && bundle[0].Len() > 0 {
		p := bundle[0].Last()
		ev = ev.Floats64("body0", []float64{p.X, p.Y, p.Z})
	}
	ev.Msg("Trajectory updated")
	return nil
}

// Multi fans a live update out to several renderers, stopping at the first error.
type Multi []trajectory.Renderer

func (m Multi) Render(ctx context.Context, delta types.Delta, bundle types.Bundle) error {
	for _, r := range m {
		if err := r.Render(ctx, delta, bundle); err != nil {
			return err
		}
	}
	return nil
}
