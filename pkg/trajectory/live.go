package trajectory

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/rs/zerolog"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

// Renderer consumes live updates. bundle is the accumulated state after
// delta has been applied and must not be retained past the call.
type Renderer interface {
	Render(ctx context.Context, delta types.Delta, bundle types.Bundle) error
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(ctx context.Context, delta types.Delta, bundle types.Bundle) error

func (f RendererFunc) Render(ctx context.Context, delta types.Delta, bundle types.Bundle) error {
	return f(ctx, delta, bundle)
}

// Accumulator holds the growing per-body series of a live view.
type Accumulator struct {
	next   int
	bundle types.Bundle
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Next returns the iteration the accumulator expects to receive next
func (a *Accumulator) Next() int {
	return a.next
}

// Bundle returns the accumulated series. It is updated in place by Apply.
func (a *Accumulator) Bundle() types.Bundle {
	return a.bundle
}

// Apply appends the positions of snap to every body's series. The first
// snapshot fixes the body count; snapshots must arrive in iteration order
// starting at 0.
func (a *Accumulator) Apply(snap *types.Snapshot) (types.Delta, error) {
	if snap.Iteration != a.next {
		return types.Delta{}, errorsmod.Wrapf(ErrInvalidRequest,
			"expected iteration %d, got %d", a.next, snap.Iteration)
	}

	if a.next == 0 {
		a.bundle = make(types.Bundle, snap.NumBodies())
	} else if snap.NumBodies() != len(a.bundle) {
		return types.Delta{}, errorsmod.Wrapf(ErrEntityCountMismatch,
			"iteration %d has %d bodies, expected %d", snap.Iteration, snap.NumBodies(), len(a.bundle))
	}

	positions := make([]astromath.Vector3, snap.NumBodies())
	for i, body := range snap.Bodies {
		a.bundle[i].Append(body.Position)
		positions[i] = body.Position
	}
	a.next++

	return types.Delta{
		Iteration: snap.Iteration,
		NumBodies: len(a.bundle),
		Positions: positions,
	}, nil
}

// Live follows a trajectory directory while the producer writes it.
type Live struct {
	fetcher       *Fetcher
	renderer      Renderer
	acc           *Accumulator
	maxIterations int
	logger        zerolog.Logger
}

// LiveOption configures a Live loop
type LiveOption func(*Live)

// WithMaxIterations stops Run after n iterations. Zero means no limit.
func WithMaxIterations(n int) LiveOption {
	return func(l *Live) { l.maxIterations = n }
}

func WithLiveLogger(logger zerolog.Logger) LiveOption {
	return func(l *Live) { l.logger = logger }
}

// NewLive creates a live loop. renderer may be nil.
func NewLive(fetcher *Fetcher, renderer Renderer, opts ...LiveOption) *Live {
	l := &Live{
		fetcher:  fetcher,
		renderer: renderer,
		acc:      NewAccumulator(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Accumulator exposes the accumulated state
func (l *Live) Accumulator() *Accumulator {
	return l.acc
}

// Step waits for the next iteration, applies it and hands it to the renderer.
func (l *Live) Step(ctx context.Context, dir string) (types.Delta, error) {
	snap, err := l.fetcher.FetchOne(ctx, dir, l.acc.Next(), Tolerant)
	if err != nil {
		return types.Delta{}, err
	}

	delta, err := l.acc.Apply(snap)
	if err != nil {
		return types.Delta{}, err
	}

	if l.renderer != nil {
		if err := l.renderer.Render(ctx, delta, l.acc.Bundle()); err != nil {
			return delta, fmt.Errorf("render iteration %d: %w", delta.Iteration, err)
		}
	}
	return delta, nil
}

// Run repeats Step until ctx is done, an error occurs, or the iteration
// limit is reached. Without a limit it only returns on error.
func (l *Live) Run(ctx context.Context, dir string) error {
	l.logger.Info().Str("dir", dir).Int("max_iterations", l.maxIterations).Msg("Following trajectory")

	for n := 0; l.maxIterations <= 0 || n < l.maxIterations; n++ {
		delta, err := l.Step(ctx, dir)
		if err != nil {
			l.logger.Info().Err(err).Int("iterations", l.acc.Next()).Msg("Stopped following trajectory")
			return err
		}
		l.logger.Debug().Int("iteration", delta.Iteration).Int("bodies", delta.NumBodies).Msg("Applied snapshot")
	}

	l.logger.Info().Int("iterations", l.acc.Next()).Msg("Reached iteration limit")
	return nil
}
