package nbody

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
	"github.com/oxygene76/trajview/pkg/serde"
	"github.com/oxygene76/trajview/pkg/trajectory"
)

// sunEarth places a unit mass at the origin and a test particle on a circular
// orbit at 1 AU.
func sunEarth() []types.BodyState {
	v := math.Sqrt(GaussianG)
	return []types.BodyState{
		{Mass: 1},
		{Position: astromath.Vector3{X: 1}, Velocity: astromath.Vector3{Y: v}, Mass: 0},
	}
}

type memorySink struct {
	started   int
	snapshots [][]types.BodyState
	ended     bool
}

func (m *memorySink) OnStart(n int) error { m.started = n; return nil }
func (m *memorySink) OnSnapshot(_ int, bodies []types.BodyState) error {
	m.snapshots = append(m.snapshots, bodies)
	return nil
}
func (m *memorySink) OnEnd() error { m.ended = true; return nil }

func TestNewSystemCopiesInitialConditions(t *testing.T) {
	ic := sunEarth()
	s := NewSystem(ic, GaussianG)
	s.LeapfrogStep(1)

	assert.Equal(t, 1.0, ic[1].Position.X)
	assert.NotEqual(t, ic[1].Position, s.Bodies[1].Position)
}

func TestCircularOrbitKeepsRadius(t *testing.T) {
	s := NewSystem(sunEarth(), GaussianG)
	for i := 0; i < 365; i++ {
		s.LeapfrogStep(1)
	}

	r := s.Bodies[1].Position.Distance(s.Bodies[0].Position)
	assert.InDelta(t, 1.0, r, 1e-3)
	assert.InDelta(t, 365.0, s.Time, 1e-9)
}

func TestEnergyIsConserved(t *testing.T) {
	bodies := []types.BodyState{
		{Mass: 1},
		{Position: astromath.Vector3{X: 1}, Velocity: astromath.Vector3{Y: math.Sqrt(GaussianG)}, Mass: 3e-6},
		{Position: astromath.Vector3{X: -5.2}, Velocity: astromath.Vector3{Y: -math.Sqrt(GaussianG / 5.2)}, Mass: 1e-3},
	}
	s := NewSystem(bodies, GaussianG)
	e0 := s.TotalEnergy()

	for i := 0; i < 1000; i++ {
		s.LeapfrogStep(0.5)
	}

	assert.InDelta(t, 0, (s.TotalEnergy()-e0)/e0, 1e-4)
}

func TestRunEmitsInitialStateAndEveryStep(t *testing.T) {
	sink := &memorySink{}
	s := NewSystem(sunEarth(), GaussianG)

	require.NoError(t, s.Run(context.Background(), 4, 1, sink, zerolog.Nop()))

	assert.Equal(t, 5, sink.started)
	require.Len(t, sink.snapshots, 5)
	assert.Equal(t, sunEarth(), sink.snapshots[0])
	assert.True(t, sink.ended)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memorySink{}
	err := NewSystem(sunEarth(), GaussianG).Run(ctx, 10, 1, sink, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.snapshots, 1)
}

func TestDirectoryWriterProducesReadableTrajectory(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDirectoryWriter(dir, serde.Float64, 0)
	require.NoError(t, err)

	require.NoError(t, NewSystem(sunEarth(), GaussianG).Run(context.Background(), 9, 1, w, zerolog.Nop()))

	n, err := trajectory.CountSnapshots(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	batch, err := trajectory.NewFetcher().FetchAll(context.Background(), dir)
	require.NoError(t, err)
	bundle, err := trajectory.Project(batch)
	require.NoError(t, err)

	require.Len(t, bundle, 2)
	assert.Equal(t, 10, bundle[1].Len())
	assert.Equal(t, 1.0, bundle[1].X[0])
}
