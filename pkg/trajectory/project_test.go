package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

func snapshot(iteration int, positions ...astromath.Vector3) types.Snapshot {
	bodies := make([]types.BodyState, len(positions))
	for i, p := range positions {
		bodies[i] = types.BodyState{Position: p}
	}
	return types.Snapshot{Iteration: iteration, Bodies: bodies}
}

func TestProjectFollowsEntityAndBatchOrder(t *testing.T) {
	batch := []types.Snapshot{
		snapshot(0, vec(9, 9, 9), vec(-1, -2, -3), vec(0.5, 0, 0)),
		snapshot(1, vec(8, 8, 8), vec(-4, -5, -6), vec(0.25, 0, 0)),
	}

	bundle, err := Project(batch)
	require.NoError(t, err)
	require.Len(t, bundle, 3)

	assert.Equal(t, types.Series{X: []float64{9, 8}, Y: []float64{9, 8}, Z: []float64{9, 8}}, bundle[0])
	assert.Equal(t, types.Series{X: []float64{-1, -4}, Y: []float64{-2, -5}, Z: []float64{-3, -6}}, bundle[1])
	assert.Equal(t, []float64{0.5, 0.25}, bundle[2].X)
}

func TestProjectIgnoresNonPositionFields(t *testing.T) {
	snap := snapshot(0, vec(1, 2, 3))
	snap.Bodies[0].Velocity = vec(100, 200, 300)
	snap.Bodies[0].Mass = 42

	bundle, err := Project([]types.Snapshot{snap})
	require.NoError(t, err)
	assert.Equal(t, vec(1, 2, 3), bundle[0].Last())
}

func TestProjectEmptyBatch(t *testing.T) {
	bundle, err := Project(nil)
	require.NoError(t, err)
	assert.Empty(t, bundle)
}

func TestProjectEntityCountMismatch(t *testing.T) {
	batch := []types.Snapshot{
		snapshot(0, vec(0, 0, 0), vec(1, 1, 1)),
		snapshot(1, vec(0, 0, 0)),
	}

	_, err := Project(batch)
	assert.ErrorIs(t, err, ErrEntityCountMismatch)
}
