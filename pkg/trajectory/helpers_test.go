package trajectory

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
	"github.com/oxygene76/trajview/pkg/serde"
)

// writeSnapshot writes iteration i with one body per position.
func writeSnapshot(t *testing.T, dir string, i int, positions ...astromath.Vector3) {
	t.Helper()
	bodies := make([]types.BodyState, len(positions))
	for k, p := range positions {
		bodies[k] = types.BodyState{Position: p, Velocity: astromath.Vector3{X: 1}, Mass: 1}
	}
	require.NoError(t, serde.WriteFile(SnapshotPath(dir, i), bodies, serde.Float64))
}

func writeCorrupt(t *testing.T, dir string, i int) string {
	t.Helper()
	path := SnapshotPath(dir, i)
	require.NoError(t, os.WriteFile(path, []byte{8, 0, 0, 0, 2, 0, 0, 0, 1, 2, 3}, 0o644))
	return path
}

func vec(x, y, z float64) astromath.Vector3 {
	return astromath.Vector3{X: x, Y: y, Z: z}
}

// countingPolicy records every Wait call and runs onWait, never sleeping.
type countingPolicy struct {
	calls  []int
	onWait func(attempt int)
}

func (p *countingPolicy) Wait(ctx context.Context, attempt int) error {
	p.calls = append(p.calls, attempt)
	if p.onWait != nil {
		p.onWait(attempt)
	}
	return ctx.Err()
}
