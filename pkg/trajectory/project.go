package trajectory

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/trajview/internal/types"
)

// Project turns a batch of snapshots into one position series per body.
// Output is in body index order and each series follows batch order.
func Project(batch []types.Snapshot) (types.Bundle, error) {
	if len(batch) == 0 {
		return types.Bundle{}, nil
	}

	numBodies := batch[0].NumBodies()
	for _, snap := range batch[1:] {
		if snap.NumBodies() != numBodies {
			return nil, errorsmod.Wrapf(ErrEntityCountMismatch,
				"iteration %d has %d bodies, iteration %d has %d",
				snap.Iteration, snap.NumBodies(), batch[0].Iteration, numBodies)
		}
	}

	bundle := make(types.Bundle, numBodies)
	for body := range bundle {
		series := types.Series{
			X: make([]float64, len(batch)),
			Y: make([]float64, len(batch)),
			Z: make([]float64, len(batch)),
		}
		for i, snap := range batch {
			p := snap.Bodies[body].Position
			series.X[i], series.Y[i], series.Z[i] = p.X, p.Y, p.Z
		}
		bundle[body] = series
	}

	return bundle, nil
}
