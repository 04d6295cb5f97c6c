package trajectory

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/trajview/internal/types"
)

// maxPrealloc bounds the up-front allocation of a batch.
const maxPrealloc = 4096

// FetchRange returns the snapshots for iterations [start, start+count) in
// order. With strict set every snapshot must already exist; otherwise each
// one is waited for. All snapshots must have the same number of bodies.
func (f *Fetcher) FetchRange(ctx context.Context, dir string, start, count int, strict bool) ([]types.Snapshot, error) {
	if start < 0 || count < 0 || count > math.MaxInt-start {
		return nil, errorsmod.Wrapf(ErrInvalidRequest, "invalid range start=%d count=%d", start, count)
	}

	mode := Tolerant
	if strict {
		mode = Strict
	}

	f.logger.Info().Str("dir", dir).Int("start", start).Int("count", count).Str("mode", mode.String()).
		Msg("Fetching snapshot batch")

	batch := make([]types.Snapshot, 0, min(count, maxPrealloc))
	for i := start; i < start+count; i++ {
		snap, err := f.FetchOne(ctx, dir, i, mode)
		if err != nil {
			return nil, err
		}
		if len(batch) > 0 && snap.NumBodies() != batch[0].NumBodies() {
			return nil, errorsmod.Wrapf(ErrEntityCountMismatch,
				"%s has %d bodies, iteration %d has %d",
				SnapshotPath(dir, i), snap.NumBodies(), batch[0].Iteration, batch[0].NumBodies())
		}
		batch = append(batch, *snap)
	}

	f.logger.Info().Str("dir", dir).Int("count", len(batch)).Msg("Fetched snapshot batch")
	return batch, nil
}

// FetchAll loads every snapshot of a finished trajectory directory. It must
// not be used while the producer is still writing.
func (f *Fetcher) FetchAll(ctx context.Context, dir string) ([]types.Snapshot, error) {
	n, err := CountSnapshots(dir)
	if err != nil {
		return nil, err
	}
	return f.FetchRange(ctx, dir, 0, n, true)
}

// CountSnapshots returns the number of snapshot files in dir. Only regular
// files named <iteration>.bin are counted.
func CountSnapshots(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := ParseIteration(entry.Name()); ok {
			count++
		}
	}
	return count, nil
}

// ParseIteration extracts the iteration from a snapshot file name.
func ParseIteration(name string) (int, bool) {
	stem, ok := strings.CutSuffix(name, SnapshotExt)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(stem)
	if err != nil || i < 0 || strconv.Itoa(i) != stem {
		return 0, false
	}
	return i, true
}
