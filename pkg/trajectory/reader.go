package trajectory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/trajview/internal/types"
	"github.com/oxygene76/trajview/pkg/serde"
)

// SnapshotExt is the file extension of every snapshot in a trajectory directory
const SnapshotExt = ".bin"

// Decoder turns a snapshot file into body states.
type Decoder interface {
	DecodeFile(path string) ([]types.BodyState, error)
}

// DecoderFunc adapts a plain function to the Decoder interface
type DecoderFunc func(path string) ([]types.BodyState, error)

func (f DecoderFunc) DecodeFile(path string) ([]types.BodyState, error) {
	return f(path)
}

// BinaryDecoder decodes the simulator's binary body state layout
var BinaryDecoder Decoder = DecoderFunc(func(path string) ([]types.BodyState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return serde.Decode(data)
})

// SnapshotPath returns the file name the producer uses for iteration.
func SnapshotPath(dir string, iteration int) string {
	return filepath.Join(dir, strconv.Itoa(iteration)+SnapshotExt)
}

// Reader makes a single, side-effect free attempt at loading one snapshot.
type Reader struct {
	decoder Decoder
}

// NewReader creates a reader. A nil decoder selects BinaryDecoder.
func NewReader(decoder Decoder) *Reader {
	if decoder == nil {
		decoder = BinaryDecoder
	}
	return &Reader{decoder: decoder}
}

// Read loads the snapshot for iteration from dir.
//
// A file that does not exist yet yields ErrNotYetAvailable. A file that
// exists but does not decode yields ErrCorruptSnapshot naming the file.
func (r *Reader) Read(dir string, iteration int) (*types.Snapshot, error) {
	if iteration < 0 {
		return nil, errorsmod.Wrapf(ErrInvalidRequest, "negative iteration %d", iteration)
	}

	path := SnapshotPath(dir, iteration)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errorsmod.Wrap(ErrNotYetAvailable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errorsmod.Wrapf(ErrCorruptSnapshot, "%s is not a regular file", path)
	}

	bodies, err := r.decoder.DecodeFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		// removed between stat and open
		return nil, errorsmod.Wrap(ErrNotYetAvailable, path)
	}
	if err != nil {
		return nil, errorsmod.Wrapf(ErrCorruptSnapshot, "%s: %v", path, err)
	}

	return &types.Snapshot{Iteration: iteration, Bodies: bodies}, nil
}
