// Package serde reads and writes the per-iteration body state files produced
// by the simulator.
//
// Layout, little endian:
//
//	int32   size of the floating point type (4 or 8)
//	int32   number of bodies
//	N x     pos.x pos.y pos.z vel.x vel.y vel.z mass
package serde

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

const (
	headerSize    = 8
	valuesPerBody = 7
)

// Supported float sizes in bytes
const (
	Float32 int32 = 4
	Float64 int32 = 8
)

// ErrMalformed is returned for any file that does not match the layout.
var ErrMalformed = errors.New("malformed body state file")

// Decode parses a complete body state file held in memory.
func Decode(data []byte) ([]types.BodyState, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}

	floatSize := int32(binary.LittleEndian.Uint32(data[0:4]))
	numBodies := int32(binary.LittleEndian.Uint32(data[4:8]))

	if floatSize != Float32 && floatSize != Float64 {
		return nil, fmt.Errorf("%w: unsupported float size %d", ErrMalformed, floatSize)
	}
	if numBodies < 0 {
		return nil, fmt.Errorf("%w: negative body count %d", ErrMalformed, numBodies)
	}

	expected := int64(headerSize) + int64(numBodies)*valuesPerBody*int64(floatSize)
	if int64(len(data)) != expected {
		return nil, fmt.Errorf("%w: expected %d bytes for %d bodies, got %d",
			ErrMalformed, expected, numBodies, len(data))
	}

	bodies := make([]types.BodyState, numBodies)
	off := headerSize
	next := func() float64 {
		var v float64
		if floatSize == Float32 {
			v = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
		} else {
			v = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
		}
		off += int(floatSize)
		return v
	}

	var vals [valuesPerBody]float64
	for i := range bodies {
		for k := range vals {
			vals[k] = next()
		}
		bodies[i] = types.BodyState{
			Position: astromath.FromComponents(vals[0:3]),
			Velocity: astromath.FromComponents(vals[3:6]),
			Mass:     vals[6],
		}
	}

	return bodies, nil
}

// ReadFile decodes the body state file at path. A missing file yields an
// error matching fs.ErrNotExist.
func ReadFile(path string) ([]types.BodyState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bodies, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bodies, nil
}

// Encode writes bodies using the given float size.
func Encode(w io.Writer, bodies []types.BodyState, floatSize int32) error {
	if floatSize != Float32 && floatSize != Float64 {
		return fmt.Errorf("unsupported float size %d", floatSize)
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(bodies)*valuesPerBody*int(floatSize))

	_ = binary.Write(&buf, binary.LittleEndian, floatSize)
	_ = binary.Write(&buf, binary.LittleEndian, int32(len(bodies)))

	for _, b := range bodies {
		vals := [valuesPerBody]float64{
			b.Position.X, b.Position.Y, b.Position.Z,
			b.Velocity.X, b.Velocity.Y, b.Velocity.Z,
			b.Mass,
		}
		for _, v := range vals {
			if floatSize == Float32 {
				_ = binary.Write(&buf, binary.LittleEndian, float32(v))
			} else {
				_ = binary.Write(&buf, binary.LittleEndian, v)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes bodies to path atomically: the content goes to a hidden
// temporary file in the same directory which is then renamed into place, so
// readers either see no file or a complete one.
func WriteFile(path string, bodies []types.BodyState, floatSize int32) error {
	dir, name := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := Encode(tmp, bodies, floatSize); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s: %w", tmpName, err)
	}
	return nil
}
