package serde

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

func sampleBodies() []types.BodyState {
	return []types.BodyState{
		{Position: astromath.Vector3{X: 1, Y: 2, Z: 3}, Velocity: astromath.Vector3{X: 0.5, Y: -0.5}, Mass: 10},
		{Position: astromath.Vector3{X: -4, Y: 0, Z: 8}, Velocity: astromath.Vector3{Z: 1.25}, Mass: 0.25},
	}
}

func TestEncodeDecodeFloat64(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleBodies(), Float64))
	assert.Equal(t, 8+2*7*8, buf.Len())

	bodies, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sampleBodies(), bodies)
}

func TestEncodeDecodeFloat32(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleBodies(), Float32))
	assert.Equal(t, 8+2*7*4, buf.Len())

	bodies, err := Decode(buf.Bytes())
	require.NoError(t, err)
	// every sample value is exactly representable as float32
	assert.Equal(t, sampleBodies(), bodies)
}

func TestDecodeEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil, Float64))

	bodies, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, bodies)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Encode(&good, sampleBodies(), Float64))

	header := func(floatSize, n int32) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint32(b[0:], uint32(floatSize))
		binary.LittleEndian.PutUint32(b[4:], uint32(n))
		return b
	}

	cases := map[string][]byte{
		"empty":           {},
		"short header":    {8, 0, 0},
		"bad float size":  header(3, 0),
		"negative bodies": header(8, -1),
		"truncated":       good.Bytes()[:good.Len()-5],
		"trailing bytes":  append(append([]byte{}, good.Bytes()...), 0xff),
		"huge body count": header(8, 1<<30),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeRejectsFloatSize(t *testing.T) {
	err := Encode(&bytes.Buffer{}, sampleBodies(), 2)
	assert.Error(t, err)
}

func TestWriteFileAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0.bin")

	require.NoError(t, WriteFile(path, sampleBodies(), Float64))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not survive the rename")
	assert.Equal(t, "0.bin", entries[0].Name())

	bodies, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleBodies(), bodies)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "7.bin"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadFileCorruptNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "3.bin")
	require.NoError(t, os.WriteFile(path, []byte{8, 0, 0, 0, 1}, 0o644))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), path)
}

func TestParseCSV(t *testing.T) {
	input := "1,2,3,0.5,-0.5,0,10,\n-4, 0, 8, 0, 0, 1.25, 0.25\n"

	bodies, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, sampleBodies(), bodies)
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("1,2,3\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = ParseCSV(strings.NewReader("1,2,3,4,5,6,7\n1,2,x,4,5,6,7\n"))
	assert.ErrorContains(t, err, "line 2 column 3")
}

func TestLoadInitialConditions(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "ic.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("1,2,3,0.5,-0.5,0,10\n-4,0,8,0,0,1.25,0.25\n"), 0o644))
	binPath := filepath.Join(dir, "ic.bin")
	require.NoError(t, WriteFile(binPath, sampleBodies(), Float64))

	fromCSV, err := LoadInitialConditions(csvPath)
	require.NoError(t, err)
	fromBin, err := LoadInitialConditions(binPath)
	require.NoError(t, err)

	assert.Equal(t, fromCSV, fromBin)

	_, err = LoadInitialConditions(filepath.Join(dir, "ic.txt"))
	assert.Error(t, err)
}
