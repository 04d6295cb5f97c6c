package serde

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

// ParseCSV reads initial conditions, one body per row:
// x,y,z,vx,vy,vz,mass with an optional trailing comma.
func ParseCSV(r io.Reader) ([]types.BodyState, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var bodies []types.BodyState
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if n := len(record); n == valuesPerBody+1 && strings.TrimSpace(record[valuesPerBody]) == "" {
			record = record[:valuesPerBody]
		}
		if len(record) != valuesPerBody {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, valuesPerBody, len(record))
		}

		var vals [valuesPerBody]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}

		bodies = append(bodies, types.BodyState{
			Position: astromath.FromComponents(vals[0:3]),
			Velocity: astromath.FromComponents(vals[3:6]),
			Mass:     vals[6],
		})
	}

	return bodies, nil
}

// LoadInitialConditions reads a .csv or .bin initial condition file.
func LoadInitialConditions(path string) ([]types.BodyState, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseCSV(f)
	case ".bin":
		return ReadFile(path)
	default:
		return nil, fmt.Errorf("unsupported initial condition file %s: want .csv or .bin", path)
	}
}
