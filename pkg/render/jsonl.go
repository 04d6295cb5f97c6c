package render

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/oxygene76/trajview/internal/types"
)

// JSONLRenderer streams every live update as one JSON object per line.
type JSONLRenderer struct {
	bw *bufio.Writer
}

type jsonlDelta struct {
	Iteration int          `json:"iteration"`
	NumBodies int          `json:"num_bodies"`
	Positions [][3]float64 `json:"positions"`
}

func NewJSONLRenderer(w io.Writer) *JSONLRenderer {
	return &JSONLRenderer{bw: bufio.NewWriter(w)}
}

func (r *JSONLRenderer) Render(_ context.Context, delta types.Delta, _ types.Bundle) error {
	rec := jsonlDelta{
		Iteration: delta.Iteration,
		NumBodies: delta.NumBodies,
		Positions: make([][3]float64, len(delta.Positions)),
	}
	for i, p := range delta.Positions {
		rec.Positions[i] = p.Components()
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := r.bw.Write(b); err != nil {
		return err
	}
	if err := r.bw.WriteByte('\n'); err != nil {
		return err
	}
	// live consumers read line by line
	return r.bw.Flush()
}

// Close flushes buffered output
func (r *JSONLRenderer) Close() error {
	return r.bw.Flush()
}
