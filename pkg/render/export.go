package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/trajview/internal/types"
)

// WriteCSV writes a bundle in long format: body,step,x,y,z.
func WriteCSV(w io.Writer, bundle types.Bundle) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"body", "step", "x", "y", "z"}); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for body, series := range bundle {
		for step := 0; step < series.Len(); step++ {
			row := []string{
				strconv.Itoa(body),
				strconv.Itoa(step),
				format(series.X[step]),
				format(series.Y[step]),
				format(series.Z[step]),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// BodySummary describes the trajectory of one body
type BodySummary struct {
	Body       int        `json:"body"`
	Samples    int        `json:"samples"`
	Mean       [3]float64 `json:"mean"`
	StdDev     [3]float64 `json:"std_dev"`
	Final      [3]float64 `json:"final"`
	PathLength float64    `json:"path_length"`
}

// Summarize computes per-body statistics of a bundle.
func Summarize(bundle types.Bundle) []BodySummary {
	summaries := make([]BodySummary, len(bundle))

	for body, series := range bundle {
		s := BodySummary{Body: body, Samples: series.Len()}
		if series.Len() == 0 {
			summaries[body] = s
			continue
		}

		for axis, values := range [][]float64{series.X, series.Y, series.Z} {
			if len(values) > 1 {
				s.Mean[axis], s.StdDev[axis] = stat.MeanStdDev(values, nil)
			} else {
				s.Mean[axis] = values[0]
			}
		}
		s.Final = series.Last().Components()

		for i := 1; i < series.Len(); i++ {
			s.PathLength += series.At(i).Distance(series.At(i - 1))
		}

		summaries[body] = s
	}

	return summaries
}

// WriteSummary prints summaries as an aligned table.
func WriteSummary(w io.Writer, summaries []BodySummary) error {
	if _, err := fmt.Fprintf(w, "%-6s %8s %38s %38s %14s\n", "BODY", "SAMPLES", "MEAN (x, y, z)", "FINAL (x, y, z)", "PATH"); err != nil {
		return err
	}
	for _, s := range summaries {
		_, err := fmt.Fprintf(w, "%-6d %8d %12.4g %12.4g %12.4g %12.4g %12.4g %12.4g %14.6g\n",
			s.Body, s.Samples,
			s.Mean[0], s.Mean[1], s.Mean[2],
			s.Final[0], s.Final[1], s.Final[2],
			s.PathLength)
		if err != nil {
			return err
		}
	}
	return nil
}
