package types

import (
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

// BodyState is the observable state of one tracked body at one iteration.
// Only Position is interpreted by the acquisition layer; Velocity and Mass
// are carried through untouched.
type BodyState struct {
	Position astromath.Vector3 `json:"position"`
	Velocity astromath.Vector3 `json:"velocity"`
	Mass     float64           `json:"mass"`
}

// Snapshot holds every body of a trajectory at the same iteration,
// indexed by entity id.
type Snapshot struct {
	Iteration int         `json:"iteration"`
	Bodies    []BodyState `json:"bodies"`
}

// NumBodies returns the entity count of the snapshot
func (s *Snapshot) NumBodies() int {
	return len(s.Bodies)
}

// Series is the position history of a single body along three parallel axes.
type Series struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

// Len returns the number of samples in the series
func (s Series) Len() int {
	return len(s.X)
}

// Append adds one position sample to the series
func (s *Series) Append(p astromath.Vector3) {
	s.X = append(s.X, p.X)
	s.Y = append(s.Y, p.Y)
	s.Z = append(s.Z, p.Z)
}

// At returns the i-th sample as a vector
func (s Series) At(i int) astromath.Vector3 {
	return astromath.Vector3{X: s.X[i], Y: s.Y[i], Z: s.Z[i]}
}

// Last returns the most recent sample. The series must not be empty.
func (s Series) Last() astromath.Vector3 {
	return s.At(s.Len() - 1)
}

// Bundle is one Series per body, in entity index order.
type Bundle []Series

// Delta describes a single live update: the positions appended to each
// body's series for one iteration.
type Delta struct {
	Iteration int                 `json:"iteration"`
	NumBodies int                 `json:"num_bodies"`
	Positions []astromath.Vector3 `json:"positions"`
}
