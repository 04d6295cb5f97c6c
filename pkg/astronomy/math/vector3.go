package math

import "math"

// Vector3 is a cartesian triple used for positions and velocities
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the sum of two vectors
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the difference between two vectors
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns the vector scaled by a scalar
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Dot(other Vector3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Magnitude returns the euclidean length
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.Dot(v))
}

// Distance returns the euclidean distance between two points
func (v Vector3) Distance(other Vector3) float64 {
	return v.Sub(other).Magnitude()
}

// Components returns the vector as an array in x, y, z order
func (v Vector3) Components() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FromComponents builds a vector from the first three values of c.
func FromComponents(c []float64) Vector3 {
	return Vector3{X: c[0], Y: c[1], Z: c[2]}
}
