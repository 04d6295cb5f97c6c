package nbody

import (
	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

// GaussianG is the gravitational constant in AU³/(M☉·day²)
const GaussianG = 2.959122e-4

// System is a set of gravitating bodies advanced by the leapfrog integrator
type System struct {
	Bodies []types.BodyState
	Time   float64
	G      float64
}

// NewSystem creates a system from initial conditions. The states are copied.
func NewSystem(initial []types.BodyState, g float64) *System {
	bodies := make([]types.BodyState, len(initial))
	copy(bodies, initial)
	return &System{Bodies: bodies, G: g}
}

// States returns a copy of the current body states
func (s *System) States() []types.BodyState {
	out := make([]types.BodyState, len(s.Bodies))
	copy(out, s.Bodies)
	return out
}

// LeapfrogStep advances the system by dt (kick-drift-kick)
func (s *System) LeapfrogStep(dt float64) {
	acc := s.accelerations()
	for i := range s.Bodies {
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.Add(acc[i].Scale(dt * 0.5))
	}

	for i := range s.Bodies {
		s.Bodies[i].Position = s.Bodies[i].Position.Add(s.Bodies[i].Velocity.Scale(dt))
	}

	acc = s.accelerations()
	for i := range s.Bodies {
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.Add(acc[i].Scale(dt * 0.5))
	}

	s.Time += dt
}

// accelerations computes the gravitational pull on every body. Massless
// bodies feel gravity but exert none.
func (s *System) accelerations() []astromath.Vector3 {
	n := len(s.Bodies)
	acc := make([]astromath.Vector3, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || s.Bodies[j].Mass <= 0 {
				continue
			}
			r := s.Bodies[j].Position.Sub(s.Bodies[i].Position)
			rMag := r.Magnitude()
			// Avoid singularity
			if rMag < 1e-10 {
				continue
			}
			acc[i] = acc[i].Add(r.Scale(s.G * s.Bodies[j].Mass / (rMag * rMag * rMag)))
		}
	}

	return acc
}

// KineticEnergy returns the total kinetic energy
func (s *System) KineticEnergy() float64 {
	energy := 0.0
	for _, body := range s.Bodies {
		energy += 0.5 * body.Mass * body.Velocity.Dot(body.Velocity)
	}
	return energy
}

// PotentialEnergy returns the total gravitational potential energy
func (s *System) PotentialEnergy() float64 {
	energy := 0.0
	n := len(s.Bodies)

	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			r := s.Bodies[i].Position.Distance(s.Bodies[j].Position)
			if r > 1e-10 {
				energy -= s.G * s.Bodies[i].Mass * s.Bodies[j].Mass / r
			}
		}
	}

	return energy
}

// TotalEnergy should stay close to its initial value over a run
func (s *System) TotalEnergy() float64 {
	return s.KineticEnergy() + s.PotentialEnergy()
}
