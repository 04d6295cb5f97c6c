package orbital

import (
	"math"

	"github.com/oxygene76/trajview/internal/types"
	astromath "github.com/oxygene76/trajview/pkg/astronomy/math"
)

// Elements are osculating Keplerian elements. Angles are in radians.
type Elements struct {
	SemiMajorAxis          float64 `json:"semi_major_axis"`
	Eccentricity           float64 `json:"eccentricity"`
	Inclination            float64 `json:"inclination"`
	LongitudeAscendingNode float64 `json:"longitude_ascending_node"`
	ArgumentPerihelion     float64 `json:"argument_perihelion"`
	MeanAnomaly            float64 `json:"mean_anomaly"`
}

// Bound reports whether the orbit is elliptic
func (oe Elements) Bound() bool {
	return oe.SemiMajorAxis > 0 && oe.Eccentricity < 1
}

// Perihelion returns the closest approach distance
func (oe Elements) Perihelion() float64 {
	return oe.SemiMajorAxis * (1 - oe.Eccentricity)
}

// Aphelion returns the farthest distance of a bound orbit
func (oe Elements) Aphelion() float64 {
	return oe.SemiMajorAxis * (1 + oe.Eccentricity)
}

// Period returns the orbital period of a bound orbit in the time unit of mu
func (oe Elements) Period(mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(math.Pow(oe.SemiMajorAxis, 3)/mu)
}

// FromStateVector converts a relative position and velocity to elements.
// mu is G times the sum of the two masses.
func FromStateVector(pos, vel astromath.Vector3, mu float64) Elements {
	h := pos.Cross(vel)
	r := pos.Magnitude()
	v := vel.Magnitude()

	eVec := vel.Cross(h).Scale(1.0 / mu).Sub(pos.Scale(1.0 / r))
	e := eVec.Magnitude()

	a := 1.0 / (2.0/r - v*v/mu)

	inc := 0.0
	if hMag := h.Magnitude(); hMag > 0 {
		inc = math.Acos(clamp(h.Z / hMag))
	}

	// node vector
	n := astromath.Vector3{Z: 1}.Cross(h)
	node := 0.0
	if n.Magnitude() > 1e-10 {
		node = math.Atan2(n.Y, n.X)
		if node < 0 {
			node += 2 * math.Pi
		}
	}

	argPeri := 0.0
	if n.Magnitude() > 1e-10 && e > 1e-10 {
		argPeri = math.Acos(clamp(n.Dot(eVec) / (n.Magnitude() * e)))
		if eVec.Z < 0 {
			argPeri = 2*math.Pi - argPeri
		}
	}

	meanAnomaly := 0.0
	if e > 1e-10 && e < 1 {
		E := math.Acos(clamp((1 - r/a) / e))
		if pos.Dot(vel) < 0 {
			E = 2*math.Pi - E
		}
		meanAnomaly = E - e*math.Sin(E)
	}

	return Elements{
		SemiMajorAxis:          a,
		Eccentricity:           e,
		Inclination:            inc,
		LongitudeAscendingNode: node,
		ArgumentPerihelion:     argPeri,
		MeanAnomaly:            meanAnomaly,
	}
}

// Relative returns the elements of body around central.
func Relative(central, body types.BodyState, g float64) Elements {
	mu := g * (central.Mass + body.Mass)
	return FromStateVector(
		body.Position.Sub(central.Position),
		body.Velocity.Sub(central.Velocity),
		mu,
	)
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
