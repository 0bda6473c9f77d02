// Package game implements the simulation core: ships, missiles, planets,
// flight plans, the flight-path solver, and the combat resolver. It has no
// knowledge of networking, sessions, or wire formats.
package game

import (
	"encoding/json"
	"math"
)

// Vec3 is a Cartesian vector in meters, meters/second, or meters/second^2
// depending on context.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Magnitude() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector in v's direction, or the zero vector if
// v is (near) zero.
func (v Vec3) Normalize() Vec3 {
	m := v.Magnitude()
	if m < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1 / m)
}

func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// RotateXZ90 rotates v by 90 degrees about the y axis, used to build a
// tangent direction for circular orbital motion confined to the x-z plane.
func (v Vec3) RotateXZ90() Vec3 {
	return Vec3{X: -v.Z, Y: v.Y, Z: v.X}
}

// WithY0 zeros the y component, projecting v onto the x-z plane.
func (v Vec3) WithY0() Vec3 {
	return Vec3{X: v.X, Y: 0, Z: v.Z}
}

func Distance(a, b Vec3) float64 {
	return a.Sub(b).Magnitude()
}

// MarshalJSON renders a Vec3 as the three-element [x,y,z] array the wire
// format uses throughout (entity positions/velocities, flight plan
// accelerations), matching payloads.rs's hand-written FlightPathMsg
// serialization rather than the default named-field object.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

func (v *Vec3) UnmarshalJSON(data []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
	return nil
}
