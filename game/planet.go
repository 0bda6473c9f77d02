package game

import "math"

// gravitationalConstant is Newton's G, in m^3 kg^-1 s^-2 — distinct from
// the package-level G (one standard acceleration). The original source
// used two slightly different literals for this constant across two
// functions; this implementation uses one value everywhere (see
// DESIGN.md).
const gravitationalConstant = 6.674e-11

// Planet is a body with optional circular orbital motion around a named
// primary, confined to the x-z plane, plus precomputed gravity-well radii
// for UI overlays.
type Planet struct {
	Name     string
	Position Vec3
	Velocity Vec3
	Color    string
	Radius   float64
	Mass     float64
	Primary  string // name of orbited body, empty if none

	// Dependency orders planet updates: primaries (dependency 0) update
	// before anything that orbits them.
	Dependency int

	GravityRadius2   *float64
	GravityRadius1   *float64
	GravityRadius05  *float64
	GravityRadius025 *float64
}

func NewPlanet(name string, position Vec3, color string, radius, mass float64, primary string, dependency int) *Planet {
	p := &Planet{
		Name:       name,
		Position:   position,
		Color:      color,
		Radius:     radius,
		Mass:       mass,
		Primary:    primary,
		Dependency: dependency,
	}
	p.ResetGravityWells()
	return p
}

func gravityRadius(thresholdG, mass float64) float64 {
	return math.Sqrt(gravitationalConstant * mass / (G * thresholdG))
}

func aboveSurfaceOrNil(surface, distance float64) *float64 {
	if distance < surface {
		return nil
	}
	return &distance
}

// ResetGravityWells recomputes the four threshold radii from mass/radius;
// called once at construction and whenever mass or radius change.
func (p *Planet) ResetGravityWells() {
	p.GravityRadius2 = aboveSurfaceOrNil(p.Radius, gravityRadius(2.0, p.Mass))
	p.GravityRadius1 = aboveSurfaceOrNil(p.Radius, gravityRadius(1.0, p.Mass))
	p.GravityRadius05 = aboveSurfaceOrNil(p.Radius, gravityRadius(0.5, p.Mass))
	p.GravityRadius025 = aboveSurfaceOrNil(p.Radius, gravityRadius(0.25, p.Mass))
}

// Update advances a parentless planet not at all (it is stationary); a
// planet with a primary computes circular-orbit velocity on the x-z plane
// and integrates position with the trapezoidal rule. primaryPos/primaryVel
// are looked up by the caller (Entities.Update) in dependency order so a
// primary is always already current.
func (p *Planet) Update(primaryPos, primaryVel Vec3, primaryMass float64, hasPrimary bool) {
	if !hasPrimary {
		return
	}

	orbitRadius := p.Position.Sub(primaryPos).WithY0()
	speed := math.Sqrt(gravitationalConstant * primaryMass / orbitRadius.Magnitude())

	oldVelocity := p.Velocity
	tangent := orbitRadius.RotateXZ90().Normalize()
	p.Velocity = tangent.Scale(speed).Add(primaryVel)

	p.Position = p.Position.Add(oldVelocity.Add(p.Velocity).Scale(0.5 * DeltaTime))
}
