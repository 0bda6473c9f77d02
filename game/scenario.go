package game

import (
	"encoding/json"
	"sort"
)

// shipWire is the wire form of a Ship: design serializes as the template
// name only (spec.md §6), and current_* fields round-trip so a scenario
// file can capture mid-battle damage state. Crew and active-weapon damage
// are included so a reloaded scenario resumes exactly where it left off.
type shipWire struct {
	Name            string     `json:"name"`
	Position        Vec3       `json:"position"`
	Velocity        Vec3       `json:"velocity"`
	Design          string     `json:"design"`
	Crew            Crew       `json:"crew,omitempty"`
	Plan            FlightPlan `json:"plan,omitempty"`
	CurrentHull     uint32     `json:"current_hull,omitempty"`
	CurrentArmor    uint32     `json:"current_armor,omitempty"`
	CurrentPower    uint32     `json:"current_power,omitempty"`
	CurrentManeuver uint8      `json:"current_maneuver,omitempty"`
	CurrentJump     uint8      `json:"current_jump,omitempty"`
	CurrentFuel     uint32     `json:"current_fuel,omitempty"`
	CurrentCrew     uint32     `json:"current_crew,omitempty"`
	CurrentSensors  Sensors    `json:"current_sensors,omitempty"`
	ActiveWeapons   []bool     `json:"active_weapons,omitempty"`
	CritLevel       [11]uint8  `json:"crit_level,omitempty"`
	AttackDM        int        `json:"attack_dm,omitempty"`
	DodgeThrust     bool       `json:"dodge_thrust,omitempty"`
	AssistGunners   bool       `json:"assist_gunners,omitempty"`
	SensorLocks     []string   `json:"sensor_locks,omitempty"`
	CanJump         bool       `json:"can_jump"`
}

// EncodeShip renders s into its wire form.
func EncodeShip(s *Ship) shipWire {
	locks := make([]string, 0, len(s.SensorLocks))
	for name := range s.SensorLocks {
		locks = append(locks, name)
	}
	sort.Strings(locks)
	return shipWire{
		Name:            s.Name,
		Position:        s.Position,
		Velocity:        s.Velocity,
		Design:          s.Design.Name,
		Crew:            s.Crew,
		Plan:            s.Plan,
		CurrentHull:     s.CurrentHull,
		CurrentArmor:    s.CurrentArmor,
		CurrentPower:    s.CurrentPower,
		CurrentManeuver: s.CurrentManeuver,
		CurrentJump:     s.CurrentJump,
		CurrentFuel:     s.CurrentFuel,
		CurrentCrew:     s.CurrentCrew,
		CurrentSensors:  s.CurrentSensors,
		ActiveWeapons:   s.ActiveWeapons,
		CritLevel:       s.CritLevel,
		AttackDM:        s.AttackDM,
		DodgeThrust:     s.DodgeThrust,
		AssistGunners:   s.AssistGunners,
		SensorLocks:     locks,
		CanJump:         s.CanJump(),
	}
}

// DecodeShip resolves w.Design against templates (failing fast, BadRequest,
// per spec.md §6) and rebuilds a Ship, running FixupCurrentValues so a
// scenario file that omits current_* fields gets them defaulted to full
// design strength.
func DecodeShip(w shipWire, templates map[string]*ShipDesignTemplate) (*Ship, error) {
	design, err := ResolveTemplate(templates, w.Design)
	if err != nil {
		return nil, err
	}
	s := NewShip(w.Name, w.Position, w.Velocity, w.Plan, design)
	s.Crew = w.Crew
	s.CurrentHull = w.CurrentHull
	s.CurrentArmor = w.CurrentArmor
	s.CurrentPower = w.CurrentPower
	s.CurrentManeuver = w.CurrentManeuver
	s.CurrentJump = w.CurrentJump
	s.CurrentFuel = w.CurrentFuel
	s.CurrentCrew = w.CurrentCrew
	s.CurrentSensors = w.CurrentSensors
	if w.ActiveWeapons != nil {
		s.ActiveWeapons = w.ActiveWeapons
	}
	s.CritLevel = w.CritLevel
	s.AttackDM = w.AttackDM
	s.DodgeThrust = w.DodgeThrust
	s.AssistGunners = w.AssistGunners
	for _, name := range w.SensorLocks {
		s.SensorLocks[name] = s.CurrentSensors
	}
	s.FixupCurrentValues()
	return s, nil
}

type planetWire struct {
	Name             string   `json:"name"`
	Position         Vec3     `json:"position"`
	Velocity         Vec3     `json:"velocity"`
	Color            string   `json:"color"`
	Radius           float64  `json:"radius"`
	Mass             float64  `json:"mass"`
	Primary          string   `json:"primary,omitempty"`
	GravityRadius2   *float64 `json:"gravity_radius_2,omitempty"`
	GravityRadius1   *float64 `json:"gravity_radius_1,omitempty"`
	GravityRadius05  *float64 `json:"gravity_radius_05,omitempty"`
	GravityRadius025 *float64 `json:"gravity_radius_025,omitempty"`
}

func EncodePlanet(p *Planet) planetWire {
	return planetWire{
		Name:             p.Name,
		Position:         p.Position,
		Velocity:         p.Velocity,
		Color:            p.Color,
		Radius:           p.Radius,
		Mass:             p.Mass,
		Primary:          p.Primary,
		GravityRadius2:   p.GravityRadius2,
		GravityRadius1:   p.GravityRadius1,
		GravityRadius05:  p.GravityRadius05,
		GravityRadius025: p.GravityRadius025,
	}
}

func DecodePlanet(w planetWire, dependency int) *Planet {
	return NewPlanet(w.Name, w.Position, w.Color, w.Radius, w.Mass, w.Primary, dependency)
}

type missileWire struct {
	Name         string `json:"name"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Position     Vec3   `json:"position"`
	Velocity     Vec3   `json:"velocity"`
	Acceleration Vec3   `json:"acceleration"`
	Burns        int    `json:"burns"`
}

func EncodeMissile(m *Missile) missileWire {
	return missileWire{
		Name:         m.Name,
		Source:       m.Source,
		Target:       m.Target,
		Position:     m.Position,
		Velocity:     m.Velocity,
		Acceleration: m.Acceleration,
		Burns:        m.Burns,
	}
}

func DecodeMissile(w missileWire) *Missile {
	return &Missile{
		Name:         w.Name,
		Source:       w.Source,
		Target:       w.Target,
		Position:     w.Position,
		Velocity:     w.Velocity,
		Acceleration: w.Acceleration,
		Burns:        w.Burns,
	}
}

// entitiesWire is the scenario-file / EntitiesRequest wire form: ships and
// planets always present, missiles typically absent mid-round per spec.md
// §6. actions is surfaced for EntitiesRequest responses but never consumed
// back in; it's a point-in-time projection of the pending action buffer.
type entitiesWire struct {
	Ships    []shipWire    `json:"ships"`
	Missiles []missileWire `json:"missiles,omitempty"`
	Planets  []planetWire  `json:"planets"`
	Actions  []ShipActions `json:"actions"`
}

// EncodeEntities renders e into its wire form, entities in insertion order
// and pending actions by ship name, so repeat requests against an unchanged
// scenario produce byte-identical output.
func EncodeEntities(e *Entities) []byte {
	w := entitiesWire{
		Ships:    make([]shipWire, 0, len(e.shipOrder)),
		Missiles: make([]missileWire, 0, len(e.missileOrder)),
		Planets:  make([]planetWire, 0, len(e.planetOrder)),
		Actions:  make([]ShipActions, 0, len(e.Actions)),
	}
	for _, name := range e.shipOrder {
		w.Ships = append(w.Ships, EncodeShip(e.Ships[name]))
	}
	for _, name := range e.missileOrder {
		w.Missiles = append(w.Missiles, EncodeMissile(e.Missiles[name]))
	}
	for _, name := range e.planetOrder {
		w.Planets = append(w.Planets, EncodePlanet(e.Planets[name]))
	}
	actionShips := make([]string, 0, len(e.Actions))
	for ship := range e.Actions {
		actionShips = append(actionShips, ship)
	}
	sort.Strings(actionShips)
	for _, ship := range actionShips {
		w.Actions = append(w.Actions, ShipActions{Ship: ship, Actions: e.Actions[ship]})
	}
	data, _ := json.Marshal(w)
	return data
}

// DecodeEntities parses a scenario file (or EntitiesRequest echo) into a
// fresh Entities, resolving every ship's design against templates and
// failing fast (BadRequest) if any name is unknown, per spec.md §6.
func DecodeEntities(data []byte, templates map[string]*ShipDesignTemplate) (*Entities, error) {
	var w entitiesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, NewError(BadRequest, "parsing entities: %v", err)
	}
	e := NewEntities()
	for _, sw := range w.Ships {
		s, err := DecodeShip(sw, templates)
		if err != nil {
			return nil, err
		}
		if err := e.AddShip(s); err != nil {
			return nil, err
		}
	}
	byName := make(map[string]planetWire, len(w.Planets))
	for _, pw := range w.Planets {
		byName[pw.Name] = pw
	}
	depths := make(map[string]int, len(w.Planets))
	var depthOf func(name string, seen map[string]bool) int
	depthOf = func(name string, seen map[string]bool) int {
		if d, ok := depths[name]; ok {
			return d
		}
		pw, ok := byName[name]
		if !ok || pw.Primary == "" || seen[name] {
			depths[name] = 0
			return 0
		}
		seen[name] = true
		d := 1 + depthOf(pw.Primary, seen)
		depths[name] = d
		return d
	}
	for _, pw := range w.Planets {
		if err := e.AddPlanet(DecodePlanet(pw, depthOf(pw.Name, map[string]bool{}))); err != nil {
			return nil, err
		}
	}
	for _, mw := range w.Missiles {
		e.addMissile(DecodeMissile(mw))
	}
	return e, nil
}

// CloneEntities deep-copies e via round-tripping through the wire form,
// used for the scenario's initial_scenario reset snapshot (spec.md §4.7).
func CloneEntities(e *Entities, templates map[string]*ShipDesignTemplate) (*Entities, error) {
	return DecodeEntities(EncodeEntities(e), templates)
}
