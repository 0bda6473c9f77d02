package game

import "go.uber.org/zap"

// Ship is one vessel's mutable state plus an immutable reference to its
// design template. Name is unique across ships, missiles, and planets
// within a scenario.
type Ship struct {
	Name     string
	Position Vec3
	Velocity Vec3
	Plan     FlightPlan
	Design   *ShipDesignTemplate
	Crew     Crew

	CurrentHull     uint32
	CurrentArmor    uint32
	CurrentPower    uint32
	CurrentManeuver uint8
	CurrentJump     uint8
	CurrentFuel     uint32
	CurrentCrew     uint32
	CurrentSensors  Sensors

	// ActiveWeapons is indexed the same as Design.Weapons; false means the
	// mount has been damaged out.
	ActiveWeapons []bool

	// CritLevel counts sustained criticals per ShipSystem; indexed by
	// ShipSystem.
	CritLevel [11]uint8

	AttackDM int

	// DodgeThrust and AssistGunners are pilot actions scoped to one round;
	// the round pipeline clears them after every update.
	DodgeThrust   bool
	AssistGunners bool

	// SensorLocks maps a held target name to the sensor quality this ship
	// had at the moment the lock was acquired; ResolveFireAction uses
	// min(CurrentSensors, lockedQuality) so a stale lock caps the benefit
	// of sensors upgraded after acquisition, and sensors damaged after
	// acquisition still cap it too, matching spec's
	// sensor_lock_on(D).quality_or_own term.
	SensorLocks map[string]Sensors
}

// NewShip creates a ship at full design strength.
func NewShip(name string, position, velocity Vec3, plan FlightPlan, design *ShipDesignTemplate) *Ship {
	s := &Ship{
		Name:            name,
		Position:        position,
		Velocity:        velocity,
		Plan:            plan,
		Design:          design,
		CurrentHull:     design.Hull,
		CurrentArmor:    design.Armor,
		CurrentPower:    design.Power,
		CurrentManeuver: design.Maneuver,
		CurrentJump:     design.Jump,
		CurrentFuel:     design.Fuel,
		CurrentCrew:     design.Crew,
		CurrentSensors:  design.Sensors,
		ActiveWeapons:   make([]bool, len(design.Weapons)),
		SensorLocks:     make(map[string]Sensors),
	}
	for i := range s.ActiveWeapons {
		s.ActiveWeapons[i] = true
	}
	return s
}

// FixupCurrentValues sets every current_* field left at zero (omitted when
// deserializing, serde-style default-then-fixup) to its design value and
// caps any value above design at design, so current_* ≤ design afterwards
// while recorded damage is kept. SensorsBasic is the zero grade and counts
// as omitted. After original_source/callisto's Ship::fixup_current_values.
func (s *Ship) FixupCurrentValues() {
	s.CurrentHull = fixupU32(s.CurrentHull, s.Design.Hull)
	s.CurrentArmor = fixupU32(s.CurrentArmor, s.Design.Armor)
	s.CurrentPower = fixupU32(s.CurrentPower, s.Design.Power)
	s.CurrentManeuver = fixupU8(s.CurrentManeuver, s.Design.Maneuver)
	s.CurrentJump = fixupU8(s.CurrentJump, s.Design.Jump)
	s.CurrentFuel = fixupU32(s.CurrentFuel, s.Design.Fuel)
	s.CurrentCrew = fixupU32(s.CurrentCrew, s.Design.Crew)
	if s.CurrentSensors == SensorsBasic || s.CurrentSensors > s.Design.Sensors {
		s.CurrentSensors = s.Design.Sensors
	}
}

func fixupU32(current, design uint32) uint32 {
	if current == 0 || current > design {
		return design
	}
	return current
}

func fixupU8(current, design uint8) uint8 {
	if current == 0 || current > design {
		return design
	}
	return current
}

// MaxAcceleration is the thrust cap, in g-units, available given current
// power and damage state. FlightPlan accelerations are stored in g-units
// throughout this package (solver.go converts to m/s^2 when building a
// plan, missile.go and Update convert back at the point of integration),
// so this stays unscaled; callers that need m/s^2, such as the solver
// entry points in server/registry.go, scale by G themselves.
func (s *Ship) MaxAcceleration() float64 {
	return float64(s.Design.BestThrust(s.CurrentPower))
}

// SetFlightPlan validates a proposed plan against MaxAcceleration and, only
// if both phases are within the cap, replaces the ship's plan. Per
// spec.md's Testable Properties, a rejected plan leaves the prior plan
// untouched.
func (s *Ship) SetFlightPlan(plan FlightPlan) error {
	maxAccel := s.MaxAcceleration()
	if plan.First.Accel.Magnitude() > maxAccel {
		return NewError(BadRequest, "flight plan first acceleration exceeds max acceleration %.3f", maxAccel)
	}
	if plan.Second != nil && plan.Second.Accel.Magnitude() > maxAccel {
		return NewError(BadRequest, "flight plan second acceleration exceeds max acceleration %.3f", maxAccel)
	}
	s.Plan = plan
	return nil
}

// CanJump reports whether the ship retains some jump rating and at least one
// crew member, the preconditions for attempting a Jump action.
func (s *Ship) CanJump() bool {
	return s.CurrentJump > 0 && s.CurrentCrew > 0
}

// Update advances the ship by one DELTA_TIME quantum: destroyed ships emit
// ShipDestroyed and nothing else; otherwise thrust (if any) is reclamped to
// the current max acceleration before being consumed, and position/velocity
// integrate with the trapezoidal rule over each resulting phase slice.
func (s *Ship) Update(log *zap.SugaredLogger) *UpdateAction {
	if s.CurrentHull == 0 {
		if log != nil {
			log.Debugw("ship destroyed", "ship", s.Name)
		}
		return &UpdateAction{Kind: ActionShipDestroyed, Position: s.Position}
	}

	if s.Plan.Empty() {
		s.Position = s.Position.Add(s.Velocity.Scale(DeltaTime))
		return nil
	}

	maxThrust := s.MaxAcceleration()
	s.Plan.EnsureThrustLimit(maxThrust)
	moves := s.Plan.AdvanceTime(DeltaTime)

	for _, ap := range moves.Phases() {
		oldVelocity := s.Velocity
		s.Velocity = s.Velocity.Add(ap.Accel.Scale(G * float64(ap.Duration)))
		s.Position = s.Position.Add(oldVelocity.Add(s.Velocity).Scale(0.5 * float64(ap.Duration)))
	}
	return nil
}

// ActionKind tags the effect a single entity's Update may emit.
type ActionKind int

const (
	ActionShipDestroyed ActionKind = iota
	ActionShipImpact
	ActionExhaustedMissile
)

// UpdateAction is the optional effect an entity's per-tick Update emits,
// consumed by the Entities round pipeline to build the Effect list
// broadcast to clients.
type UpdateAction struct {
	Kind     ActionKind
	Name     string // missile name, for ActionExhaustedMissile
	Target   string // ActionShipImpact target ship name
	Position Vec3
}
