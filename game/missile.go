package game

import "go.uber.org/zap"

// Missile homes on a named target, re-solving its course every tick. Burns
// is the remaining count of DELTA_TIME quanta of full-thrust propellant.
type Missile struct {
	Name         string
	Position     Vec3
	Velocity     Vec3
	Source       string
	Target       string
	Acceleration Vec3
	Burns        int
}

// NewMissile creates a missile with DefaultBurn propellant, aimed at
// target's current position/velocity for display purposes; the course is
// re-solved on every subsequent Update regardless.
func NewMissile(name, source, target string, position, velocity Vec3, targetPos, targetVel Vec3) *Missile {
	m := &Missile{
		Name:     name,
		Position: position,
		Velocity: velocity,
		Source:   source,
		Target:   target,
		Burns:    DefaultBurn,
	}
	if solved, err := ComputeTargetPath(TargetParams{
		StartPos:        position,
		StartVel:        velocity,
		TargetPos:       targetPos,
		TargetVel:       targetVel,
		MaxAcceleration: MaxMissileAcceleration,
	}); err == nil {
		m.Acceleration = solved.Plan.First.Accel.Scale(G)
	}
	return m
}

// Update re-resolves the pursuit course, burns at full thrust for one
// DELTA_TIME, and reports impact or exhaustion. lookupTarget resolves the
// target's current position/velocity by name; it returns ok=false when the
// named ship no longer exists, in which case the missile is treated as
// exhausted per spec.md §4.3 step 1.
func (m *Missile) Update(log *zap.SugaredLogger, lookupTarget func(name string) (pos, vel Vec3, ok bool)) *UpdateAction {
	targetPos, targetVel, ok := lookupTarget(m.Target)
	if !ok {
		if log != nil {
			log.Debugw("missile target gone, exhausting", "missile", m.Name, "target", m.Target)
		}
		return &UpdateAction{Kind: ActionExhaustedMissile, Name: m.Name, Position: m.Position}
	}

	solved, err := ComputeTargetPath(TargetParams{
		StartPos:        m.Position,
		StartVel:        m.Velocity,
		TargetPos:       targetPos,
		TargetVel:       targetVel,
		MaxAcceleration: MaxMissileAcceleration,
	})
	if err != nil {
		if log != nil {
			log.Warnw("missile solver failed, exhausting", "missile", m.Name, "error", err)
		}
		return &UpdateAction{Kind: ActionExhaustedMissile, Name: m.Name, Position: m.Position}
	}

	slice := solved.Plan.AdvanceTime(DeltaTime)
	if slice.HasSecond() {
		// Missiles burn at full thrust for a whole quantum; a slice
		// spanning both phases would mean an inconsistent solve.
		slice = FlightPlan{First: slice.First}
	}

	accel, duration := slice.First.Accel, float64(slice.First.Duration)
	m.Acceleration = accel.Scale(G)
	oldVelocity := m.Velocity
	m.Velocity = m.Velocity.Add(accel.Scale(G * duration))
	m.Position = m.Position.Add(oldVelocity.Add(m.Velocity).Scale(duration / 2))

	if Distance(m.Position, targetPos) < ImpactDistance {
		return &UpdateAction{Kind: ActionShipImpact, Target: m.Target, Position: m.Position}
	}

	m.Burns--
	if m.Burns <= 0 {
		return &UpdateAction{Kind: ActionExhaustedMissile, Name: m.Name, Position: m.Position}
	}
	return nil
}
