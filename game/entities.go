package game

import (
	"math/rand"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// Entities owns every ship, missile, and planet in one scenario, plus the
// buffer of actions queued for the next Update. A name appears in at most
// one of the three maps. orders tracks insertion order so wire responses
// enumerate entities deterministically rather than in Go's randomized map
// order.
type Entities struct {
	Ships    map[string]*Ship
	Missiles map[string]*Missile
	Planets  map[string]*Planet

	shipOrder    []string
	missileOrder []string
	planetOrder  []string

	// Actions is the pending per-ship action buffer, merged by
	// MergeActions and cleared at the end of each Update.
	Actions map[string][]Action

	// missileCounter names launched missiles uniquely within this
	// Entities. Scoped here rather than package-level because scenarios
	// update concurrently under independent mutexes (spec.md §5); a
	// shared package counter would race across them.
	missileCounter int
}

func NewEntities() *Entities {
	return &Entities{
		Ships:    make(map[string]*Ship),
		Missiles: make(map[string]*Missile),
		Planets:  make(map[string]*Planet),
		Actions:  make(map[string][]Action),
	}
}

// NameInUse reports whether name is already used by a ship, missile, or
// planet, enforcing spec.md §3's Entities invariant.
func (e *Entities) NameInUse(name string) bool {
	_, s := e.Ships[name]
	_, m := e.Missiles[name]
	_, p := e.Planets[name]
	return s || m || p
}

func (e *Entities) AddShip(s *Ship) error {
	if e.NameInUse(s.Name) {
		return NewError(Conflict, "entity named %q already exists", s.Name)
	}
	e.Ships[s.Name] = s
	e.shipOrder = append(e.shipOrder, s.Name)
	return nil
}

func (e *Entities) AddPlanet(p *Planet) error {
	if e.NameInUse(p.Name) {
		return NewError(Conflict, "entity named %q already exists", p.Name)
	}
	e.Planets[p.Name] = p
	e.planetOrder = append(e.planetOrder, p.Name)
	return nil
}

func (e *Entities) addMissile(m *Missile) {
	e.Missiles[m.Name] = m
	e.missileOrder = append(e.missileOrder, m.Name)
}

// Remove deletes the named ship, missile, or planet. Removing a name that
// exists in none of the three maps is a Conflict per spec.md §7.
func (e *Entities) Remove(name string) error {
	if _, ok := e.Ships[name]; ok {
		delete(e.Ships, name)
		e.shipOrder = removeName(e.shipOrder, name)
		return nil
	}
	if _, ok := e.Missiles[name]; ok {
		delete(e.Missiles, name)
		e.missileOrder = removeName(e.missileOrder, name)
		return nil
	}
	if _, ok := e.Planets[name]; ok {
		delete(e.Planets, name)
		e.planetOrder = removeName(e.planetOrder, name)
		return nil
	}
	return NewError(Conflict, "unable to find entity named %q to remove", name)
}

func removeName(order []string, name string) []string {
	for i, n := range order {
		if n == name {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func (e *Entities) ShipNames() []string   { return append([]string(nil), e.shipOrder...) }
func (e *Entities) PlanetNames() []string { return append([]string(nil), e.planetOrder...) }

// planetsByDependency returns planet names ordered so primaries always
// precede anything orbiting them.
func (e *Entities) planetsByDependency() []string {
	names := append([]string(nil), e.planetOrder...)
	sort.SliceStable(names, func(i, j int) bool {
		return e.Planets[names[i]].Dependency < e.Planets[names[j]].Dependency
	})
	return names
}

// snapshotShips deep-copies every ship, used to build the round's pre-damage
// snapshot so attackers read stale state while damage writes land on the
// live ships (simultaneous-fire semantics, spec.md §4.4 step 2).
func (e *Entities) snapshotShips() map[string]*Ship {
	snap := make(map[string]*Ship, len(e.Ships))
	for name, s := range e.Ships {
		cp := *s
		cp.ActiveWeapons = append([]bool(nil), s.ActiveWeapons...)
		cp.SensorLocks = make(map[string]Sensors, len(s.SensorLocks))
		for k, v := range s.SensorLocks {
			cp.SensorLocks[k] = v
		}
		snap[name] = &cp
	}
	return snap
}

// Update runs one full round: partitions queued actions, snapshots ships,
// applies sensor actions to the live ships, then fire actions from the
// snapshot attackers against the live defenders, advances planets then
// missiles then ships, applies jump actions, and resets round-scoped pilot
// actions and comms-jamming penalties. Implements spec.md §4.4 exactly.
func (e *Entities) Update(rng *rand.Rand, log *zap.SugaredLogger) []Effect {
	var effects []Effect

	type fireOrder struct {
		ship   string
		action Action
	}
	var fireActions, sensorActions, jumpActions []fireOrder

	for ship, actions := range e.Actions {
		if _, ok := e.Ships[ship]; !ok {
			if log != nil {
				log.Warnw("dropping queued actions for ship that no longer exists", "ship", ship)
			}
			continue
		}
		for _, a := range actions {
			switch a.Tag {
			case TagFireAction:
				fireActions = append(fireActions, fireOrder{ship, a})
			case TagSensorLock, TagBreakSensorLock, TagJamMissiles, TagJamComms:
				sensorActions = append(sensorActions, fireOrder{ship, a})
			case TagJump:
				jumpActions = append(jumpActions, fireOrder{ship, a})
			}
		}
	}

	snapshot := e.snapshotShips()

	var jammed []*Ship
	for _, so := range sensorActions {
		attacker := e.Ships[so.ship]
		switch so.action.Tag {
		case TagSensorLock:
			ResolveSensorLock(rng, attacker, so.action.Target)
		case TagBreakSensorLock:
			ResolveBreakSensorLock(rng, attacker, so.action.Target)
		case TagJamMissiles:
			e.jamMissilesTargeting(rng, so.ship)
		case TagJamComms:
			if target, ok := e.Ships[so.action.Target]; ok {
				target.AttackDM--
				jammed = append(jammed, target)
			}
		}
	}

	for _, fo := range fireActions {
		attackerSnap, ok := snapshot[fo.ship]
		if !ok {
			continue
		}
		weapon := attackerSnap.Design.Weapons[fo.action.WeaponID]
		if weapon.Kind == WeaponMissile {
			target, ok := e.Ships[fo.action.Target]
			if !ok {
				continue
			}
			name := newMissileName(e)
			m := NewMissile(name, fo.ship, fo.action.Target, attackerSnap.Position, attackerSnap.Velocity, target.Position, target.Velocity)
			e.addMissile(m)
			continue
		}
		defender, ok := e.Ships[fo.action.Target]
		if !ok {
			continue
		}
		effects = append(effects, ResolveFireAction(rng, attackerSnap, defender, fo.action)...)
	}

	for _, name := range e.planetsByDependency() {
		p := e.Planets[name]
		if p.Primary == "" {
			continue
		}
		primary, ok := e.Planets[p.Primary]
		if !ok {
			continue
		}
		p.Update(primary.Position, primary.Velocity, primary.Mass, true)
	}

	for _, name := range append([]string(nil), e.missileOrder...) {
		m := e.Missiles[name]
		action := m.Update(log, func(target string) (Vec3, Vec3, bool) {
			s, ok := e.Ships[target]
			if !ok {
				return Vec3{}, Vec3{}, false
			}
			return s.Position, s.Velocity, true
		})
		if action == nil {
			continue
		}
		switch action.Kind {
		case ActionShipImpact:
			if defender, ok := e.Ships[action.Target]; ok {
				effects = append(effects, ShipImpactEffect(action.Target, action.Position))
				effects = append(effects, ResolveMissileImpact(rng, defender)...)
			}
			delete(e.Missiles, name)
			e.missileOrder = removeName(e.missileOrder, name)
		case ActionExhaustedMissile:
			effects = append(effects, ExhaustedMissileEffect(name, action.Position))
			delete(e.Missiles, name)
			e.missileOrder = removeName(e.missileOrder, name)
		}
	}

	for _, name := range append([]string(nil), e.shipOrder...) {
		s := e.Ships[name]
		action := s.Update(log)
		if action != nil && action.Kind == ActionShipDestroyed {
			effects = append(effects, ShipDestroyedEffect(action.Position))
			effects = append(effects, MessageEffect(name+" destroyed."))
			delete(e.Ships, name)
			e.shipOrder = removeName(e.shipOrder, name)
		}
	}

	for _, jo := range jumpActions {
		ship, ok := e.Ships[jo.ship]
		if !ok {
			continue
		}
		if ResolveJump(rng, ship) {
			effects = append(effects, MessageEffect(ship.Name+" has jumped out."))
			delete(e.Ships, jo.ship)
			e.shipOrder = removeName(e.shipOrder, jo.ship)
		} else {
			effects = append(effects, MessageEffect(ship.Name+" failed to jump."))
		}
	}

	for _, s := range e.Ships {
		s.DodgeThrust = false
		s.AssistGunners = false
	}
	for _, s := range jammed {
		s.AttackDM++
	}
	e.Actions = make(map[string][]Action)

	return effects
}

func (e *Entities) jamMissilesTargeting(rng *rand.Rand, ship string) {
	for name, m := range e.Missiles {
		if m.Target != ship {
			continue
		}
		sum, _ := roll2d6(rng)
		if sum >= 8 {
			delete(e.Missiles, name)
			e.missileOrder = removeName(e.missileOrder, name)
		}
	}
}

func newMissileName(e *Entities) string {
	for {
		e.missileCounter++
		name := "missile-" + strconv.Itoa(e.missileCounter)
		if !e.NameInUse(name) {
			return name
		}
	}
}

// ResolveMissileImpact applies missile damage to defender on impact,
// bypassing the to-hit roll (the missile subsystem already resolved
// impact by distance) but otherwise reusing the same damage-table
// machinery as a direct-fire weapon, per spec.md §4.3 step 5.
func ResolveMissileImpact(rng *rand.Rand, defender *Ship) []Effect {
	raw := 0
	for i := 0; i < damageWeaponDice[WeaponMissile]; i++ {
		raw += rng.Intn(6) + 1
	}
	raw -= int(defender.CurrentArmor)
	if raw < 0 {
		raw = 0
	}

	var effects []Effect
	comp := HitComposition(raw)
	armorPenetrated := defender.CurrentArmor == 0
	applyHits := func(count, multiplier int) {
		for i := 0; i < count; i++ {
			system := rollDamageLocation(rng, armorPenetrated)
			if eff := applyDamage(defender, system, multiplier); eff != nil {
				effects = append(effects, *eff)
			}
		}
	}
	applyHits(comp.SingleHits, 1)
	applyHits(comp.DoubleHits, 2)
	applyHits(comp.TripleHits, 3)
	effects = append(effects, DamageEffect(SysHull, raw, "missile impact on "+defender.Name+" for "+strconv.Itoa(raw)+" damage."))
	return effects
}
