package game

import (
	"math/rand"
	"strconv"
)

// roll2d6 returns the sum of two six-sided dice and whether both came up 6
// (a "natural 12", which auto-crits per spec.md §4.2 step 5).
func roll2d6(rng *rand.Rand) (sum int, natural12 bool) {
	d1 := rng.Intn(6) + 1
	d2 := rng.Intn(6) + 1
	return d1 + d2, d1 == 6 && d2 == 6
}

func satSubU32(v *uint32, amount int) {
	if amount < 0 {
		return
	}
	if uint32(amount) >= *v {
		*v = 0
		return
	}
	*v -= uint32(amount)
}

func satSubU8(v *uint8, amount int) {
	if amount < 0 {
		return
	}
	if uint8(amount) >= *v {
		*v = 0
		return
	}
	*v -= uint8(amount)
}

// applyDamage applies amount points of saturating damage to the named
// system on defender and, if the system's value reaches 0 and wasn't
// already, increments its crit_level and returns the crit's effect.
func applyDamage(defender *Ship, system ShipSystem, amount int) *Effect {
	var wasAlive bool
	switch system {
	case SysHull:
		wasAlive = defender.CurrentHull > 0
		satSubU32(&defender.CurrentHull, amount)
	case SysArmor:
		wasAlive = defender.CurrentArmor > 0
		satSubU32(&defender.CurrentArmor, amount)
	case SysPowerplant:
		wasAlive = defender.CurrentPower > 0
		satSubU32(&defender.CurrentPower, amount)
	case SysFuel:
		wasAlive = defender.CurrentFuel > 0
		satSubU32(&defender.CurrentFuel, amount)
	case SysCrew:
		wasAlive = defender.CurrentCrew > 0
		satSubU32(&defender.CurrentCrew, amount)
	case SysManeuver:
		wasAlive = defender.CurrentManeuver > 0
		satSubU8(&defender.CurrentManeuver, amount)
	case SysJump:
		wasAlive = defender.CurrentJump > 0
		satSubU8(&defender.CurrentJump, amount)
	case SysSensors:
		wasAlive = defender.CurrentSensors > SensorsBasic
		if amount > 0 && defender.CurrentSensors > SensorsBasic {
			defender.CurrentSensors--
		}
	case SysWeapon:
		for i, active := range defender.ActiveWeapons {
			if active {
				defender.ActiveWeapons[i] = false
				wasAlive = true
				break
			}
		}
	case SysCargo, SysBridge:
		// Tracked only via crit_level; no numeric pool to deplete.
		wasAlive = defender.CritLevel[system] == 0
	}

	newlyCrit := wasAlive
	if !newlyCrit {
		return nil
	}
	defender.CritLevel[system]++
	return &Effect{
		Tag:     EffectDamage,
		System:  system,
		Amount:  amount,
		Content: critMessage(defender.Name, system),
	}
}

func critMessage(ship string, system ShipSystem) string {
	switch system {
	case SysManeuver:
		return ship + "'s maneuver drive is disabled."
	case SysWeapon:
		return ship + " has lost a weapon mount."
	case SysFuel:
		return ship + " is venting fuel."
	case SysJump:
		return ship + "'s jump drive is disabled."
	case SysSensors:
		return ship + "'s sensors are degraded."
	case SysBridge:
		return ship + "'s bridge has taken a critical hit."
	default:
		return ship + "'s " + system.String() + " is critically damaged."
	}
}

// rollDamageLocation picks a row of the external or internal table using a
// 2d6-shaped roll (values 2..12, mapped to table indices 0..10, clamped).
func rollDamageLocation(rng *rand.Rand, armorPenetrated bool) ShipSystem {
	sum, _ := roll2d6(rng)
	idx := sum - 2
	if idx < 0 {
		idx = 0
	}
	if idx > 12 {
		idx = 12
	}
	if armorPenetrated {
		return internalDamageTable[idx]
	}
	return externalDamageTable[idx]
}

// fireActionModifier computes the combined to-hit modifier for steps 2-4 of
// spec.md §4.2: weapon and range terms, the target-side terms (sensor
// quality, stealth, countermeasures via dodge, attack_dm), and the
// attacker-side terms (gunner skill, assist, computer bonus). Split out of
// ResolveFireAction so the sensor-lock contribution can be asserted without
// depending on a roll outcome.
func fireActionModifier(attacker, defender *Ship, action Action) int {
	weapon := attacker.Design.Weapons[action.WeaponID]

	band := ClassifyRange(Distance(attacker.Position, defender.Position))
	mod := hitWeaponMod[weapon.Kind] + rangeMod[band]
	mod += sensorQualityMod[effectiveSensorQuality(attacker, defender.Name)]
	mod += StealthMod(defender.Design.Stealth)
	if defender.DodgeThrust {
		mod -= 2
	}
	mod += defender.AttackDM
	mod += int(attacker.Crew.GunnerySkill(action.WeaponID))
	if attacker.AssistGunners {
		mod++
	}
	mod += int(attacker.Design.Computer)
	return mod
}

// ResolveFireAction applies a single fire action from attacker (read from
// the round's pre-damage snapshot) against defender (the live ship),
// implementing spec.md §4.2 steps 1-10. Missile fire actions are handled
// by the caller (they append a launch intent instead of attacking
// immediately, per spec.md §4.2's weapon-specific notes) and never reach
// here.
func ResolveFireAction(rng *rand.Rand, attacker, defender *Ship, action Action) []Effect {
	weapon := attacker.Design.Weapons[action.WeaponID]

	mod := fireActionModifier(attacker, defender, action)

	sum, natural12 := roll2d6(rng)
	hit := natural12 || sum+mod >= 8
	if !hit {
		return nil
	}

	var effects []Effect
	effects = append(effects, ShipImpactEffect(defender.Name, defender.Position))

	raw := 0
	for i := 0; i < damageWeaponDice[weapon.Kind]*weapon.Mount.Multiplier(); i++ {
		raw += rng.Intn(6) + 1
	}
	raw -= int(defender.CurrentArmor)
	if raw < 0 {
		raw = 0
	}
	if natural12 {
		raw *= 2
	}

	comp := HitComposition(raw)
	armorPenetrated := defender.CurrentArmor == 0

	applyHits := func(count, multiplier int) {
		for i := 0; i < count; i++ {
			system := rollDamageLocation(rng, armorPenetrated)
			if action.CalledShotSystem != nil {
				// Called shot: a 2d6 roll of 9 or more (10 in 36)
				// redirects the roll to the requested system once the
				// hit's damage clears a minimal threshold.
				if redirect, _ := roll2d6(rng); redirect >= 9 && raw >= 4 {
					system = *action.CalledShotSystem
				}
			}
			if eff := applyDamage(defender, system, multiplier); eff != nil {
				effects = append(effects, *eff)
			}
		}
	}
	applyHits(comp.SingleHits, 1)
	applyHits(comp.DoubleHits, 2)
	applyHits(comp.TripleHits, 3)

	effects = append(effects, DamageEffect(SysHull, raw, weaponDamageMessage(attacker.Name, defender.Name, raw)))

	return effects
}

func weaponDamageMessage(attacker, defender string, amount int) string {
	if amount == 0 {
		return attacker + "'s attack on " + defender + " was absorbed by armor."
	}
	return attacker + " hit " + defender + " for " + strconv.Itoa(amount) + " damage."
}

// effectiveSensorQuality implements §4.2 step 3's
// sensor_quality_mod[min(A.sensors, A.sensor_lock_on(D).quality_or_own)]
// term: with no lock on target, quality_or_own is the attacker's own
// current sensors, so the min is a no-op. A held lock instead caps the
// modifier at the sensor grade the attacker had when the lock was
// acquired, so sensors damaged (or merely not re-locked after an
// upgrade) since acquisition still bound what the lock is worth.
func effectiveSensorQuality(attacker *Ship, target string) Sensors {
	quality := attacker.CurrentSensors
	if locked, ok := attacker.SensorLocks[target]; ok && locked < quality {
		quality = locked
	}
	return quality
}

// ResolveSensorLock implements spec.md §4.2's sensor actions: a 2d6 +
// sensor_mod + operator skill roll at or above 8 acquires a lock. The
// lock records the attacker's current sensor quality; see
// effectiveSensorQuality.
func ResolveSensorLock(rng *rand.Rand, attacker *Ship, target string) bool {
	sum, _ := roll2d6(rng)
	mod := sensorQualityMod[attacker.CurrentSensors] + int(attacker.Crew.Sensors)
	if sum+mod >= 8 {
		attacker.SensorLocks[target] = attacker.CurrentSensors
		return true
	}
	return false
}

// ResolveBreakSensorLock is an opposing roll removing an existing lock.
func ResolveBreakSensorLock(rng *rand.Rand, attacker *Ship, target string) bool {
	sum, _ := roll2d6(rng)
	if sum+int(attacker.Crew.Sensors) >= 8 {
		delete(attacker.SensorLocks, target)
		return true
	}
	return false
}

// ResolveJump implements spec.md §9's "open question": a straightforward
// 2d6 + engineering_jump + computer bonus roll at or above 8 succeeds.
func ResolveJump(rng *rand.Rand, ship *Ship) bool {
	if !ship.CanJump() {
		return false
	}
	sum, _ := roll2d6(rng)
	return sum+int(ship.Crew.EngineeringJump)+int(ship.Design.Computer) >= 8
}
