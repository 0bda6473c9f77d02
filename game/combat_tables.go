package game

// CounterMeasures is a defensive fit grade consulted by countermeasuresMod.
type CounterMeasures int

const (
	CounterMeasuresNone CounterMeasures = iota
	CounterMeasuresStandard
	CounterMeasuresMilitary
)

// hitWeaponMod is indexed by WeaponType.
var hitWeaponMod = [...]int{WeaponBeam: 4, WeaponPulse: 2, WeaponMissile: 0, WeaponSand: 0, WeaponParticle: 0}

// damageWeaponDice is the number of d6 rolled for raw damage, indexed by
// WeaponType.
var damageWeaponDice = [...]int{WeaponBeam: 1, WeaponPulse: 2, WeaponMissile: 4, WeaponSand: 0, WeaponParticle: 4}

// rangeMod is indexed by RangeBand.
var rangeMod = [...]int{RangeShort: 1, RangeMedium: 0, RangeLong: -2, RangeVeryLong: -4, RangeDistant: -6}

// sensorQualityMod is indexed by Sensors.
var sensorQualityMod = [...]int{SensorsBasic: -4, SensorsCivilian: -2, SensorsMilitary: 0, SensorsImproved: 1, SensorsAdvanced: 2}

// stealthMod is indexed by Stealth; a ship with no stealth fit gets 0.
var stealthMod = [...]int{StealthBasic: -2, StealthImproved: -2, StealthEnhanced: -4, StealthAdvanced: -6}

func StealthMod(s *Stealth) int {
	if s == nil {
		return 0
	}
	return stealthMod[*s]
}

func CountermeasuresMod(c *CounterMeasures) int {
	if c == nil {
		return 0
	}
	switch *c {
	case CounterMeasuresStandard:
		return 2
	case CounterMeasuresMilitary:
		return 4
	}
	return 0
}

// externalDamageTable and internalDamageTable partition a single raw-damage
// hit into the ship system it strikes, indexed by a 2d6-shaped roll
// (2..12, offset to 0..10 — see rollDamageLocation). original_source's
// damage_tables.rs named these against a since-superseded ShipSystem
// enumeration (Turret/Structure/Hold); this table is normalized onto the
// 11-system enumeration ship.rs actually tracks (Weapon/Hull/Cargo), see
// DESIGN.md.
var externalDamageTable = [13]ShipSystem{
	SysHull, SysHull, SysHull, SysSensors, SysManeuver, SysWeapon, SysHull,
	SysArmor, SysHull, SysFuel, SysManeuver, SysSensors, SysHull,
}

var internalDamageTable = [13]ShipSystem{
	SysHull, SysHull, SysHull, SysPowerplant, SysJump, SysWeapon, SysHull,
	SysHull, SysHull, SysCargo, SysJump, SysPowerplant, SysBridge,
}

// HdEntry is one band of the hit-damage table: raw damage of at least
// TopRange, and below the next band's TopRange, decomposes into this many
// single/double/triple location hits.
type HdEntry struct {
	TopRange                           int
	SingleHits, DoubleHits, TripleHits int
}

var hitDamageTable = []HdEntry{
	{TopRange: 0, SingleHits: 0, DoubleHits: 0, TripleHits: 0},
	{TopRange: 4, SingleHits: 1, DoubleHits: 0, TripleHits: 0},
	{TopRange: 8, SingleHits: 2, DoubleHits: 0, TripleHits: 0},
	{TopRange: 12, SingleHits: 0, DoubleHits: 1, TripleHits: 0},
	{TopRange: 16, SingleHits: 3, DoubleHits: 0, TripleHits: 0},
	{TopRange: 20, SingleHits: 2, DoubleHits: 1, TripleHits: 0},
	{TopRange: 24, SingleHits: 0, DoubleHits: 2, TripleHits: 0},
	{TopRange: 28, SingleHits: 0, DoubleHits: 0, TripleHits: 1},
	{TopRange: 32, SingleHits: 1, DoubleHits: 0, TripleHits: 1},
	{TopRange: 36, SingleHits: 0, DoubleHits: 1, TripleHits: 1},
	{TopRange: 40, SingleHits: 1, DoubleHits: 1, TripleHits: 1},
	{TopRange: 44, SingleHits: 0, DoubleHits: 0, TripleHits: 2},
}

// HitComposition looks up the highest band whose TopRange does not exceed
// rawDamage and returns how many single/double/triple-strength location
// hits that much damage produces.
func HitComposition(rawDamage int) HdEntry {
	best := hitDamageTable[0]
	for _, e := range hitDamageTable {
		if rawDamage >= e.TopRange {
			best = e
		}
	}
	return best
}
