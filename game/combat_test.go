package game

import (
	"math/rand"
	"testing"
)

// TestRoll2d6Invariants checks the shape of roll2d6's contract across many
// seeds rather than any single outcome: the sum is always in [2,12], and
// natural12 is true exactly when both dice came up 6 (the only way to reach
// a sum of 12).
func TestRoll2d6Invariants(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		sum, natural12 := roll2d6(rng)
		if sum < 2 || sum > 12 {
			t.Fatalf("seed %d: sum = %d, want in [2,12]", seed, sum)
		}
		if natural12 != (sum == 12) {
			t.Fatalf("seed %d: natural12 = %v for sum %d", seed, natural12, sum)
		}
	}
}

func TestSatSubU32(t *testing.T) {
	tests := []struct {
		name   string
		start  uint32
		amount int
		want   uint32
	}{
		{"partial", 10, 3, 7},
		{"exact", 10, 10, 0},
		{"overflow clamps to zero", 10, 15, 0},
		{"negative amount is a no-op", 10, -5, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.start
			satSubU32(&v, tt.amount)
			if v != tt.want {
				t.Errorf("satSubU32(%d, %d) = %d, want %d", tt.start, tt.amount, v, tt.want)
			}
		})
	}
}

func TestSatSubU8(t *testing.T) {
	v := uint8(2)
	satSubU8(&v, 5)
	if v != 0 {
		t.Errorf("satSubU8 overflow = %d, want 0", v)
	}
	v = uint8(6)
	satSubU8(&v, -1)
	if v != 6 {
		t.Errorf("satSubU8 with negative amount = %d, want unchanged 6", v)
	}
}

func TestApplyDamageHullReturnsEffectWhileAlive(t *testing.T) {
	s := NewShip("ship1", Vec3{}, Vec3{}, FlightPlan{}, testDesign())

	eff := applyDamage(s, SysHull, 5)
	if eff == nil {
		t.Fatal("applyDamage on a hull with residual strength should return an effect")
	}
	if eff.System != SysHull || eff.Amount != 5 {
		t.Errorf("effect = %+v, want System=SysHull Amount=5", eff)
	}
	if s.CurrentHull != testDesign().Hull-5 {
		t.Errorf("CurrentHull = %d, want %d", s.CurrentHull, testDesign().Hull-5)
	}
	if s.CritLevel[SysHull] != 1 {
		t.Errorf("CritLevel[SysHull] = %d, want 1", s.CritLevel[SysHull])
	}

	s.CurrentHull = 0
	if eff := applyDamage(s, SysHull, 1); eff != nil {
		t.Errorf("applyDamage on an already-destroyed hull returned %+v, want nil", eff)
	}
}

func TestApplyDamageWeaponDisablesFirstActiveMount(t *testing.T) {
	design := testDesign()
	design.Weapons = []Weapon{{Kind: WeaponBeam}, {Kind: WeaponPulse}}
	s := NewShip("ship1", Vec3{}, Vec3{}, FlightPlan{}, design)

	eff := applyDamage(s, SysWeapon, 1)
	if eff == nil {
		t.Fatal("applyDamage(SysWeapon) with an active mount should return an effect")
	}
	if s.ActiveWeapons[0] {
		t.Error("first weapon mount should now be disabled")
	}
	if !s.ActiveWeapons[1] {
		t.Error("second weapon mount should be untouched")
	}

	s.ActiveWeapons[1] = false
	if eff := applyDamage(s, SysWeapon, 1); eff != nil {
		t.Errorf("applyDamage(SysWeapon) with no active mounts left returned %+v, want nil", eff)
	}
}

func TestApplyDamageCargoAndBridgeAreCritLevelOnly(t *testing.T) {
	s := NewShip("ship1", Vec3{}, Vec3{}, FlightPlan{}, testDesign())

	if eff := applyDamage(s, SysCargo, 1); eff == nil {
		t.Error("first SysCargo hit should return an effect")
	}
	if eff := applyDamage(s, SysCargo, 1); eff != nil {
		t.Errorf("second SysCargo hit returned %+v, want nil", eff)
	}
	if s.CritLevel[SysCargo] != 1 {
		t.Errorf("CritLevel[SysCargo] = %d, want 1", s.CritLevel[SysCargo])
	}
}

func TestCritMessage(t *testing.T) {
	tests := []struct {
		system ShipSystem
		want   string
	}{
		{SysManeuver, "ship1's maneuver drive is disabled."},
		{SysWeapon, "ship1 has lost a weapon mount."},
		{SysFuel, "ship1 is venting fuel."},
		{SysJump, "ship1's jump drive is disabled."},
		{SysSensors, "ship1's sensors are degraded."},
		{SysBridge, "ship1's bridge has taken a critical hit."},
		{SysHull, "ship1's Hull is critically damaged."},
	}
	for _, tt := range tests {
		if got := critMessage("ship1", tt.system); got != tt.want {
			t.Errorf("critMessage(%v) = %q, want %q", tt.system, got, tt.want)
		}
	}
}

func TestHitComposition(t *testing.T) {
	tests := []struct {
		raw  int
		want HdEntry
	}{
		{0, HdEntry{TopRange: 0}},
		{3, HdEntry{TopRange: 0}},
		{4, HdEntry{TopRange: 4, SingleHits: 1}},
		{11, HdEntry{TopRange: 8, SingleHits: 2}},
		{12, HdEntry{TopRange: 12, DoubleHits: 1}},
		{44, HdEntry{TopRange: 44, TripleHits: 2}},
		{1000, HdEntry{TopRange: 44, TripleHits: 2}},
	}
	for _, tt := range tests {
		if got := HitComposition(tt.raw); got != tt.want {
			t.Errorf("HitComposition(%d) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func tableContains(table [13]ShipSystem, system ShipSystem) bool {
	for _, s := range table {
		if s == system {
			return true
		}
	}
	return false
}

func TestRollDamageLocationPicksTheRightTable(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		if got := rollDamageLocation(rng, false); !tableContains(externalDamageTable, got) {
			t.Fatalf("seed %d: external roll returned %v, not in externalDamageTable", seed, got)
		}
	}
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		if got := rollDamageLocation(rng, true); !tableContains(internalDamageTable, got) {
			t.Fatalf("seed %d: internal roll returned %v, not in internalDamageTable", seed, got)
		}
	}
}

func TestWeaponDamageMessage(t *testing.T) {
	if got := weaponDamageMessage("alice", "bob", 0); got != "alice's attack on bob was absorbed by armor." {
		t.Errorf("weaponDamageMessage(0) = %q", got)
	}
	if got := weaponDamageMessage("alice", "bob", 7); got != "alice hit bob for 7 damage." {
		t.Errorf("weaponDamageMessage(7) = %q", got)
	}
}

// fireActionFixture builds an attacker/defender pair at short range with a
// single beam mount, letting callers override fields to steer the to-hit
// modifier to a deterministic extreme.
func fireActionFixture() (*Ship, *Ship, Action) {
	design := testDesign()
	design.Weapons = []Weapon{{Kind: WeaponBeam, Mount: WeaponMount{Kind: "barbette"}}}
	attacker := NewShip("attacker", Vec3{}, Vec3{}, FlightPlan{}, design)
	defender := NewShip("defender", Vec3{X: 100_000}, Vec3{}, FlightPlan{}, design)
	action := Action{Tag: TagFireAction, WeaponID: 0, Target: "defender"}
	return attacker, defender, action
}

// TestResolveFireActionGuaranteedHit drives the to-hit modifier high enough
// (sensors, gunnery, computer) that sum+mod >= 8 regardless of the roll, so
// the outcome is deterministic across every seed.
func TestResolveFireActionGuaranteedHit(t *testing.T) {
	attacker, defender, action := fireActionFixture()
	attacker.CurrentSensors = SensorsAdvanced
	attacker.Crew.Gunnery = []uint8{20}
	attacker.Design.Computer = 20
	defender.CurrentArmor = 1000 // absorbs any possible beam roll (max 1d6=6)

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		effects := ResolveFireAction(rng, attacker, defender, action)
		if len(effects) != 2 {
			t.Fatalf("seed %d: effects = %+v, want exactly [ShipImpact, Damage(absorbed)]", seed, effects)
		}
		if effects[0].Tag != EffectShipImpact || effects[0].Target != "defender" {
			t.Errorf("seed %d: effects[0] = %+v, want a ShipImpact on defender", seed, effects[0])
		}
		if effects[1].Tag != EffectDamage || effects[1].Amount != 0 {
			t.Errorf("seed %d: effects[1] = %+v, want a zero-amount Damage effect", seed, effects[1])
		}
	}
}

// TestResolveFireActionUnarmoredHitDamagesSomething forces a hit with no
// armor to absorb it; the exact location and raw amount vary by roll but a
// hit should always produce a hull Damage effect.
func TestResolveFireActionUnarmoredHitDamagesSomething(t *testing.T) {
	attacker, defender, action := fireActionFixture()
	attacker.CurrentSensors = SensorsAdvanced
	attacker.Crew.Gunnery = []uint8{20}
	attacker.Design.Computer = 20
	defender.CurrentArmor = 0

	rng := rand.New(rand.NewSource(1))
	effects := ResolveFireAction(rng, attacker, defender, action)
	if len(effects) < 2 {
		t.Fatalf("effects = %+v, want at least [ShipImpact, Damage]", effects)
	}
	last := effects[len(effects)-1]
	if last.Tag != EffectDamage || last.System != SysHull {
		t.Errorf("final effect = %+v, want a SysHull Damage effect", last)
	}
}

func TestResolveSensorLockGuaranteedSuccess(t *testing.T) {
	design := testDesign()
	attacker := NewShip("attacker", Vec3{}, Vec3{}, FlightPlan{}, design)
	attacker.CurrentSensors = SensorsAdvanced
	attacker.Crew.Sensors = 255

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		attacker.SensorLocks = make(map[string]Sensors)
		if !ResolveSensorLock(rng, attacker, "target") {
			t.Fatalf("seed %d: ResolveSensorLock should always succeed with an overwhelming modifier", seed)
		}
		if quality, ok := attacker.SensorLocks["target"]; !ok || quality != SensorsAdvanced {
			t.Errorf("seed %d: successful lock recorded as %v, %v, want SensorsAdvanced, true", seed, quality, ok)
		}
	}
}

func TestResolveBreakSensorLockGuaranteedSuccess(t *testing.T) {
	design := testDesign()
	attacker := NewShip("attacker", Vec3{}, Vec3{}, FlightPlan{}, design)
	attacker.Crew.Sensors = 255
	attacker.SensorLocks["target"] = SensorsAdvanced

	rng := rand.New(rand.NewSource(0))
	if !ResolveBreakSensorLock(rng, attacker, "target") {
		t.Fatal("ResolveBreakSensorLock should always succeed with an overwhelming modifier")
	}
	if _, ok := attacker.SensorLocks["target"]; ok {
		t.Error("lock should have been removed")
	}
}

// TestEffectiveSensorQualityCapsAtLockedGrade exercises §4.2 step 3's
// min(A.sensors, A.sensor_lock_on(D).quality_or_own) term: a held lock
// caps the modifier at the grade recorded when the lock was acquired,
// even after CurrentSensors improves; no lock falls back to the
// attacker's own current sensors unchanged.
func TestEffectiveSensorQualityCapsAtLockedGrade(t *testing.T) {
	design := testDesign()
	attacker := NewShip("attacker", Vec3{}, Vec3{}, FlightPlan{}, design)

	attacker.CurrentSensors = SensorsAdvanced
	if got := effectiveSensorQuality(attacker, "unlocked-target"); got != SensorsAdvanced {
		t.Errorf("no lock: effectiveSensorQuality() = %v, want own CurrentSensors %v", got, SensorsAdvanced)
	}

	attacker.SensorLocks["target"] = SensorsCivilian
	if got := effectiveSensorQuality(attacker, "target"); got != SensorsCivilian {
		t.Errorf("stale lock: effectiveSensorQuality() = %v, want capped at locked grade %v", got, SensorsCivilian)
	}

	attacker.SensorLocks["target"] = SensorsMilitary
	attacker.CurrentSensors = SensorsBasic
	if got := effectiveSensorQuality(attacker, "target"); got != SensorsBasic {
		t.Errorf("damaged sensors: effectiveSensorQuality() = %v, want capped at current %v", got, SensorsBasic)
	}
}

// TestFireActionModifierReflectsSensorLock proves a held lock actually
// reaches ResolveFireAction's to-hit modifier rather than being a dead
// field: capping attacker's effective sensor quality at a stale lock's
// grade must move the modifier by exactly the sensorQualityMod delta.
func TestFireActionModifierReflectsSensorLock(t *testing.T) {
	attacker, defender, action := fireActionFixture()
	attacker.CurrentSensors = SensorsAdvanced

	withoutLock := fireActionModifier(attacker, defender, action)

	attacker.SensorLocks[defender.Name] = SensorsBasic
	withStaleLock := fireActionModifier(attacker, defender, action)

	wantDelta := sensorQualityMod[SensorsBasic] - sensorQualityMod[SensorsAdvanced]
	if gotDelta := withStaleLock - withoutLock; gotDelta != wantDelta {
		t.Errorf("stale lock changed modifier by %d, want %d (from %d to %d)", gotDelta, wantDelta, withoutLock, withStaleLock)
	}
	if withStaleLock == withoutLock {
		t.Error("SensorLocks had no effect on fireActionModifier")
	}
}

func TestResolveJumpRequiresCanJump(t *testing.T) {
	design := testDesign()
	s := NewShip("ship1", Vec3{}, Vec3{}, FlightPlan{}, design)
	s.CurrentJump = 0

	rng := rand.New(rand.NewSource(0))
	if ResolveJump(rng, s) {
		t.Error("ResolveJump should fail immediately for a ship that CanJump()==false")
	}
}

func TestResolveJumpGuaranteedSuccess(t *testing.T) {
	design := testDesign()
	s := NewShip("ship1", Vec3{}, Vec3{}, FlightPlan{}, design)
	s.Crew.EngineeringJump = 255
	s.Design.Computer = 255

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		if !ResolveJump(rng, s) {
			t.Fatalf("seed %d: ResolveJump should always succeed with an overwhelming modifier", seed)
		}
	}
}

// TestResolveMissileImpactAbsorbedByArmor forces raw damage to zero (armor
// exceeds the maximum possible 4d6 missile roll), making the outcome
// deterministic: no location hits, a single zero-amount hull Damage effect.
func TestResolveMissileImpactAbsorbedByArmor(t *testing.T) {
	defender := NewShip("defender", Vec3{}, Vec3{}, FlightPlan{}, testDesign())
	defender.CurrentArmor = 1000

	rng := rand.New(rand.NewSource(0))
	effects := ResolveMissileImpact(rng, defender)
	if len(effects) != 1 {
		t.Fatalf("effects = %+v, want exactly one absorbed-damage effect", effects)
	}
	if effects[0].Tag != EffectDamage || effects[0].Amount != 0 || effects[0].System != SysHull {
		t.Errorf("effects[0] = %+v, want a zero-amount SysHull Damage effect", effects[0])
	}
}
