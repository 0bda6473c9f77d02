package game

// Simulation constants. Names and values are fixed by the wire protocol and
// by the Testable Properties end-to-end scenarios; do not change them
// without updating every caller.
const (
	// G is one standard gravity, in m/s^2. Accelerations are expressed in
	// g-units on the wire and in flight plans but converted to m/s^2 before
	// integration.
	G = 9.81

	// DeltaTime is the fixed simulation quantum, in seconds. One Update
	// advances every entity by this much simulated time.
	DeltaTime = 1000

	// DefaultAccelDuration is the phase duration SingleAccel gives a
	// one-phase plan.
	DefaultAccelDuration = 50000

	// ImpactDistance is the radius, in meters, within which a missile is
	// considered to have struck its target.
	ImpactDistance = 25000

	// MaxMissileAcceleration is the thrust cap used by missile guidance,
	// independent of any ship's own maneuver rating.
	MaxMissileAcceleration = 10 * G

	// DefaultBurn is the number of DELTA_TIME quanta of propellant a newly
	// launched missile carries.
	DefaultBurn = 10
)

// RangeBand classifies the distance between attacker and defender.
type RangeBand int

const (
	RangeShort RangeBand = iota
	RangeMedium
	RangeLong
	RangeVeryLong
	RangeDistant
)

// rangeBandThresholds holds the upper bound, in meters, of each band below
// RangeDistant; a distance beyond the last threshold is RangeDistant.
var rangeBandThresholds = [...]float64{1_250_000, 10_000_000, 25_000_000, 50_000_000}

// ClassifyRange maps a distance in meters to its range band.
func ClassifyRange(meters float64) RangeBand {
	for i, threshold := range rangeBandThresholds {
		if meters <= threshold {
			return RangeBand(i)
		}
	}
	return RangeDistant
}
