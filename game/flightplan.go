package game

import "encoding/json"

// AccelPair is one phase of a flight plan: a constant acceleration, in
// g-units, sustained for Duration seconds.
type AccelPair struct {
	Accel    Vec3
	Duration uint64
}

// FlightPlan is an ordered pair of acceleration phases. Second is nil when
// the plan has only one phase.
type FlightPlan struct {
	First  AccelPair
	Second *AccelPair
}

func NewFlightPlan(first AccelPair, second *AccelPair) FlightPlan {
	return FlightPlan{First: first, Second: second}
}

// SingleAccel builds a one-phase plan that coasts at accel for the default
// duration, used when a client asks for "just accelerate this way".
func SingleAccel(accel Vec3) FlightPlan {
	return FlightPlan{First: AccelPair{Accel: accel, Duration: DefaultAccelDuration}}
}

func (p FlightPlan) HasSecond() bool {
	return p.Second != nil
}

func (p FlightPlan) Duration() uint64 {
	d := p.First.Duration
	if p.Second != nil {
		d += p.Second.Duration
	}
	return d
}

// Empty reports a plan that amounts to "no thrust": zero first duration or
// zero first acceleration vector.
func (p FlightPlan) Empty() bool {
	return p.First.Duration == 0 || p.First.Accel.IsZero()
}

func renormalize(v Vec3, limit float64) Vec3 {
	return v.Normalize().Scale(limit)
}

// EnsureThrustLimit renormalizes each phase's acceleration to limit when it
// exceeds it, preserving direction. Idempotent: a plan already within limit
// is unchanged.
func (p *FlightPlan) EnsureThrustLimit(limit float64) {
	if p.First.Accel.Magnitude() > limit {
		p.First.Accel = renormalize(p.First.Accel, limit)
	}
	if p.Second != nil && p.Second.Accel.Magnitude() > limit {
		p.Second.Accel = renormalize(p.Second.Accel, limit)
	}
}

// AdvanceTime consumes up to `seconds` from the front of the plan, mutating
// it to hold the remainder, and returns the consumed prefix as its own
// FlightPlan. When the step runs past the end of the first phase, the
// prefix holds the whole first phase plus the consumed part of the second.
func (p *FlightPlan) AdvanceTime(seconds uint64) FlightPlan {
	switch {
	case seconds < p.First.Duration:
		// Entirely within the first phase: shrink it, return the consumed
		// slice as a bare single-phase plan.
		consumed := AccelPair{Accel: p.First.Accel, Duration: seconds}
		p.First.Duration -= seconds
		return FlightPlan{First: consumed}

	case p.Second != nil && seconds < p.First.Duration+p.Second.Duration:
		// Spans into the second phase: the remaining plan becomes "the
		// rest of the second phase"; the consumed prefix is the whole
		// first phase plus however much of the second was used.
		firstTime := p.First.Duration
		consumedFirst := p.First
		second := *p.Second

		p.First = AccelPair{Accel: second.Accel, Duration: second.Duration - (seconds - firstTime)}
		p.Second = nil

		if seconds <= firstTime {
			return FlightPlan{First: consumedFirst}
		}
		consumedSecond := AccelPair{Accel: second.Accel, Duration: seconds - firstTime}
		return FlightPlan{First: consumedFirst, Second: &consumedSecond}

	default:
		// seconds covers (or exceeds) the whole plan: the plan becomes
		// zero-thrust, and the entire prior plan is returned.
		result := *p
		*p = FlightPlan{First: AccelPair{}}
		return result
	}
}

// Phases returns the plan's phases in order, one or two elements.
func (p FlightPlan) Phases() []AccelPair {
	if p.Second != nil {
		return []AccelPair{p.First, *p.Second}
	}
	return []AccelPair{p.First}
}

// accelPairWire is the wire form of one AccelPair: [[x,y,z], duration_seconds],
// matching spec.md §6's SetPlan request grammar.
type accelPairWire [2]json.RawMessage

// MarshalJSON renders a FlightPlan as [AccelPair, AccelPair?] — one element
// for a single-phase plan, two for a two-phase plan.
func (p FlightPlan) MarshalJSON() ([]byte, error) {
	phases := p.Phases()
	if p.Second == nil && p.Empty() {
		phases = nil
	}
	out := make([]json.RawMessage, 0, len(phases))
	for _, ap := range phases {
		accel, err := json.Marshal(ap.Accel)
		if err != nil {
			return nil, err
		}
		duration, err := json.Marshal(ap.Duration)
		if err != nil {
			return nil, err
		}
		pair, err := json.Marshal([2]json.RawMessage{accel, duration})
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return json.Marshal(out)
}

func (p *FlightPlan) UnmarshalJSON(data []byte) error {
	var raw []accelPairWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*p = FlightPlan{}
		return nil
	}
	parse := func(w accelPairWire) (AccelPair, error) {
		var ap AccelPair
		if err := json.Unmarshal(w[0], &ap.Accel); err != nil {
			return ap, err
		}
		if err := json.Unmarshal(w[1], &ap.Duration); err != nil {
			return ap, err
		}
		return ap, nil
	}
	first, err := parse(raw[0])
	if err != nil {
		return err
	}
	p.First = first
	p.Second = nil
	if len(raw) > 1 {
		second, err := parse(raw[1])
		if err != nil {
			return err
		}
		p.Second = &second
	}
	return nil
}
