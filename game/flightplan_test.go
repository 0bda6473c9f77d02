package game

import (
	"encoding/json"
	"testing"
)

func TestFlightPlanEmpty(t *testing.T) {
	cases := []struct {
		name string
		plan FlightPlan
		want bool
	}{
		{"zero value", FlightPlan{}, true},
		{"zero duration", FlightPlan{First: AccelPair{Accel: Vec3{X: 1}, Duration: 0}}, true},
		{"zero accel", FlightPlan{First: AccelPair{Accel: Vec3{}, Duration: 1000}}, true},
		{"thrusting", FlightPlan{First: AccelPair{Accel: Vec3{X: 1}, Duration: 1000}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.plan.Empty(); got != c.want {
				t.Errorf("Empty() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFlightPlanDuration(t *testing.T) {
	single := FlightPlan{First: AccelPair{Duration: 1000}}
	if got := single.Duration(); got != 1000 {
		t.Errorf("single-phase Duration() = %v, want 1000", got)
	}

	two := FlightPlan{
		First:  AccelPair{Duration: 1000},
		Second: &AccelPair{Duration: 2000},
	}
	if got := two.Duration(); got != 3000 {
		t.Errorf("two-phase Duration() = %v, want 3000", got)
	}
	if !two.HasSecond() {
		t.Error("HasSecond() = false, want true")
	}
	if single.HasSecond() {
		t.Error("HasSecond() = true, want false")
	}
}

func TestEnsureThrustLimit(t *testing.T) {
	plan := FlightPlan{
		First:  AccelPair{Accel: Vec3{X: 10}, Duration: 1000},
		Second: &AccelPair{Accel: Vec3{X: 1}, Duration: 1000},
	}
	plan.EnsureThrustLimit(3)

	if !almostEqual(plan.First.Accel.Magnitude(), 3, 1e-9) {
		t.Errorf("First.Accel magnitude = %v, want 3", plan.First.Accel.Magnitude())
	}
	if plan.First.Accel.X <= 0 {
		t.Errorf("First.Accel direction flipped: %+v", plan.First.Accel)
	}
	// Second phase was already within the limit: unchanged.
	if plan.Second.Accel != (Vec3{X: 1}) {
		t.Errorf("Second.Accel = %+v, want unchanged {1 0 0}", plan.Second.Accel)
	}
}

func TestFlightPlanAdvanceTimeWithinFirstPhase(t *testing.T) {
	plan := FlightPlan{First: AccelPair{Accel: Vec3{X: 3}, Duration: 1000}}
	consumed := plan.AdvanceTime(400)

	if consumed.First.Duration != 400 || consumed.First.Accel != (Vec3{X: 3}) {
		t.Errorf("consumed = %+v, want {Accel:{3 0 0} Duration:400}", consumed.First)
	}
	if plan.First.Duration != 600 {
		t.Errorf("remaining First.Duration = %v, want 600", plan.First.Duration)
	}
	if plan.Second != nil {
		t.Errorf("remaining plan grew a Second phase: %+v", plan.Second)
	}
}

func TestFlightPlanAdvanceTimeIntoSecondPhase(t *testing.T) {
	plan := FlightPlan{
		First:  AccelPair{Accel: Vec3{X: 1}, Duration: 500},
		Second: &AccelPair{Accel: Vec3{X: -1}, Duration: 500},
	}
	consumed := plan.AdvanceTime(700)

	if consumed.First.Duration != 500 || consumed.Second == nil || consumed.Second.Duration != 200 {
		t.Fatalf("consumed = %+v, want first 500s + second 200s", consumed)
	}
	if plan.Second != nil {
		t.Errorf("remaining plan should be single-phase, got %+v", plan)
	}
	if plan.First.Accel != (Vec3{X: -1}) || plan.First.Duration != 300 {
		t.Errorf("remaining plan = %+v, want {Accel:{-1 0 0} Duration:300}", plan.First)
	}
}

func TestFlightPlanAdvanceTimeConsumesWholePlan(t *testing.T) {
	plan := FlightPlan{First: AccelPair{Accel: Vec3{X: 1}, Duration: 1000}}
	consumed := plan.AdvanceTime(5000)

	if consumed.First.Duration != 1000 {
		t.Errorf("consumed.First.Duration = %v, want 1000", consumed.First.Duration)
	}
	if !plan.Empty() {
		t.Errorf("plan should be empty after consuming the whole thing, got %+v", plan)
	}
}

func TestFlightPlanPhases(t *testing.T) {
	single := FlightPlan{First: AccelPair{Duration: 1000}}
	if got := single.Phases(); len(got) != 1 {
		t.Errorf("single-phase Phases() returned %d elements, want 1", len(got))
	}

	two := FlightPlan{First: AccelPair{Duration: 1000}, Second: &AccelPair{Duration: 2000}}
	if got := two.Phases(); len(got) != 2 {
		t.Errorf("two-phase Phases() returned %d elements, want 2", len(got))
	}
}

func TestFlightPlanJSONRoundTrip(t *testing.T) {
	plan := FlightPlan{
		First:  AccelPair{Accel: Vec3{X: 3, Y: 0, Z: 0}, Duration: 1000},
		Second: &AccelPair{Accel: Vec3{X: -3, Y: 0, Z: 0}, Duration: 1000},
	}
	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got FlightPlan
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.First != plan.First {
		t.Errorf("First = %+v, want %+v", got.First, plan.First)
	}
	if got.Second == nil || *got.Second != *plan.Second {
		t.Errorf("Second = %+v, want %+v", got.Second, plan.Second)
	}
}

func TestFlightPlanJSONEmptyPlan(t *testing.T) {
	data, err := json.Marshal(FlightPlan{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal(empty) = %s, want []", data)
	}

	var got FlightPlan
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Empty() {
		t.Errorf("round-tripped empty plan is not Empty(): %+v", got)
	}
}
