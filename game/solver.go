package game

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// FlightParams is the boundary-value problem solved by ComputeFlightPath:
// reach end_pos/end_vel from start_pos/start_vel using two constant-thrust
// phases, each capped at MaxAcceleration.
type FlightParams struct {
	StartPos, EndPos Vec3
	StartVel, EndVel Vec3
	MaxAcceleration  float64
}

// SolvedPlan is the result of a flight-path solve: the two-phase plan, the
// sampled path (one point per DELTA_TIME step, starting with the origin),
// and the velocity actually attained at the end of the plan.
type SolvedPlan struct {
	Plan        FlightPlan
	Path        []Vec3
	EndVelocity Vec3
}

// residual computes the 8-component boundary-condition residual described
// in spec.md §4.1: 3 position equations, 3 velocity equations, and the two
// thrust-magnitude constraints |a1|=A, |a2|=A.
func residual(p FlightParams, x []float64) [8]float64 {
	a1 := Vec3{x[0], x[1], x[2]}
	a2 := Vec3{x[3], x[4], x[5]}
	t1, t2 := x[6], x[7]

	posEq := a1.Scale(t1 * t1 / 2).
		Add(a2.Scale(t2 * t2 / 2)).
		Add(a1.Scale(t1).Add(p.StartVel).Scale(t2)).
		Add(p.StartVel.Scale(t1)).
		Add(p.StartPos).
		Sub(p.EndPos)
	velEq := a1.Scale(t1).Add(a2.Scale(t2)).Add(p.StartVel).Sub(p.EndVel)

	return [8]float64{
		posEq.X, posEq.Y, posEq.Z,
		velEq.X, velEq.Y, velEq.Z,
		a1.Magnitude() - p.MaxAcceleration,
		a2.Magnitude() - p.MaxAcceleration,
	}
}

func sumSquares(r [8]float64) float64 {
	var s float64
	for _, v := range r {
		s += v * v
	}
	return s
}

// ComputeFlightPath solves the two-phase constant-thrust problem and
// samples the resulting plan into a path, per spec.md §4.1. It returns a
// SolverFailure error if the residual norm exceeds 1e-6 after the
// optimizer converges or exhausts its iteration budget.
func ComputeFlightPath(p FlightParams) (*SolvedPlan, error) {
	delta := p.EndPos.Sub(p.StartPos)
	distance := delta.Magnitude()
	if distance < 1e-9 {
		distance = 1e-9
	}
	guessAccel1 := delta.Normalize().Scale(p.MaxAcceleration)
	guessAccel2 := guessAccel1.Scale(-1)
	guessT := math.Sqrt(distance / p.MaxAcceleration)

	initial := []float64{
		guessAccel1.X, guessAccel1.Y, guessAccel1.Z,
		guessAccel2.X, guessAccel2.Y, guessAccel2.Z,
		guessT, guessT,
	}

	objective := func(x []float64) float64 {
		return sumSquares(residual(p, x))
	}

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, initial, &optimize.Settings{
		MajorIterations: 100,
	}, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, NewError(SolverFailure, "flight path solver failed: %v", err)
	}

	x := result.X
	r := residual(p, x)
	if math.Sqrt(sumSquares(r)) > 1e-6 {
		return nil, NewError(SolverFailure, "flight path solver did not converge (residual norm %.3e)", math.Sqrt(sumSquares(r)))
	}

	a1 := Vec3{x[0], x[1], x[2]}
	a2 := Vec3{x[3], x[4], x[5]}
	t1, t2 := x[6], x[7]

	type phase struct {
		accel    Vec3
		duration float64
	}

	path := []Vec3{p.StartPos}
	pos, vel := p.StartPos, p.StartVel
	for _, ph := range []phase{{a1, t1}, {a2, t2}} {
		accel, duration := ph.accel, ph.duration
		time := 0.0
		step := float64(DeltaTime)
		for time < duration {
			d := step
			if time+d > duration {
				d = duration - time
			}
			newPos := pos.Add(vel.Scale(d)).Add(accel.Scale(d * d / 2))
			newVel := vel.Add(accel.Scale(d))
			path = append(path, newPos)
			pos, vel = newPos, newVel
			time += d
		}
	}

	plan := FlightPlan{
		First:  AccelPair{Accel: a1.Scale(1 / G), Duration: uint64(math.Round(t1))},
		Second: &AccelPair{Accel: a2.Scale(1 / G), Duration: uint64(math.Round(t2))},
	}

	return &SolvedPlan{Plan: plan, Path: path, EndVelocity: vel}, nil
}

// StandoffAdjustedEndPos moves endPos back towards startPos by distance
// standoff along the approach direction, per spec.md §4.1's "Standoff
// distance" rule. A zero standoff leaves endPos untouched.
func StandoffAdjustedEndPos(startPos, endPos Vec3, standoff float64) Vec3 {
	if standoff <= 0 {
		return endPos
	}
	approach := endPos.Sub(startPos).Normalize()
	return endPos.Sub(approach.Scale(standoff))
}

// TargetParams extends FlightParams with the moving target's velocity and
// acceleration, used by the UI intercept-course tool and by missile
// homing. Resolved via original_source/callisto's compute_target_path is
// referenced by missile.rs and player.rs but is not present in the
// retrieval pack's computer.rs; this implementation iterates the
// correction spec.md §4.1 describes: predict the target's position and
// velocity at the previous iteration's estimated flight time, solve the
// static two-phase problem against that predicted state, and repeat until
// the estimated flight time stabilizes.
type TargetParams struct {
	StartPos, StartVel                Vec3
	TargetPos, TargetVel, TargetAccel Vec3
	MaxAcceleration                   float64
}

// ComputeTargetPath solves an intercept course against a moving target.
// Missile homing uses only the first phase of the result each tick
// (single-phase relaxation, since missiles re-solve and re-burn at full
// thrust every DELTA_TIME regardless of the rest of the returned plan).
func ComputeTargetPath(tp TargetParams) (*SolvedPlan, error) {
	distance := tp.TargetPos.Sub(tp.StartPos).Magnitude()
	t := math.Sqrt(distance / tp.MaxAcceleration)

	var solved *SolvedPlan
	for i := 0; i < 5; i++ {
		predictedPos := tp.TargetPos.Add(tp.TargetVel.Scale(t)).Add(tp.TargetAccel.Scale(0.5 * t * t))
		predictedVel := tp.TargetVel.Add(tp.TargetAccel.Scale(t))

		s, err := ComputeFlightPath(FlightParams{
			StartPos:        tp.StartPos,
			EndPos:          predictedPos,
			StartVel:        tp.StartVel,
			EndVel:          predictedVel,
			MaxAcceleration: tp.MaxAcceleration,
		})
		if err != nil {
			return nil, err
		}
		solved = s
		newT := float64(solved.Plan.Duration())
		if math.Abs(newT-t) < 1 {
			t = newT
			break
		}
		t = newT
	}
	return solved, nil
}
