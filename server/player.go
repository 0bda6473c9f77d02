package server

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lab1702/starfarer/auth"
	"github.com/lab1702/starfarer/game"
)

// Player roles, per spec.md §4.7 "a role (General/GM/a crew slot)". Any
// other string is treated as a crew-slot role naming the player's station
// aboard Ship.
const (
	RoleGeneral = "General"
	RoleGM      = "GM"
)

// PlayerManager is one connection's session state: identity, joined
// scenario, role, and (if crewing) which ship. Operations mirror the
// request variants named in spec.md §6, grounded on player.rs.
type PlayerManager struct {
	ID       uint64
	Auth     auth.Authenticator
	Registry *Registry
	Loader   ScenarioLoader
	Log      *zap.SugaredLogger
	TestMode bool

	Email    string
	Role     string
	Ship     *string
	Scenario *Scenario
}

func NewPlayerManager(id uint64, authenticator auth.Authenticator, registry *Registry, loader ScenarioLoader, log *zap.SugaredLogger, testMode bool) *PlayerManager {
	return &PlayerManager{
		ID:       id,
		Auth:     authenticator,
		Registry: registry,
		Loader:   loader,
		Log:      log,
		TestMode: testMode,
		Role:     RoleGeneral,
	}
}

// ValidatedUser reports whether Login has completed successfully.
func (p *PlayerManager) ValidatedUser() bool { return p.Email != "" }

// Login exchanges a login code for a session and records the resulting
// email, per authentication.rs's Authenticator::authenticate_google_user.
func (p *PlayerManager) Login(code string) (string, error) {
	_, email, err := p.Auth.Authenticate(code)
	if err != nil {
		return "", err
	}
	p.Email = email
	return email, nil
}

// Reconnect validates a session key carried over from a prior connection,
// per spec.md §4.8 step 2's reconnect-without-relogin flow.
func (p *PlayerManager) Reconnect(sessionKey string) (string, error) {
	email, err := p.Auth.ValidateSessionKey(sessionKey)
	if err != nil {
		return "", err
	}
	p.Email = email
	return email, nil
}

func (p *PlayerManager) Logout() {
	p.Email = ""
	p.Scenario = nil
	p.Ship = nil
	p.Role = RoleGeneral
}

func (p *PlayerManager) SetServer(s *Scenario) { p.Scenario = s }

func (p *PlayerManager) SetRole(role string, ship *string) {
	p.Role = role
	p.Ship = ship
}

// getRNG seeds a fixed constant in test mode so combat and jump rolls are
// reproducible, per spec.md §5's Determinism guarantee; otherwise it draws
// from OS entropy, matching player.rs's get_rng(test_mode).
func (p *PlayerManager) getRNG() *rand.Rand {
	if p.TestMode {
		return rand.New(rand.NewSource(0))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (p *PlayerManager) requireScenario() (*Scenario, error) {
	if p.Scenario == nil {
		return nil, game.NewError(game.BadRequest, "no scenario joined")
	}
	return p.Scenario, nil
}

// Reset requires the General role with no crewed ship, per spec.md §4.7.
func (p *PlayerManager) Reset() (string, error) {
	if p.Role != RoleGeneral || p.Ship != nil {
		return "", game.NewError(game.Unauthorized, "reset requires the General role and no crewed ship")
	}
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	if err := scenario.Reset(); err != nil {
		return "", err
	}
	return "Reset action executed", nil
}

func (p *PlayerManager) AddShip(name string, position, velocity game.Vec3, design string, crew *game.Crew) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	template, err := game.ResolveTemplate(scenario.Templates, design)
	if err != nil {
		return "", err
	}
	ship := game.NewShip(name, position, velocity, game.FlightPlan{}, template)
	if crew != nil {
		ship.Crew = *crew
	}
	if err := scenario.AddShip(ship); err != nil {
		return "", err
	}
	return "Add ship action executed", nil
}

func (p *PlayerManager) AddPlanet(name string, position game.Vec3, color string, primary string, radius, mass float64) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	dependency := 0
	if primary != "" {
		if primaryPlanet, ok := scenario.entities.Planets[primary]; ok {
			dependency = primaryPlanet.Dependency + 1
		}
	}
	planet := game.NewPlanet(name, position, color, radius, mass, primary, dependency)
	if err := scenario.AddPlanet(planet); err != nil {
		return "", err
	}
	return "Add planet action executed", nil
}

func (p *PlayerManager) Remove(name string) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	if err := scenario.Remove(name); err != nil {
		return "", err
	}
	return "Remove action executed", nil
}

func (p *PlayerManager) SetPlan(shipName string, plan game.FlightPlan) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	if err := scenario.SetPlan(shipName, plan); err != nil {
		return "", err
	}
	return "Set plan action executed", nil
}

func (p *PlayerManager) SetPilotActions(shipName string, dodgeThrust, assistGunners *bool) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	if err := scenario.SetPilotActions(shipName, dodgeThrust, assistGunners); err != nil {
		return "", err
	}
	return "Set pilot actions executed", nil
}

func (p *PlayerManager) MergeActions(actions []game.ShipActions) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	if err := scenario.MergeActions(actions); err != nil {
		return "", err
	}
	return "Modify actions executed", nil
}

// Update advances the joined scenario by one DELTA_TIME quantum and returns
// the accumulated effects; unlike every other mutating operation this never
// fails, per spec.md §4.4 ("the simulation's internal update never fails").
func (p *PlayerManager) Update() []game.Effect {
	if p.Scenario == nil {
		return nil
	}
	return p.Scenario.Update(p.getRNG(), p.Log)
}

// ComputePath solves a flight path for entityName, applying the standoff
// adjustment before calling the solver, per spec.md §4.1 and player.rs's
// compute_path.
func (p *PlayerManager) ComputePath(entityName string, endPos, endVel game.Vec3, standoff float64, targetVel, targetAccel *game.Vec3) (*game.SolvedPlan, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return nil, err
	}
	startPos, startVel, maxAccel, err := scenario.ComputePathInputs(entityName)
	if err != nil {
		return nil, err
	}
	adjustedEnd := game.StandoffAdjustedEndPos(startPos, endPos, standoff)

	if targetVel != nil {
		accel := game.Vec3{}
		if targetAccel != nil {
			accel = *targetAccel
		}
		return game.ComputeTargetPath(game.TargetParams{
			StartPos:        startPos,
			StartVel:        startVel,
			TargetPos:       adjustedEnd,
			TargetVel:       *targetVel,
			TargetAccel:     accel,
			MaxAcceleration: maxAccel,
		})
	}
	return game.ComputeFlightPath(game.FlightParams{
		StartPos:        startPos,
		EndPos:          adjustedEnd,
		StartVel:        startVel,
		EndVel:          endVel,
		MaxAcceleration: maxAccel,
	})
}

func (p *PlayerManager) LoadScenario(name string) (string, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return "", err
	}
	if err := scenario.Load(p.Loader, name, scenario.Templates); err != nil {
		return "", err
	}
	return "Load scenario action executed", nil
}

// GetEntitiesJSON renders the joined scenario's live entities in wire form.
func (p *PlayerManager) GetEntitiesJSON() ([]byte, error) {
	scenario, err := p.requireScenario()
	if err != nil {
		return nil, err
	}
	return scenario.EncodeJSON(), nil
}
