package server

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lab1702/starfarer/game"
)

// Scenario is one named, shared Entities plus its reset snapshot, per
// spec.md §3's "Scenario/Server" model. Entities is protected by mu for the
// duration of a single request handler; the spec's optional per-ship
// RWMutex refinement is not implemented (see DESIGN.md's redesign-hint
// note: a single scenario-wide exclusive mutex with short critical
// sections is preferred).
type Scenario struct {
	ID   string
	Name string

	Templates map[string]*game.ShipDesignTemplate

	mu       sync.Mutex
	entities *game.Entities
	initial  *game.Entities
}

func newScenario(name string, entities, initial *game.Entities, templates map[string]*game.ShipDesignTemplate) *Scenario {
	return &Scenario{
		ID:        uuid.NewString(),
		Name:      name,
		Templates: templates,
		entities:  entities,
		initial:   initial,
	}
}

// Reset copies the scenario's initial_scenario deep clone back into the
// live entities, per spec.md §4.7.
func (s *Scenario) Reset() error {
	clone, err := game.CloneEntities(s.initial, s.Templates)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entities = clone
	s.mu.Unlock()
	return nil
}

func (s *Scenario) AddShip(ship *game.Ship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities.AddShip(ship)
}

func (s *Scenario) AddPlanet(planet *game.Planet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities.AddPlanet(planet)
}

func (s *Scenario) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities.Remove(name)
}

func (s *Scenario) SetPlan(shipName string, plan game.FlightPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ship, ok := s.entities.Ships[shipName]
	if !ok {
		return game.NewError(game.BadRequest, "unknown ship %q", shipName)
	}
	return ship.SetFlightPlan(plan)
}

func (s *Scenario) SetPilotActions(shipName string, dodgeThrust, assistGunners *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ship, ok := s.entities.Ships[shipName]
	if !ok {
		return game.NewError(game.BadRequest, "unknown ship %q", shipName)
	}
	if dodgeThrust != nil {
		ship.DodgeThrust = *dodgeThrust
	}
	if assistGunners != nil {
		ship.AssistGunners = *assistGunners
	}
	return nil
}

// MergeActions validates every FireAction/DeleteFireAction's weapon_id
// against the firing ship's design before folding it in, so a bad index
// is rejected as a BadRequest here rather than panicking inside Update's
// scenario-mutex-held critical section.
func (s *Scenario) MergeActions(actions []game.ShipActions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, group := range actions {
		ship, ok := s.entities.Ships[group.Ship]
		if !ok {
			return game.NewError(game.BadRequest, "unknown ship %q", group.Ship)
		}
		for _, a := range group.Actions {
			if a.Tag != game.TagFireAction && a.Tag != game.TagDeleteFireAction {
				continue
			}
			if a.WeaponID < 0 || a.WeaponID >= len(ship.Design.Weapons) {
				return game.NewError(game.BadRequest, "ship %q: weapon_id %d out of range", group.Ship, a.WeaponID)
			}
		}
	}
	s.entities.Actions = game.MergeActions(s.entities.Actions, actions)
	return nil
}

func (s *Scenario) Update(rng *rand.Rand, log *zap.SugaredLogger) []game.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entities.Update(rng, log)
}

// ComputePathInputs returns maxAccel in m/s^2: Ship.MaxAcceleration reports
// g-units, but the solver's residual math works in m/s^2.
func (s *Scenario) ComputePathInputs(shipName string) (startPos, startVel game.Vec3, maxAccel float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ship, ok := s.entities.Ships[shipName]
	if !ok {
		return game.Vec3{}, game.Vec3{}, 0, game.NewError(game.BadRequest, "unknown entity %q", shipName)
	}
	return ship.Position, ship.Velocity, ship.MaxAcceleration() * game.G, nil
}

// Load replaces this scenario's live entities (and reset snapshot) with the
// contents of file, fetched via loader. Used by the LoadScenario request.
func (s *Scenario) Load(loader ScenarioLoader, file string, templates map[string]*game.ShipDesignTemplate) error {
	data, err := loader.Load(file)
	if err != nil {
		return err
	}
	decoded, err := game.DecodeEntities(data, templates)
	if err != nil {
		return err
	}
	clone, err := game.CloneEntities(decoded, templates)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entities = decoded
	s.initial = clone
	s.mu.Unlock()
	return nil
}

// EncodeJSON renders the live entities as the wire entities form, used for
// both EntityResponse and CreateScenario/JoinScenario's initial snapshot.
func (s *Scenario) EncodeJSON() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return game.EncodeEntities(s.entities)
}

// Registry is the process-wide scenario-name -> Scenario table, per
// spec.md §3's "process-wide registry". Scenarios are created by
// CreateScenario and live until process exit; none are ever removed.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Scenario
	byName map[string]*Scenario
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Scenario), byName: make(map[string]*Scenario)}
}

// Create registers a new scenario, seeded either from scenarioFile (via
// loader) or empty when scenarioFile is "". Returns Conflict if the name is
// already registered.
func (r *Registry) Create(name, scenarioFile string, loader ScenarioLoader, templates map[string]*game.ShipDesignTemplate) (*Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return nil, game.NewError(game.Conflict, "scenario name %q already exists", name)
	}

	entities := game.NewEntities()
	if scenarioFile != "" {
		data, err := loader.Load(scenarioFile)
		if err != nil {
			return nil, err
		}
		decoded, err := game.DecodeEntities(data, templates)
		if err != nil {
			return nil, err
		}
		entities = decoded
	}

	// initial_scenario is a deep copy taken at creation time, per
	// processor.rs's deep_copy_into: Reset must restore to this snapshot
	// independent of whatever mutations the live entities accumulate.
	initial, err := game.CloneEntities(entities, templates)
	if err != nil {
		return nil, err
	}

	s := newScenario(name, entities, initial, templates)
	r.byName[name] = s
	r.byID[s.ID] = s
	return s, nil
}

func (r *Registry) Get(name string) (*Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
