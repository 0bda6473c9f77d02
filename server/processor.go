package server

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lab1702/starfarer/auth"
	"github.com/lab1702/starfarer/game"
)

// connEntry is one live connection: its transport, its session state, and
// which scenario (if any) it has joined, so Processor can target broadcasts
// without re-deriving membership from the Registry on every message.
type connEntry struct {
	id     uint64
	conn   *Conn
	player *PlayerManager
}

// Processor is the connection hub, grounded on processor.rs's Processor.
// Where the original funnels every connection through one single-threaded
// merged stream (FuturesUnordered) because Rust's async executor needs
// that structure to share &mut Entities without a lock, this version gives
// each connection its own goroutine: linearizability per scenario already
// comes from Scenario's own mutex (registry.go), so there is nothing a
// manual fan-in loop would add. See DESIGN.md.
type Processor struct {
	Auth      auth.Authenticator
	Registry  *Registry
	Members   *MembersTable
	Templates map[string]*game.ShipDesignTemplate
	Loader    ScenarioLoader
	Log       *zap.SugaredLogger
	TestMode  bool

	nextID uint64

	mu    sync.Mutex
	conns map[uint64]*connEntry
}

func NewProcessor(authenticator auth.Authenticator, templates map[string]*game.ShipDesignTemplate, loader ScenarioLoader, log *zap.SugaredLogger, testMode bool) *Processor {
	return &Processor{
		Auth:      authenticator,
		Registry:  NewRegistry(),
		Members:   NewMembersTable(),
		Templates: templates,
		Loader:    loader,
		Log:       log,
		TestMode:  testMode,
		conns:     make(map[uint64]*connEntry),
	}
}

// HandleConnection owns one connection end to end: optional reconnect
// synthesis, the read-dispatch-send loop, and cleanup on disconnect. It
// blocks until the connection closes, so callers run it in its own
// goroutine.
func (p *Processor) HandleConnection(conn *Conn, priorSessionKey string) {
	id := atomic.AddUint64(&p.nextID, 1)
	player := NewPlayerManager(id, p.Auth, p.Registry, p.Loader, p.Log, p.TestMode)
	entry := &connEntry{id: id, conn: conn, player: player}

	p.mu.Lock()
	p.conns[id] = entry
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.conns, id)
		p.mu.Unlock()
		if player.Scenario != nil {
			p.Members.Remove(player.Scenario.ID, player.ID)
		}
		conn.Close()
	}()

	if priorSessionKey != "" {
		if email, err := player.Reconnect(priorSessionKey); err == nil {
			for _, resp := range buildSuccessfulAuthMsgs(email, p.Registry, p.Templates) {
				if conn.WriteMessage(resp) != nil {
					return
				}
			}
		} else if p.Log != nil {
			p.Log.Debugw("reconnect with stale session key", "error", err)
		}
	}

	for {
		req, err := conn.ReadMessage()
		if err != nil {
			return
		}

		responses := p.dispatch(req, entry)

		closing := false
		for _, resp := range responses {
			if resp.Type == RespLogoutResponse {
				closing = true
				continue
			}
			p.send(entry, resp)
		}
		if closing {
			return
		}
	}
}

// send delivers resp to every connection sharing entry's scenario when
// resp's Type is a broadcast variant, otherwise to entry alone.
func (p *Processor) send(entry *connEntry, resp Response) {
	if !broadcastType(resp.Type) || entry.player.Scenario == nil {
		entry.conn.WriteMessage(resp)
		return
	}
	p.broadcastToScenario(entry.player.Scenario.ID, resp)
}

// broadcastToScenario delivers resp to every connection currently joined to
// scenarioID, regardless of resp's own Type.
func (p *Processor) broadcastToScenario(scenarioID string, resp Response) {
	p.mu.Lock()
	peers := make([]*connEntry, 0, len(p.conns))
	for _, other := range p.conns {
		if other.player.Scenario != nil && other.player.Scenario.ID == scenarioID {
			peers = append(peers, other)
		}
	}
	p.mu.Unlock()

	for _, peer := range peers {
		peer.conn.WriteMessage(resp)
	}
}

// dispatch is the per-message business logic, grounded on
// processor.rs's Processor::handle_request.
func (p *Processor) dispatch(req Request, entry *connEntry) []Response {
	player := entry.player

	if !player.ValidatedUser() && req.Type != ReqLogin && req.Type != ReqQuit {
		return []Response{{Type: RespPleaseLogin}}
	}

	switch req.Type {
	case ReqLogin:
		email, err := player.Login(req.Code)
		if err != nil {
			return []Response{errorResponse(err)}
		}
		return buildSuccessfulAuthMsgs(email, p.Registry, p.Templates)

	case ReqLogout:
		scenario := player.Scenario
		player.Logout()
		if scenario == nil {
			return []Response{errorResponse(game.NewError(game.BadRequest, "attempt to logout without being in a scenario"))}
		}
		p.Members.Remove(scenario.ID, player.ID)
		p.broadcastToScenario(scenario.ID, Response{Type: RespUsers, Users: p.Members.Users(scenario.ID)})
		return []Response{{Type: RespLogoutResponse}}

	case ReqQuit:
		if !p.TestMode {
			if p.Log != nil {
				p.Log.Warnw("quit request received outside test mode")
			}
			return []Response{errorResponse(game.NewError(game.Unauthorized, "quit is only allowed in test mode"))}
		}
		panic("quit requested")

	case ReqCreateScenario:
		scenario, err := p.Registry.Create(req.ScenarioName, req.ScenarioFile, p.Loader, p.Templates)
		if err != nil {
			return []Response{errorResponse(err)}
		}
		player.SetServer(scenario)
		p.Members.Update(scenario.ID, player.ID, player.Email, player.Role, player.Ship)
		return []Response{
			{Type: RespJoinedScenario, Name: scenario.Name},
			{Type: RespEntityResponse, Entities: scenario.EncodeJSON()},
			{Type: RespUsers, Users: p.Members.Users(scenario.ID)},
		}

	case ReqJoinScenario:
		scenario, ok := p.Registry.Get(req.ScenarioName)
		if !ok {
			return []Response{errorResponse(game.NewError(game.BadRequest, "scenario does not exist"))}
		}
		player.SetServer(scenario)
		p.Members.Update(scenario.ID, player.ID, player.Email, player.Role, player.Ship)
		return []Response{
			{Type: RespJoinedScenario, Name: scenario.Name},
			{Type: RespEntityResponse, Entities: scenario.EncodeJSON()},
			{Type: RespUsers, Users: p.Members.Users(scenario.ID)},
		}

	case ReqLoadScenario:
		msg, err := player.LoadScenario(req.ScenarioName)
		return simpleResult(msg, err)

	case ReqReset:
		msg, err := player.Reset()
		return responseWithUpdate(player, msg, err)

	case ReqAddShip:
		msg, err := player.AddShip(req.Name, req.Position, req.Velocity, req.Design, req.Crew)
		return responseWithUpdate(player, msg, err)

	case ReqSetPilotActions:
		msg, err := player.SetPilotActions(req.ShipName, req.DodgeThrust, req.AssistGunners)
		return responseWithUpdate(player, msg, err)

	case ReqAddPlanet:
		msg, err := player.AddPlanet(req.Name, req.Position, req.Color, req.Primary, req.Radius, req.Mass)
		return responseWithUpdate(player, msg, err)

	case ReqRemove:
		msg, err := player.Remove(req.Name)
		return responseWithUpdate(player, msg, err)

	case ReqSetPlan:
		msg, err := player.SetPlan(req.Name, req.Plan)
		return responseWithUpdate(player, msg, err)

	case ReqSetRole:
		if !player.ValidatedUser() {
			return []Response{errorResponse(game.NewError(game.Unauthorized, "attempt to set role without being logged in"))}
		}
		player.SetRole(req.Role, roleShip(req.Ship))
		if player.Scenario == nil {
			return []Response{errorResponse(game.NewError(game.BadRequest, "cannot set role when no scenario has yet been joined"))}
		}
		p.Members.Update(player.Scenario.ID, player.ID, player.Email, player.Role, player.Ship)
		return []Response{{Type: RespUsers, Users: p.Members.Users(player.Scenario.ID)}}

	case ReqModifyActions:
		msg, err := player.MergeActions(req.Actions)
		return responseWithUpdate(player, msg, err)

	case ReqUpdate:
		effects := player.Update()
		resp := []Response{{Type: RespEffects, Effects: effects}}
		if player.Scenario != nil {
			resp = append(resp, Response{Type: RespEntityResponse, Entities: player.Scenario.EncodeJSON()})
		}
		return resp

	case ReqComputePath:
		solved, err := player.ComputePath(req.EntityName, req.EndPos, req.EndVel, req.StandoffDistance, req.TargetVelocity, req.TargetAcceleration)
		if err != nil {
			return []Response{errorResponse(err)}
		}
		return []Response{{Type: RespFlightPath, Plan: solved.Plan, Path: solved.Path, EndVelocity: solved.EndVelocity}}

	case ReqEntitiesRequest:
		data, err := player.GetEntitiesJSON()
		if err != nil {
			return []Response{errorResponse(err)}
		}
		return []Response{{Type: RespEntityResponse, Entities: data}}

	case ReqDesignTemplateRequest:
		return []Response{{Type: RespDesignTemplateResponse, Designs: p.Templates}}

	default:
		return []Response{errorResponse(game.NewError(game.BadRequest, "unknown request type %q", req.Type))}
	}
}

// Shutdown closes every tracked connection, letting each HandleConnection
// goroutine unwind via its ReadMessage error path.
func (p *Processor) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, entry := range p.conns {
		entry.conn.Close()
	}
}

func roleShip(ship string) *string {
	if ship == "" {
		return nil
	}
	return &ship
}

func simpleResult(msg string, err error) []Response {
	if err != nil {
		return []Response{errorResponse(err)}
	}
	return []Response{simpleMsg(msg)}
}

// responseWithUpdate is the common "mutate, then broadcast the new entity
// state" shape used by most requests, per processor.rs's
// response_with_update.
func responseWithUpdate(player *PlayerManager, msg string, err error) []Response {
	if err != nil {
		return []Response{errorResponse(err)}
	}
	resp := []Response{simpleMsg(msg)}
	if player.Scenario != nil {
		resp = append(resp, Response{Type: RespEntityResponse, Entities: player.Scenario.EncodeJSON()})
	}
	return resp
}

// buildSuccessfulAuthMsgs is the message sequence sent after a successful
// Login or a transparent reconnect, per processor.rs's
// build_successful_auth_msgs: the authenticated identity, the list of
// joinable scenarios, and the design template table.
func buildSuccessfulAuthMsgs(email string, registry *Registry, templates map[string]*game.ShipDesignTemplate) []Response {
	return []Response{
		{Type: RespAuthResponse, Email: email},
		{Type: RespScenarios, Names: registry.Names()},
		{Type: RespDesignTemplateResponse, Designs: templates},
	}
}
