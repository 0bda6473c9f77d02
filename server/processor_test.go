package server

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lab1702/starfarer/auth"
	"github.com/lab1702/starfarer/game"
)

// noopLoader never has anything to load; these tests only exercise
// CreateScenario with no scenario_file.
type noopLoader struct{}

func (noopLoader) Load(name string) ([]byte, error) {
	return nil, game.NewError(game.Transient, "no scenario files configured for tests")
}

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	templates := map[string]*game.ShipDesignTemplate{
		"TestFrigate": testDesign(),
	}
	return NewProcessor(auth.NewMock(), templates, noopLoader{}, zap.NewNop().Sugar(), true)
}

func testDesign() *game.ShipDesignTemplate {
	return &game.ShipDesignTemplate{
		Name:         "TestFrigate",
		Displacement: 100,
		Hull:         40,
		Armor:        10,
		Maneuver:     6,
		Jump:         2,
		Power:        50,
		Fuel:         20,
		Crew:         10,
		Sensors:      game.SensorsBasic,
	}
}

func mustRecv(t *testing.T, out <-chan Response) Response {
	t.Helper()
	select {
	case resp := <-out:
		return resp
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a response")
		return Response{}
	}
}

// TestProcessorLoginSequence exercises spec.md's post-Login/reconnect
// message sequence: AuthResponse, Scenarios, DesignTemplateResponse.
func TestProcessorLoginSequence(t *testing.T) {
	p := testProcessor(t)
	conn, in, out := NewFakeConn()
	go p.HandleConnection(conn, "")

	in <- Request{Type: ReqLogin, Code: "pilot@example.com"}

	authResp := mustRecv(t, out)
	if authResp.Type != RespAuthResponse || authResp.Email != "pilot@example.com" {
		t.Fatalf("first response = %+v, want AuthResponse for pilot@example.com", authResp)
	}
	scenarios := mustRecv(t, out)
	if scenarios.Type != RespScenarios {
		t.Fatalf("second response = %+v, want Scenarios", scenarios)
	}
	designs := mustRecv(t, out)
	if designs.Type != RespDesignTemplateResponse || len(designs.Designs) != 1 {
		t.Fatalf("third response = %+v, want DesignTemplateResponse with 1 design", designs)
	}
}

func TestProcessorRejectsRequestsBeforeLogin(t *testing.T) {
	p := testProcessor(t)
	conn, in, out := NewFakeConn()
	go p.HandleConnection(conn, "")

	in <- Request{Type: ReqEntitiesRequest}

	resp := mustRecv(t, out)
	if resp.Type != RespPleaseLogin {
		t.Fatalf("response = %+v, want PleaseLogin", resp)
	}
}

// TestProcessorCreateJoinAndAddShip is an S1-like flow: log in, create a
// scenario, add a ship, and confirm an EntitiesRequest echoes back exactly
// the entity state broadcast after AddShip.
func TestProcessorCreateJoinAndAddShip(t *testing.T) {
	p := testProcessor(t)
	conn, in, out := NewFakeConn()
	go p.HandleConnection(conn, "")

	in <- Request{Type: ReqLogin, Code: "pilot@example.com"}
	mustRecv(t, out) // AuthResponse
	mustRecv(t, out) // Scenarios
	mustRecv(t, out) // DesignTemplateResponse

	in <- Request{Type: ReqCreateScenario, ScenarioName: "alpha"}
	joined := mustRecv(t, out)
	if joined.Type != RespJoinedScenario || joined.Name != "alpha" {
		t.Fatalf("response = %+v, want JoinedScenario(alpha)", joined)
	}
	mustRecv(t, out) // EntityResponse
	mustRecv(t, out) // Users

	in <- Request{
		Type:     ReqAddShip,
		Name:     "ship1",
		Design:   "TestFrigate",
		Position: game.Vec3{X: 1, Y: 2, Z: 3},
		Velocity: game.Vec3{X: 1000},
	}
	msg := mustRecv(t, out)
	if msg.Type != RespSimpleMsg {
		t.Fatalf("response = %+v, want SimpleMsg", msg)
	}
	entities := mustRecv(t, out)
	if entities.Type != RespEntityResponse {
		t.Fatalf("response = %+v, want EntityResponse", entities)
	}

	in <- Request{Type: ReqEntitiesRequest}
	echoed := mustRecv(t, out)
	if echoed.Type != RespEntityResponse {
		t.Fatalf("response = %+v, want EntityResponse", echoed)
	}
	if string(echoed.Entities) != string(entities.Entities) {
		t.Errorf("EntitiesRequest echo = %s, want %s", echoed.Entities, entities.Entities)
	}
}

func TestProcessorUpdateCoastsAddedShip(t *testing.T) {
	p := testProcessor(t)
	conn, in, out := NewFakeConn()
	go p.HandleConnection(conn, "")

	in <- Request{Type: ReqLogin, Code: "pilot@example.com"}
	mustRecv(t, out)
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqCreateScenario, ScenarioName: "alpha"}
	mustRecv(t, out)
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqAddShip, Name: "ship1", Design: "TestFrigate", Velocity: game.Vec3{X: 1000}}
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqUpdate}
	effects := mustRecv(t, out)
	if effects.Type != RespEffects || len(effects.Effects) != 0 {
		t.Fatalf("response = %+v, want an empty Effects list", effects)
	}
	entities := mustRecv(t, out)
	if entities.Type != RespEntityResponse {
		t.Fatalf("response = %+v, want EntityResponse", entities)
	}
}

func TestProcessorCreateScenarioConflict(t *testing.T) {
	p := testProcessor(t)
	conn, in, out := NewFakeConn()
	go p.HandleConnection(conn, "")

	in <- Request{Type: ReqLogin, Code: "pilot@example.com"}
	mustRecv(t, out)
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqCreateScenario, ScenarioName: "alpha"}
	mustRecv(t, out)
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqCreateScenario, ScenarioName: "alpha"}
	resp := mustRecv(t, out)
	if resp.Type != RespError {
		t.Fatalf("response = %+v, want Error for a duplicate scenario name", resp)
	}
}

func TestProcessorLogoutClosesConnection(t *testing.T) {
	p := testProcessor(t)
	conn, in, out := NewFakeConn()
	done := make(chan struct{})
	go func() {
		p.HandleConnection(conn, "")
		close(done)
	}()

	in <- Request{Type: ReqLogin, Code: "pilot@example.com"}
	mustRecv(t, out)
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqCreateScenario, ScenarioName: "alpha"}
	mustRecv(t, out)
	mustRecv(t, out)
	mustRecv(t, out)

	in <- Request{Type: ReqLogout}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleConnection should return after a Logout request")
	}
}
