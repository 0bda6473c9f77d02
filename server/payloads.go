package server

import (
	"encoding/json"
	"errors"

	"github.com/lab1702/starfarer/game"
)

// Request is one inbound frame, tagged by Type per spec.md §6's request
// variant list. Only the fields relevant to Type are populated; this
// mirrors payloads.rs's one-struct-per-variant shape collapsed into a
// single envelope, since Go lacks Rust's tagged-union enums and the
// teacher's own websocket.go uses the same envelope-plus-type-switch idiom
// for its ClientMessage type.
type Request struct {
	Type string `json:"type"`

	Code string `json:"code,omitempty"` // Login

	ScenarioName string `json:"scenario_name,omitempty"` // CreateScenario, JoinScenario, LoadScenario
	ScenarioFile string `json:"scenario_file,omitempty"` // CreateScenario

	Name     string     `json:"name,omitempty"`     // AddShip, AddPlanet, Remove
	Position game.Vec3  `json:"position,omitempty"` // AddShip, AddPlanet
	Velocity game.Vec3  `json:"velocity,omitempty"` // AddShip
	Design   string     `json:"design,omitempty"`   // AddShip
	Crew     *game.Crew `json:"crew,omitempty"`     // AddShip

	Color   string  `json:"color,omitempty"`   // AddPlanet
	Primary string  `json:"primary,omitempty"` // AddPlanet
	Radius  float64 `json:"radius,omitempty"`  // AddPlanet
	Mass    float64 `json:"mass,omitempty"`    // AddPlanet

	Plan game.FlightPlan `json:"plan,omitempty"` // SetPlan

	ShipName      string `json:"ship_name,omitempty"`      // SetPilotActions
	DodgeThrust   *bool  `json:"dodge_thrust,omitempty"`   // SetPilotActions
	AssistGunners *bool  `json:"assist_gunners,omitempty"` // SetPilotActions

	EntityName         string     `json:"entity_name,omitempty"`         // ComputePath
	EndPos             game.Vec3  `json:"end_pos,omitempty"`             // ComputePath
	EndVel             game.Vec3  `json:"end_vel,omitempty"`             // ComputePath
	StandoffDistance   float64    `json:"standoff_distance,omitempty"`   // ComputePath
	TargetVelocity     *game.Vec3 `json:"target_velocity,omitempty"`     // ComputePath
	TargetAcceleration *game.Vec3 `json:"target_acceleration,omitempty"` // ComputePath

	Actions []game.ShipActions `json:"actions,omitempty"` // ModifyActions

	Role string `json:"role,omitempty"` // SetRole
	Ship string `json:"ship,omitempty"` // SetRole
}

const (
	ReqLogin                 = "Login"
	ReqLogout                = "Logout"
	ReqQuit                  = "Quit"
	ReqCreateScenario        = "CreateScenario"
	ReqJoinScenario          = "JoinScenario"
	ReqLoadScenario          = "LoadScenario"
	ReqReset                 = "Reset"
	ReqAddShip               = "AddShip"
	ReqAddPlanet             = "AddPlanet"
	ReqRemove                = "Remove"
	ReqSetPlan               = "SetPlan"
	ReqSetPilotActions       = "SetPilotActions"
	ReqComputePath           = "ComputePath"
	ReqModifyActions         = "ModifyActions"
	ReqUpdate                = "Update"
	ReqSetRole               = "SetRole"
	ReqEntitiesRequest       = "EntitiesRequest"
	ReqDesignTemplateRequest = "DesignTemplateRequest"
)

// Response is one outbound frame, tagged by Type per spec.md §6's response
// variant list.
type Response struct {
	Type string `json:"type"`

	Email string `json:"email,omitempty"` // AuthResponse

	Names []string `json:"names,omitempty"` // Scenarios
	Name  string   `json:"name,omitempty"`  // JoinedScenario

	Designs map[string]*game.ShipDesignTemplate `json:"designs,omitempty"` // DesignTemplateResponse

	Entities json.RawMessage `json:"entities,omitempty"` // EntityResponse

	Users []string `json:"users,omitempty"` // Users

	Plan        game.FlightPlan `json:"plan,omitempty"`         // FlightPath
	Path        []game.Vec3     `json:"path,omitempty"`         // FlightPath
	EndVelocity game.Vec3       `json:"end_velocity,omitempty"` // FlightPath

	Effects []game.Effect `json:"effects,omitempty"` // Effects

	Text string `json:"text,omitempty"` // SimpleMsg, Error
}

const (
	RespAuthResponse           = "AuthResponse"
	RespPleaseLogin            = "PleaseLogin"
	RespLogoutResponse         = "LogoutResponse" // processor-internal, never sent
	RespScenarios              = "Scenarios"
	RespJoinedScenario         = "JoinedScenario"
	RespDesignTemplateResponse = "DesignTemplateResponse"
	RespEntityResponse         = "EntityResponse"
	RespUsers                  = "Users"
	RespFlightPath             = "FlightPath"
	RespEffects                = "Effects"
	RespSimpleMsg              = "SimpleMsg"
	RespError                  = "Error"
)

func simpleMsg(text string) Response { return Response{Type: RespSimpleMsg, Text: text} }

func errorResponse(err error) Response {
	if errorKindOf(err) == game.NotLoggedIn {
		return Response{Type: RespPleaseLogin}
	}
	return Response{Type: RespError, Text: err.Error()}
}

// errorKindOf extracts the game.Error kind from err, defaulting to
// BadRequest for errors this package didn't originate (should not happen
// in practice, since every fallible game/auth call returns a *game.Error).
func errorKindOf(err error) game.ErrorKind {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return game.BadRequest
}

// broadcastType reports whether a response of this Type is broadcast to
// every connection in the scenario (true) or unicast to the originating
// connection only (false), per spec.md §4.8 step 4.
func broadcastType(t string) bool {
	switch t {
	case RespEntityResponse, RespUsers, RespEffects:
		return true
	default:
		return false
	}
}
