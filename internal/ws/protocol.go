package ws

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Request types
const (
	TypeJoinGame       = "join_game"
	TypeStartGame      = "start_game"
	TypePlaceStone     = "place_stone"
	TypeSwapDecision   = "swap_decision"
	TypeSelectGameMode = "select_game_mode"
	TypeRestartGame    = "restart_game"
	TypeForfeit        = "forfeit"
	TypeLeaveGame      = "leave_game"
)

// Outbound message types
const (
	TypeReqResponse = "req_response"
	TypeFullState   = "full_state"
)

// Request is the envelope of every message a client sends.
type Request struct {
	Type     string                 `json:"type"`
	ReqID    string                 `json:"reqId"`
	PlayerID string                 `json:"playerId"`
	GameID   string                 `json:"gameId"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	Type     string          `json:"type"`
	ReqID    string          `json:"reqId"`
	Success  bool            `json:"success"`
	PlayerID string          `json:"playerId,omitempty"`
	GameID   string          `json:"gameId,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
	Err      string          `json:"err,omitempty"`
}

// FullState is pushed to the other players of a game after every change.
type FullState struct {
	Type   string          `json:"type"`
	GameID string          `json:"gameId"`
	State  json.RawMessage `json:"state"`
}

type JoinGamePayload struct {
	DisplayName string `mapstructure:"displayName"`
	// NewGame opens a fresh game instead of joining an open one.
	NewGame bool `mapstructure:"newGame"`
}

type PlaceStonePayload struct {
	X      int    `mapstructure:"x"`
	Y      int    `mapstructure:"y"`
	Colour string `mapstructure:"colour"`
}

type SwapDecisionPayload struct {
	Decision string `mapstructure:"decision"`
}

type SelectGameModePayload struct {
	Mode string `mapstructure:"mode"`
}

type RestartGamePayload struct {
	ChangeRuleset bool `mapstructure:"changeRuleset"`
}

// wholeNumbers stops JSON numbers with a fraction from being truncated into
// integer fields.
func wholeNumbers(from, to reflect.Kind, data interface{}) (interface{}, error) {
	if from != reflect.Float64 || to != reflect.Int {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	return data, nil
}

// decodePayload fills out from the request payload.
func decodePayload(req Request, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncKind(wholeNumbers),
		Result:     out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(req.Payload); err != nil {
		return fmt.Errorf("unable to parse %s payload: %w", req.Type, err)
	}
	return nil
}
