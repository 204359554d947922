package ws

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/game"
	"github.com/gomoku/backend/internal/instance"
	"github.com/gomoku/backend/internal/logger"
)

var (
	ErrRateLimited      = errors.New("too many requests, slow down")
	ErrMalformedRequest = errors.New("request is not valid JSON")
	ErrUnknownRequest   = errors.New("unknown request type")
	ErrNotJoined        = errors.New("join a game before sending game requests")
	ErrPlayerMismatch   = errors.New("playerId does not belong to this connection")
	ErrPlayerConnected  = errors.New("this player is already connected elsewhere")
	ErrWrongGame        = errors.New("gameId does not match the game you are in")
)

// gameHandler runs a request for a joined player against their game.
type gameHandler func(inst *instance.Instance, playerID string, req Request) error

var gameHandlers = map[string]gameHandler{
	TypeStartGame:      handleStartGame,
	TypePlaceStone:     handlePlaceStone,
	TypeSwapDecision:   handleSwapDecision,
	TypeSelectGameMode: handleSelectGameMode,
	TypeRestartGame:    handleRestartGame,
	TypeForfeit:        handleForfeit,
}

func failure(req Request, err error) Response {
	return Response{Type: TypeReqResponse, ReqID: req.ReqID, GameID: req.GameID, Err: err.Error()}
}

func success(req Request, playerID string, inst *instance.Instance) Response {
	resp := Response{Type: TypeReqResponse, ReqID: req.ReqID, Success: true, PlayerID: playerID, GameID: req.GameID}
	if inst == nil {
		return resp
	}
	resp.GameID = inst.ID()
	state, err := json.Marshal(inst.Snapshot())
	if err != nil {
		logger.Error("Failed to encode game state", zap.String("gameId", inst.ID()), zap.Error(err))
		return resp
	}
	resp.State = state
	return resp
}

// handleRequest routes one decoded request. Every request gets exactly one
// response; successful game changes are pushed to the other players by the
// instance itself.
func (h *Hub) handleRequest(c *Client, req Request) Response {
	switch req.Type {
	case TypeJoinGame:
		return h.handleJoin(c, req)
	case TypeLeaveGame:
		return h.handleLeave(c, req)
	}

	handler, ok := gameHandlers[req.Type]
	if !ok {
		return failure(req, ErrUnknownRequest)
	}
	playerID, err := h.identify(c, req)
	if err != nil {
		return failure(req, err)
	}
	inst, ok := h.games.GameOf(playerID)
	if !ok {
		return failure(req, instance.ErrNoOpenGame)
	}
	if req.GameID != "" && req.GameID != inst.ID() {
		return failure(req, ErrWrongGame)
	}
	if err := handler(inst, playerID, req); err != nil {
		logger.Debug("Request failed",
			zap.String("type", req.Type),
			zap.String("player", playerID),
			zap.String("gameId", inst.ID()),
			zap.Error(err))
		return failure(req, err)
	}
	return success(req, playerID, inst)
}

// identify returns the player bound to the connection.
func (h *Hub) identify(c *Client, req Request) (string, error) {
	h.mu.RLock()
	playerID := c.playerID
	h.mu.RUnlock()
	if playerID == "" {
		return "", ErrNotJoined
	}
	if req.PlayerID != "" && req.PlayerID != playerID {
		return "", ErrPlayerMismatch
	}
	return playerID, nil
}

func (h *Hub) handleJoin(c *Client, req Request) Response {
	var payload JoinGamePayload
	if err := decodePayload(req, &payload); err != nil {
		return failure(req, err)
	}

	h.mu.RLock()
	bound := c.playerID
	h.mu.RUnlock()
	if bound != "" && req.PlayerID != "" && req.PlayerID != bound {
		return failure(req, ErrPlayerMismatch)
	}
	id := req.PlayerID
	if bound != "" {
		id = bound
	}

	player := h.players.AddOrGet(id, payload.DisplayName)
	if err := h.bind(c, player.ID); err != nil {
		return failure(req, err)
	}

	var (
		inst *instance.Instance
		err  error
	)
	switch {
	case req.GameID != "":
		inst, err = h.games.Join(req.GameID, player)
	case payload.NewGame:
		inst, err = h.games.Create(player)
	default:
		inst, err = h.games.JoinAny(player)
	}
	if err != nil {
		resp := failure(req, err)
		resp.PlayerID = player.ID
		return resp
	}
	logger.Info("Player joined game", zap.String("player", player.ID), zap.String("gameId", inst.ID()))
	return success(req, player.ID, inst)
}

func (h *Hub) handleLeave(c *Client, req Request) Response {
	playerID, err := h.identify(c, req)
	if err != nil {
		return failure(req, err)
	}
	if err := h.games.Leave(playerID); err != nil {
		return failure(req, err)
	}
	return success(req, playerID, nil)
}

func handleStartGame(inst *instance.Instance, playerID string, _ Request) error {
	return inst.StartGame(playerID)
}

func handlePlaceStone(inst *instance.Instance, playerID string, req Request) error {
	var payload PlaceStonePayload
	if err := decodePayload(req, &payload); err != nil {
		return err
	}
	colour, err := game.ParseCell(payload.Colour)
	if err != nil {
		return err
	}
	return inst.PlaceStone(playerID, payload.X, payload.Y, colour)
}

func handleSwapDecision(inst *instance.Instance, playerID string, req Request) error {
	var payload SwapDecisionPayload
	if err := decodePayload(req, &payload); err != nil {
		return err
	}
	decision, err := game.ParseSwapDecision(payload.Decision)
	if err != nil {
		return err
	}
	return inst.DoSwapDecision(playerID, decision)
}

func handleSelectGameMode(inst *instance.Instance, playerID string, req Request) error {
	var payload SelectGameModePayload
	if err := decodePayload(req, &payload); err != nil {
		return err
	}
	return inst.SetGameMode(playerID, payload.Mode)
}

func handleRestartGame(inst *instance.Instance, playerID string, req Request) error {
	var payload RestartGamePayload
	if err := decodePayload(req, &payload); err != nil {
		return err
	}
	return inst.Restart(playerID, payload.ChangeRuleset)
}

func handleForfeit(inst *instance.Instance, playerID string, _ Request) error {
	return inst.DoForfeit(playerID)
}
