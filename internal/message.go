package internal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zefir/reakcja-go-backend/internal/game"
	"github.com/zefir/reakcja-go-backend/logger"
)

// Wire protocol: JSON envelopes {type, data} in both directions over a
// persistent websocket. Inbound payloads are decoded into the typed
// structs below before any of them reaches the registry.

// Inbound message types.
const (
	MsgCreateGame   = "create-game"
	MsgJoinGame     = "join-game"
	MsgGetLobby     = "get-lobby"
	MsgStartGame    = "start-game"
	MsgGetGameState = "get-game-state"
	MsgMakeMove     = "make-move"
	MsgLeaveGame    = "leave-game"
	MsgLeaveLobby   = "leave-lobby"
	MsgUpdateName   = "update-name"
	MsgPong         = "pong"
)

// Outbound message types.
const (
	MsgConnectionEstablished = "connection-established"
	MsgPing                  = "ping"
	MsgGameCreated           = "game-created"
	MsgGameJoined            = "game-joined"
	MsgJoinRejected          = "join-rejected"
	MsgLobbyUpdate           = "lobby-update"
	MsgGameStarted           = "game-started"
	MsgGameState             = "game-state"
	MsgNameUpdated           = "name-updated"
	MsgError                 = "error"
)

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type createGameData struct {
	PlayerName string        `json:"playerName"`
	Settings   game.Settings `json:"settings"`
}

type joinGameData struct {
	GameCode   string `json:"gameCode"`
	PlayerName string `json:"playerName"`
}

type gameCodeData struct {
	GameCode string `json:"gameCode"`
}

type makeMoveData struct {
	GameCode string `json:"gameCode"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

type updateNameData struct {
	GameCode string `json:"gameCode"`
	Name     string `json:"name"`
}

type connectionEstablishedData struct {
	ClientID string `json:"clientId"`
}

type gameCreatedData struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
	Color    string `json:"color"`
}

type lobbyData struct {
	Players  []*game.Player `json:"players"`
	IsHost   bool           `json:"isHost"`
	Settings game.Settings  `json:"settings"`
}

type gameStartedData struct {
	GameCode string `json:"gameCode"`
}

type nameUpdatedData struct {
	Success bool `json:"success"`
}

type errorData struct {
	Message string `json:"message"`
}

// stateView is a game state seen by one recipient.
type stateView struct {
	*game.State
	IsMyTurn bool `json:"isMyTurn"`
}

// handleMessage dispatches one decoded envelope. Unknown types and broken
// payloads get a generic error back; the connection stays open either way.
func (s *Server) handleMessage(client *Client, env Envelope) {
	switch env.Type {
	case MsgPong:
		// connection alive

	case MsgCreateGame:
		var d createGameData
		if !decode(client, env.Data, &d) {
			return
		}
		s.handleCreateGame(client, d)

	case MsgJoinGame:
		var d joinGameData
		if !decode(client, env.Data, &d) {
			return
		}
		s.handleJoinGame(client, d)

	case MsgGetLobby:
		var d gameCodeData
		if !decode(client, env.Data, &d) {
			return
		}
		if err := s.registry.SendLobby(client, d.GameCode); err != nil {
			s.sendError(client, d.GameCode, err)
		}

	case MsgStartGame:
		var d gameCodeData
		if !decode(client, env.Data, &d) {
			return
		}
		if err := s.registry.Start(client, d.GameCode); err != nil {
			s.sendError(client, d.GameCode, err)
		}

	case MsgGetGameState:
		var d gameCodeData
		if !decode(client, env.Data, &d) {
			return
		}
		if err := s.registry.SendState(client, d.GameCode); err != nil {
			s.sendError(client, d.GameCode, err)
		}

	case MsgMakeMove:
		var d makeMoveData
		if !decode(client, env.Data, &d) {
			return
		}
		if err := s.registry.Move(client, d.GameCode, d.X, d.Y); err != nil {
			s.sendError(client, d.GameCode, err)
		}

	case MsgLeaveGame:
		var d gameCodeData
		if !decode(client, env.Data, &d) {
			return
		}
		s.registry.Leave(client, d.GameCode, true)

	case MsgLeaveLobby:
		var d gameCodeData
		if !decode(client, env.Data, &d) {
			return
		}
		s.registry.Leave(client, d.GameCode, false)

	case MsgUpdateName:
		var d updateNameData
		if !decode(client, env.Data, &d) {
			return
		}
		if err := s.registry.UpdateName(client, d.GameCode, d.Name); err != nil {
			s.sendError(client, d.GameCode, err)
			return
		}
		s.clients.send(client.ID, MsgNameUpdated, nameUpdatedData{Success: true})

	default:
		logger.Log.Warn().Str("type", env.Type).Str("client", client.ID).Msg("unhandled message type")
		s.clients.send(client.ID, MsgError, errorData{Message: "Invalid message format"})
	}
}

func (s *Server) handleCreateGame(client *Client, d createGameData) {
	sess, host, err := s.registry.Create(client, d.PlayerName, d.Settings)
	if err != nil {
		if errors.Is(err, ErrCodeSpaceExhausted) {
			// Internal failure, not the user's doing.
			logger.Log.Error().Err(err).Msg("create game failed")
			return
		}
		s.sendError(client, "", err)
		return
	}
	s.clients.send(client.ID, MsgGameCreated, gameCreatedData{
		GameCode: sess.Code,
		PlayerID: client.ID,
		Color:    host.Color,
	})
}

func (s *Server) handleJoinGame(client *Client, d joinGameData) {
	p, err := s.registry.Join(client, d.GameCode, d.PlayerName)
	if err != nil {
		s.clients.send(client.ID, MsgJoinRejected, errorData{Message: userMessage(d.GameCode, err)})
		return
	}
	s.clients.send(client.ID, MsgGameJoined, gameCreatedData{
		GameCode: d.GameCode,
		PlayerID: client.ID,
		Color:    p.Color,
	})
}

func (s *Server) sendError(client *Client, code string, err error) {
	s.clients.send(client.ID, MsgError, errorData{Message: userMessage(code, err)})
}

// userMessage renders registry errors the way clients show them. The
// not-found class names the offending code.
func userMessage(code string, err error) string {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return fmt.Sprintf("Game %s does not exist", code)
	case errors.Is(err, ErrGameNotStarted):
		return fmt.Sprintf("Game %s does not exist or hasn't started", code)
	default:
		return err.Error()
	}
}

// decode unmarshals an inbound payload, replying with a generic error on
// garbage input.
func decode(client *Client, raw json.RawMessage, into any) bool {
	if err := json.Unmarshal(raw, into); err != nil {
		logger.Log.Warn().Err(err).Str("client", client.ID).Msg("malformed payload")
		if sendErr := client.Send(MsgError, errorData{Message: "Invalid message format"}); sendErr != nil {
			logger.Log.Warn().Err(sendErr).Str("client", client.ID).Msg("send failed")
		}
		return false
	}
	return true
}
