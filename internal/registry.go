package internal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/zefir/reakcja-go-backend/internal/db"
	"github.com/zefir/reakcja-go-backend/internal/game"
	"github.com/zefir/reakcja-go-backend/logger"
)

// Sentinel errors double as the protocol-visible messages; the dispatch
// layer forwards err.Error() to the offending client verbatim.
var (
	ErrGameNotFound        = errors.New("game does not exist")
	ErrGameNotStarted      = errors.New("game does not exist or hasn't started")
	ErrGameStarted         = errors.New("Game has already started")
	ErrGameFull            = errors.New("Game is full")
	ErrNotHost             = errors.New("Only the host can start the game")
	ErrInsufficientPlayers = errors.New("Need at least 2 players to start")
	ErrNotYourTurn         = errors.New("It's not your turn")
	ErrInvalidMove         = errors.New("Invalid move")
	ErrPlayerNotFound      = errors.New("Player not found in this game")
	ErrEmptyName           = errors.New("Name cannot be empty")
	ErrInvalidSettings     = errors.New("Invalid game settings")
)

// Registry owns every session, keyed by game code. The registry mutex
// guards the map itself; each session carries its own lock for command
// processing so two sessions never contend with each other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clients  *ClientRegistry
	store    *db.Store // nil when the match archive is disabled
}

func NewRegistry(clients *ClientRegistry, store *db.Store) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		clients:  clients,
		store:    store,
	}
}

func (r *Registry) lookup(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Create allocates a fresh session with the caller as host and first
// roster slot. Code generation retries on collision; running out of
// attempts is unexpected and surfaces as an internal error, not a user
// message.
func (r *Registry) Create(client *Client, playerName string, settings game.Settings) (*Session, *game.Player, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, nil, ErrEmptyName
	}
	if settings.Width < 2 || settings.Height < 2 ||
		settings.MaxPlayers < 2 || settings.MaxPlayers > len(colorPalette) {
		return nil, nil, ErrInvalidSettings
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= codeMaxAttempts {
			return nil, nil, ErrCodeSpaceExhausted
		}
		c, err := generateCode()
		if err != nil {
			return nil, nil, err
		}
		if _, taken := r.sessions[c]; !taken {
			code = c
			break
		}
		logger.Log.Debug().Str("code", c).Msg("game code collision, regenerating")
	}

	host := &game.Player{
		ID:     client.ID,
		Name:   playerName,
		Color:  colorPalette[0],
		Order:  0,
		IsHost: true,
	}
	sess := &Session{
		Code:     code,
		Players:  []*game.Player{host},
		Settings: settings,
	}
	r.sessions[code] = sess
	client.GameCode = code

	logger.Log.Info().Str("code", code).Str("host", client.ID).Msg("game created")
	return sess, host, nil
}

// Join appends the caller to a lobby-stage session and tells everyone
// already in it about the new roster.
func (r *Registry) Join(client *Client, code, playerName string) (*game.Player, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, ErrEmptyName
	}
	sess, ok := r.lookup(code)
	if !ok {
		return nil, ErrGameNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, ErrGameNotFound
	}
	if sess.Started {
		return nil, ErrGameStarted
	}
	if len(sess.Players) >= sess.Settings.MaxPlayers {
		return nil, ErrGameFull
	}

	p := &game.Player{
		ID:    client.ID,
		Name:  playerName,
		Color: colorPalette[len(sess.Players)],
		Order: len(sess.Players),
	}
	sess.Players = append(sess.Players, p)
	client.GameCode = code

	r.broadcastLobbyLocked(sess)

	logger.Log.Info().Str("code", code).Str("player", client.ID).Msg("player joined")
	return p, nil
}

// SendLobby replies with the requester's personalized lobby view.
func (r *Registry) SendLobby(client *Client, code string) error {
	sess, ok := r.lookup(code)
	if !ok {
		return ErrGameNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return ErrGameNotFound
	}
	p := sess.playerByID(client.ID)
	r.clients.send(client.ID, MsgLobbyUpdate, lobbyData{
		Players:  sess.Players,
		IsHost:   p != nil && p.IsHost,
		Settings: sess.Settings,
	})
	return nil
}

// Start flips the session into the running state: initial grid, first
// player by join order to move. Every participant gets a game-started
// notice followed by the opening state broadcast.
func (r *Registry) Start(client *Client, code string) error {
	sess, ok := r.lookup(code)
	if !ok {
		return ErrGameNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return ErrGameNotFound
	}
	p := sess.playerByID(client.ID)
	if p == nil || !p.IsHost {
		return ErrNotHost
	}
	if len(sess.Players) < 2 {
		return ErrInsufficientPlayers
	}
	if sess.Started {
		return ErrGameStarted
	}

	sess.Started = true
	sess.State = game.NewState(sess.Settings, sess.Players)

	logger.Log.Info().Str("code", code).Int("players", len(sess.Players)).Msg("game started")

	r.notifyAllLocked(sess, MsgGameStarted, gameStartedData{GameCode: code})
	r.broadcastStateLocked(sess)
	return nil
}

// SendState replies with the requester's personalized view of the running
// game.
func (r *Registry) SendState(client *Client, code string) error {
	sess, ok := r.lookup(code)
	if !ok {
		return ErrGameNotStarted
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed || !sess.Started || sess.State == nil {
		return ErrGameNotStarted
	}
	r.clients.send(client.ID, MsgGameState, stateView{
		State:    sess.State,
		IsMyTurn: sess.State.CurrentPlayer.ID == client.ID,
	})
	return nil
}

// Move validates turn ownership and cell legality, runs the engine, and
// broadcasts the resulting state. A finished game is archived and accepts
// no further moves.
func (r *Registry) Move(client *Client, code string, x, y int) error {
	sess, ok := r.lookup(code)
	if !ok {
		return ErrGameNotStarted
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed || !sess.Started || sess.State == nil {
		return ErrGameNotStarted
	}
	st := sess.State
	if st.GameOver {
		return ErrGameNotStarted
	}
	if st.CurrentPlayer.ID != client.ID {
		return ErrNotYourTurn
	}
	if !st.ValidMove(x, y, client.ID) {
		return ErrInvalidMove
	}

	if err := st.ProcessMove(x, y); err != nil {
		// Bounded cascade gave up; the move is committed with whatever
		// the grid reached.
		logger.Log.Warn().Err(err).Str("code", code).Int("x", x).Int("y", y).Msg("cascade truncated")
	}

	logger.Log.Debug().Str("code", code).Str("player", client.ID).
		Int("x", x).Int("y", y).Int("move", st.MoveCount).Msg("move applied")

	r.broadcastStateLocked(sess)

	if st.GameOver {
		logger.Log.Info().Str("code", code).Str("winner", st.Winner.ID).Msg("game over")
		r.archiveLocked(sess)
	}
	return nil
}

// Leave removes the player from the session. Hosts hand off to the lowest
// remaining slot, empty sessions are deleted, and quitting a running game
// wipes the player's atoms from the board before the remaining players are
// told. Lookup misses are silently dropped: leaving twice is not an error.
func (r *Registry) Leave(client *Client, code string, isActiveGame bool) {
	r.mu.Lock()
	sess, ok := r.sessions[code]
	if !ok {
		r.mu.Unlock()
		return
	}

	sess.mu.Lock()
	idx := sess.playerIndex(client.ID)
	if idx == -1 {
		sess.mu.Unlock()
		r.mu.Unlock()
		logger.Log.Warn().Str("code", code).Str("player", client.ID).Msg("leave from player not in session")
		return
	}

	wasHost := sess.Players[idx].IsHost
	sess.Players = append(sess.Players[:idx], sess.Players[idx+1:]...)
	if wasHost && len(sess.Players) > 0 {
		sess.Players[0].IsHost = true
	}

	if len(sess.Players) == 0 {
		sess.closed = true
		delete(r.sessions, code)
		sess.mu.Unlock()
		r.mu.Unlock()
		client.GameCode = ""
		logger.Log.Info().Str("code", code).Msg("game deleted, last player left")
		return
	}
	r.mu.Unlock()

	if isActiveGame && sess.Started && sess.State != nil && len(sess.Players) > 1 {
		sess.State.RemovePlayer(client.ID)
		r.broadcastStateLocked(sess)
	} else if !sess.Started {
		r.broadcastLobbyLocked(sess)
	}
	sess.mu.Unlock()

	client.GameCode = ""
	logger.Log.Info().Str("code", code).Str("player", client.ID).Msg("player left")
}

// UpdateName renames the player and pushes the new roster to everyone.
func (r *Registry) UpdateName(client *Client, code, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	sess, ok := r.lookup(code)
	if !ok {
		return ErrGameNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return ErrGameNotFound
	}
	p := sess.playerByID(client.ID)
	if p == nil {
		return ErrPlayerNotFound
	}

	p.Name = name
	r.broadcastLobbyLocked(sess)
	return nil
}

// archiveLocked records a finished game, fire-and-forget. Caller holds the
// session lock, so all fields are copied out before the goroutine runs.
func (r *Registry) archiveLocked(sess *Session) {
	if r.store == nil {
		return
	}
	rec := db.FinishedGame{
		Code:        sess.Code,
		WinnerID:    sess.State.Winner.ID,
		WinnerName:  sess.State.Winner.Name,
		MoveCount:   sess.State.MoveCount,
		PlayerCount: len(sess.State.Players),
		GridWidth:   sess.Settings.Width,
		GridHeight:  sess.Settings.Height,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.SaveFinishedGame(ctx, rec); err != nil {
			logger.Log.Error().Err(err).Str("code", rec.Code).Msg("failed to archive finished game")
		}
	}()
}
