package internal

import (
	"sync"

	"github.com/zefir/reakcja-go-backend/internal/game"
)

// colorPalette is assigned by join position; the palette size caps how
// many players a game can hold. Clients render these directly.
var colorPalette = []string{
	"#FF5252", // red
	"#2196F3", // blue
	"#4CAF50", // green
	"#FFC107", // yellow
	"#9C27B0", // purple
	"#FF9800", // orange
	"#00BCD4", // cyan
	"#795548", // brown
}

// Session is one lobby-stage or running game, identified by its code.
// All command processing against a session happens under mu, so commands
// on the same code never interleave while different sessions run in
// parallel.
type Session struct {
	Code     string
	Players  []*game.Player
	Settings game.Settings
	Started  bool
	State    *game.State

	mu     sync.Mutex
	closed bool // set when the registry drops the session
}

// playerByID returns the roster entry for id, nil when absent.
// Caller holds mu.
func (s *Session) playerByID(id string) *game.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) playerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
