package game

type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Order        int    `json:"order"`
	IsHost       bool   `json:"isHost"`
	CellCount    int    `json:"cellCount"`
	IsEliminated bool   `json:"isEliminated"`
}

// Settings are immutable once a game starts.
type Settings struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	MaxPlayers int `json:"maxPlayers"`
}

// State is the authoritative game state of one session. It is owned by
// exactly one session and mutated in place under that session's lock.
type State struct {
	Grid              Grid      `json:"grid"`
	Players           []*Player `json:"players"`
	CurrentPlayer     *Player   `json:"currentPlayer"`
	Settings          Settings  `json:"settings"`
	GameOver          bool      `json:"gameOver"`
	Winner            *Player   `json:"winner"`
	MoveCount         int       `json:"moveCount"`
	EliminatedPlayers []string  `json:"eliminatedPlayers"`
}

// NewState builds the initial state: empty grid, first player (by join
// order) to move, everyone alive with zero cells.
func NewState(settings Settings, players []*Player) *State {
	roster := make([]*Player, len(players))
	copy(roster, players)
	for _, p := range roster {
		p.CellCount = 0
		p.IsEliminated = false
	}

	return &State{
		Grid:              NewGrid(settings.Width, settings.Height),
		Players:           roster,
		CurrentPlayer:     roster[0],
		Settings:          settings,
		MoveCount:         0,
		EliminatedPlayers: []string{},
	}
}

// RecountCells rebuilds every player's CellCount from the grid. A cell
// counts toward its owner only while it actually holds atoms.
func (s *State) RecountCells() {
	for _, p := range s.Players {
		p.CellCount = 0
	}
	for x := range s.Grid {
		for y := range s.Grid[x] {
			cell := s.Grid[x][y]
			if cell.Owner == "" || cell.Count == 0 {
				continue
			}
			if p := s.playerByID(cell.Owner); p != nil {
				p.CellCount++
			}
		}
	}
}

func (s *State) playerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *State) playerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// RemovePlayer handles a player quitting a running game: their cells are
// wiped from the board (atoms leave play, the one deliberate break of atom
// conservation), they are dropped from the roster, and if it was their
// turn the next player by position takes over. No-op if the id is not in
// the roster.
func (s *State) RemovePlayer(playerID string) {
	idx := s.playerIndex(playerID)
	if idx == -1 {
		return
	}

	for x := range s.Grid {
		for y := range s.Grid[x] {
			if s.Grid[x][y].Owner == playerID {
				s.Grid[x][y] = Cell{}
			}
		}
	}

	wasCurrent := s.CurrentPlayer != nil && s.CurrentPlayer.ID == playerID
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)

	for i, id := range s.EliminatedPlayers {
		if id == playerID {
			s.EliminatedPlayers = append(s.EliminatedPlayers[:i], s.EliminatedPlayers[i+1:]...)
			break
		}
	}

	if wasCurrent && len(s.Players) > 0 {
		s.CurrentPlayer = s.Players[idx%len(s.Players)]
	}

	s.RecountCells()
}
