package game

// ValidMove reports whether playerID may place an atom at (x, y): the
// position must be on the board and the cell unowned or already theirs.
func (s *State) ValidMove(x, y int, playerID string) bool {
	if !s.Grid.InBounds(x, y) {
		return false
	}
	cell := s.Grid[x][y]
	return cell.Owner == "" || cell.Owner == playerID
}

// eliminationGateOpen reports whether elimination and win checks apply.
// Every player starts with zero cells, so nobody may be eliminated before
// the whole roster has had at least one move.
func (s *State) eliminationGateOpen() bool {
	return s.MoveCount > len(s.Players)
}

// ProcessMove applies the current player's placement at (x, y) and drives
// the turn state machine: cascade, cell recount, eliminations, win check,
// next-player selection. Call ValidMove (and the caller's turn-ownership
// check) first; ProcessMove assumes the move is legal.
//
// The only possible error is ErrCascadeOverflow, and the move is committed
// regardless: the grid keeps the configuration the bounded cascade reached.
func (s *State) ProcessMove(x, y int) error {
	mover := s.CurrentPlayer

	s.MoveCount++
	cascadeErr := Place(s.Grid, x, y, mover.ID)
	s.RecountCells()

	if s.eliminationGateOpen() {
		for _, p := range s.Players {
			if p.IsEliminated || p.CellCount > 0 {
				continue
			}
			p.IsEliminated = true
			s.appendEliminated(p.ID)
		}

		var remaining []*Player
		for _, p := range s.Players {
			if !p.IsEliminated && p.CellCount > 0 {
				remaining = append(remaining, p)
			}
		}
		if len(remaining) == 1 {
			s.GameOver = true
			s.Winner = remaining[0]
			return cascadeErr
		}
	}

	s.advanceTurn(mover)
	return cascadeErr
}

// advanceTurn scans cyclically from the player after mover for the next
// eligible player. Eliminated players are always skipped; once the
// elimination gate is open, players with zero cells are skipped too. A
// full cycle with no candidate while the gate is open means everyone else
// dropped out at once: the game ends and the first player in join order
// who still holds cells wins.
func (s *State) advanceTurn(mover *Player) {
	idx := s.playerIndex(mover.ID)
	n := len(s.Players)
	gate := s.eliminationGateOpen()

	for step := 1; step < n; step++ {
		cand := s.Players[(idx+step)%n]
		if cand.IsEliminated {
			continue
		}
		if gate && cand.CellCount == 0 {
			continue
		}
		s.CurrentPlayer = cand
		return
	}

	if gate {
		for _, p := range s.Players {
			if p.CellCount > 0 {
				s.GameOver = true
				s.Winner = p
				return
			}
		}
	}
	// Pre-gate there is nobody else to hand the turn to; keep the mover.
}

func (s *State) appendEliminated(id string) {
	for _, known := range s.EliminatedPlayers {
		if known == id {
			return
		}
	}
	s.EliminatedPlayers = append(s.EliminatedPlayers, id)
}
