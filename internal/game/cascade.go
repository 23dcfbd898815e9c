package game

import "errors"

// ErrCascadeOverflow is returned when a cascade fails to stabilize within
// the step budget. The grid keeps whatever configuration it reached; the
// caller decides whether to warn or abort.
var ErrCascadeOverflow = errors.New("cascade exceeded step limit")

type placement struct {
	x, y int
}

// cascadeStepLimit bounds the worklist. Atoms are conserved across an
// explosion, so a dense enough board can in principle keep re-triggering
// cells forever; the limit turns that into a deterministic stop instead of
// unbounded work. The factor is generous: normal games resolve in far
// fewer steps than one pass over the board.
func cascadeStepLimit(g Grid) int {
	return g.Width() * g.Height() * 32
}

// Place adds one atom owned by owner at (x, y) and resolves the resulting
// chain of explosions iteratively. Every explosion resets its cell to
// {0, unowned} and re-places one atom on each orthogonal neighbor with the
// same owner, converting enemy cells as it goes. The grid is mutated in
// place.
//
// Bounds and ownership of the initial placement are the caller's problem;
// cascade placements land on opponent cells on purpose.
func Place(g Grid, x, y int, owner string) error {
	queue := []placement{{x, y}}
	steps := 0
	limit := cascadeStepLimit(g)

	for len(queue) > 0 {
		if steps >= limit {
			return ErrCascadeOverflow
		}
		steps++

		p := queue[0]
		queue = queue[1:]

		cell := &g[p.x][p.y]
		cell.Owner = owner
		cell.Count++

		if cell.Count >= g.Capacity(p.x, p.y) {
			cell.Count = 0
			cell.Owner = ""
			for _, n := range g.Neighbors(p.x, p.y) {
				queue = append(queue, placement{n[0], n[1]})
			}
		}
	}
	return nil
}
