package game

// Cell holds the atoms placed on one grid square. An empty Owner means the
// cell belongs to nobody; Count == 0 implies Owner == "" once a move has
// fully resolved (mid-cascade the pair can be temporarily inconsistent).
type Cell struct {
	Count int    `json:"count"`
	Owner string `json:"player"`
}

// Grid is indexed [x][y]. Dimensions are fixed at creation.
type Grid [][]Cell

func NewGrid(width, height int) Grid {
	g := make(Grid, width)
	for x := range g {
		g[x] = make([]Cell, height)
	}
	return g
}

func (g Grid) Width() int {
	return len(g)
}

func (g Grid) Height() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width() && y >= 0 && y < g.Height()
}

// Neighbors returns the in-bounds orthogonal neighbors of (x, y).
func (g Grid) Neighbors(x, y int) [][2]int {
	adj := make([][2]int, 0, 4)
	if y > 0 {
		adj = append(adj, [2]int{x, y - 1})
	}
	if y < g.Height()-1 {
		adj = append(adj, [2]int{x, y + 1})
	}
	if x > 0 {
		adj = append(adj, [2]int{x - 1, y})
	}
	if x < g.Width()-1 {
		adj = append(adj, [2]int{x + 1, y})
	}
	return adj
}

// Capacity is the number of atoms a cell holds before exploding: equal to
// its orthogonal neighbor count, so 2 in a corner, 3 on an edge and 4 in
// the interior. An explosion therefore hands exactly one atom to every
// neighbor and the board total is conserved.
func (g Grid) Capacity(x, y int) int {
	return len(g.Neighbors(x, y))
}

// TotalAtoms sums Count over the whole grid.
func (g Grid) TotalAtoms() int {
	total := 0
	for x := range g {
		for y := range g[x] {
			total += g[x][y].Count
		}
	}
	return total
}
