package nav

import (
	"container/heap"
	"math"
)

type navNeighbor struct {
	row      int
	col      int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navNeighbor{
	{row: -1, col: 0, cost: 1},
	{row: 0, col: 1, cost: 1},
	{row: 1, col: 0, cost: 1},
	{row: 0, col: -1, cost: 1},
	{row: -1, col: 1, cost: math.Sqrt2, diagonal: true},
	{row: 1, col: 1, cost: math.Sqrt2, diagonal: true},
	{row: 1, col: -1, cost: math.Sqrt2, diagonal: true},
	{row: -1, col: -1, cost: math.Sqrt2, diagonal: true},
}

const (
	// maxNodesExplored bounds one search so a degenerate request cannot
	// stall a simulation tick.
	maxNodesExplored = 2000
	// maxSubstituteNodes bounds the flood search for a walkable endpoint.
	maxSubstituteNodes = 1000
)

type pathNode struct {
	cell   Cell
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func euclid(a, b Cell) float64 {
	return math.Hypot(float64(a.Row-b.Row), float64(a.Col-b.Col))
}

// FindPath searches for a route from start to goal and returns the ordered
// cell list from start to goal inclusive. When either endpoint is blocked the
// nearest walkable cell is substituted. When the goal cannot be reached
// within the node budget the path to the closest explored cell is returned.
// The result is empty only when no walkable cell exists near start or goal.
func (g *Grid) FindPath(start, goal Cell) []Cell {
	if g == nil || !g.InBounds(start) || !g.InBounds(goal) {
		return nil
	}
	if !g.Walkable(start) {
		substitute, ok := g.ClosestWalkable(start)
		if !ok {
			return nil
		}
		start = substitute
	}
	if !g.Walkable(goal) {
		substitute, ok := g.ClosestWalkable(goal)
		if !ok {
			return nil
		}
		goal = substitute
	}
	if start == goal {
		return []Cell{start}
	}

	// Distance cap derived from the start-goal Manhattan distance, bounded
	// by a quarter of the map so huge maps stay searchable.
	manhattan := abs(start.Row-goal.Row) + abs(start.Col-goal.Col)
	distanceCap := float64(manhattan * 3)
	if cap := float64(g.rows * g.cols / 4); distanceCap > cap {
		distanceCap = cap
	}

	open := &pathQueue{}
	heap.Init(open)
	startNode := &pathNode{cell: start, g: 0, f: euclid(start, goal)}
	heap.Push(open, startNode)

	gScore := map[int]float64{g.index(start): 0}
	closed := make(map[int]struct{})

	closest := startNode
	closestDistance := euclid(start, goal)
	explored := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := g.index(current.cell)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		explored++

		if current.cell == goal {
			return reconstructPath(current)
		}

		remaining := euclid(current.cell, goal)
		if remaining < closestDistance {
			closest = current
			closestDistance = remaining
		}
		if explored > maxNodesExplored && remaining > distanceCap {
			break
		}

		for _, delta := range navNeighborOffsets {
			next := Cell{Row: current.cell.Row + delta.row, Col: current.cell.Col + delta.col}
			if !g.Walkable(next) {
				continue
			}
			if delta.diagonal && !g.canTraverseDiagonal(current.cell, delta) {
				continue
			}
			idx := g.index(next)
			if _, seen := closed[idx]; seen {
				continue
			}

			// Step cost through the current node.
			tentativeG := current.g + delta.cost
			parent := current

			// Smoothing: relink to the grandparent when it has line of
			// sight and the direct segment is strictly shorter. Ties keep
			// the step link so straight runs retain their per-cell path.
			if current.parent != nil && g.lineOfSight(current.parent.cell, next) {
				direct := current.parent.g + euclid(current.parent.cell, next)
				if direct < tentativeG {
					tentativeG = direct
					parent = current.parent
				}
			}

			if prev, ok := gScore[idx]; ok && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			heap.Push(open, &pathNode{
				cell:   next,
				g:      tentativeG,
				f:      tentativeG + euclid(next, goal),
				parent: parent,
			})
		}
	}

	// Goal unreachable within budget: best-effort path to the closest cell.
	return reconstructPath(closest)
}

// canTraverseDiagonal forbids cutting a corner whose both orthogonal cells
// are blocked.
func (g *Grid) canTraverseDiagonal(from Cell, delta navNeighbor) bool {
	horiz := Cell{Row: from.Row, Col: from.Col + delta.col}
	vert := Cell{Row: from.Row + delta.row, Col: from.Col}
	if !g.InBounds(horiz) || !g.InBounds(vert) {
		return false
	}
	if !g.Walkable(horiz) && !g.Walkable(vert) {
		return false
	}
	return true
}

// lineOfSight walks the segment between two cells and reports whether every
// traversed cell is walkable.
func (g *Grid) lineOfSight(from, to Cell) bool {
	r0, c0 := from.Row, from.Col
	r1, c1 := to.Row, to.Col
	dr := abs(r1 - r0)
	dc := abs(c1 - c0)
	stepR := sign(r1 - r0)
	stepC := sign(c1 - c0)
	errTerm := dr - dc
	for {
		if !g.Walkable(Cell{Row: r0, Col: c0}) {
			return false
		}
		if r0 == r1 && c0 == c1 {
			return true
		}
		doubled := 2 * errTerm
		if doubled > -dc {
			errTerm -= dc
			r0 += stepR
		}
		if doubled < dr {
			errTerm += dr
			c0 += stepC
		}
	}
}

// ClosestWalkable flood-searches outward from the cell, ordered by distance,
// and returns the nearest walkable cell.
func (g *Grid) ClosestWalkable(from Cell) (Cell, bool) {
	if !g.InBounds(from) {
		return Cell{}, false
	}
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{cell: from})
	visited := map[int]struct{}{g.index(from): {}}

	explored := 0
	for open.Len() > 0 && explored < maxSubstituteNodes {
		current := heap.Pop(open).(*pathNode)
		explored++
		if g.Walkable(current.cell) {
			return current.cell, true
		}
		for _, delta := range navNeighborOffsets {
			next := Cell{Row: current.cell.Row + delta.row, Col: current.cell.Col + delta.col}
			if !g.InBounds(next) {
				continue
			}
			idx := g.index(next)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			cost := current.g + delta.cost
			heap.Push(open, &pathNode{cell: next, g: cost, f: cost})
		}
	}
	return Cell{}, false
}

func reconstructPath(end *pathNode) []Cell {
	if end == nil {
		return nil
	}
	path := make([]Cell, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.cell)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
