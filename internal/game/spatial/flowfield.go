package spatial

import (
	"math"
)

// FlowField provides O(1) per-agent navigation via a precomputed vector field.
// Instead of pathfinding per enemy, one field toward the player is shared by
// every pursuer whose direct line is blocked.
//
// Origin: Treuille, Cooper, Popović. "Continuum Crowds." SIGGRAPH 2006.
type FlowField struct {
	cols, rows  int
	cellSize    float64
	invCellSize float64
	integration []float32 // Cost to reach goal from each cell
	flowX       []float32 // X component of flow direction
	flowY       []float32 // Y component of flow direction
	blocked     []bool    // Impassable cells
	queue       []int     // Reusable BFS queue
	goal        int       // Goal cell of the last Generate, -1 before
}

// NewFlowField creates a flow field for the given world size.
func NewFlowField(worldWidth, worldHeight, cellSize float64) *FlowField {
	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldHeight / cellSize))

	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	size := cols * rows

	return &FlowField{
		cols:        cols,
		rows:        rows,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		integration: make([]float32, size),
		flowX:       make([]float32, size),
		flowY:       make([]float32, size),
		blocked:     make([]bool, size),
		queue:       make([]int, 0, size),
		goal:        -1,
	}
}

// MarkBlocked flags every cell whose center cannot hold an agent of the
// given radius. Call once per geometry change, before Generate.
func (f *FlowField) MarkBlocked(c Collider, agentRadius float64) {
	for idx := range f.blocked {
		_, hit := c.PushOut(f.cellCenter(idx), agentRadius)
		f.blocked[idx] = hit
	}
	f.goal = -1
}

// Cell returns the cell index containing p, clamped to the grid.
func (f *FlowField) Cell(p Vec2) int {
	col := int(math.Floor(p.X * f.invCellSize))
	row := int(math.Floor(p.Y * f.invCellSize))
	if col < 0 {
		col = 0
	}
	if col >= f.cols {
		col = f.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= f.rows {
		row = f.rows - 1
	}
	return row*f.cols + col
}

// Goal returns the goal cell of the current field, or -1.
func (f *FlowField) Goal() int { return f.goal }

func (f *FlowField) cellCenter(idx int) Vec2 {
	row, col := idx/f.cols, idx%f.cols
	return V((float64(col)+0.5)*f.cellSize, (float64(row)+0.5)*f.cellSize)
}

// Direction offsets: 8-way connectivity, √2 cost for diagonals.
var (
	flowDX   = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	flowDY   = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
	flowCost = [8]float32{1.41421356, 1.0, 1.41421356, 1.0, 1.0, 1.41421356, 1.0, 1.41421356}
)

// Generate computes the field toward goal: BFS/Dijkstra-lite integration
// followed by steepest descent per cell.
//
// Time complexity: O(cols × rows)
func (f *FlowField) Generate(goal Vec2) {
	maxCost := float32(math.MaxFloat32)
	for i := range f.integration {
		f.integration[i] = maxCost
	}

	goalIdx := f.Cell(goal)
	f.goal = goalIdx

	// A goal inside cover still seeds the search so neighbours get costs.
	f.integration[goalIdx] = 0
	f.queue = append(f.queue[:0], goalIdx)

	head := 0
	for head < len(f.queue) {
		current := f.queue[head]
		head++

		row, col := current/f.cols, current%f.cols
		currentCost := f.integration[current]

		for i := 0; i < 8; i++ {
			nc, nr := col+flowDX[i], row+flowDY[i]
			if nc < 0 || nc >= f.cols || nr < 0 || nr >= f.rows {
				continue
			}
			nidx := nr*f.cols + nc
			if f.blocked[nidx] {
				continue
			}
			// No corner cutting past blocked orthogonal cells.
			if flowDX[i] != 0 && flowDY[i] != 0 &&
				(f.blocked[row*f.cols+nc] || f.blocked[nr*f.cols+col]) {
				continue
			}

			newCost := currentCost + flowCost[i]
			if newCost < f.integration[nidx] {
				f.integration[nidx] = newCost
				f.queue = append(f.queue, nidx)
			}
		}
	}

	for idx := range f.integration {
		f.flowX[idx], f.flowY[idx] = 0, 0
		if f.integration[idx] == maxCost {
			continue
		}

		row, col := idx/f.cols, idx%f.cols
		bestDX, bestDY := 0, 0
		bestCost := f.integration[idx]

		for i := 0; i < 8; i++ {
			nc, nr := col+flowDX[i], row+flowDY[i]
			if nc < 0 || nc >= f.cols || nr < 0 || nr >= f.rows {
				continue
			}
			if c := f.integration[nr*f.cols+nc]; c < bestCost {
				bestCost = c
				bestDX, bestDY = flowDX[i], flowDY[i]
			}
		}

		if bestDX != 0 || bestDY != 0 {
			d := V(float64(bestDX), float64(bestDY)).Norm()
			f.flowX[idx], f.flowY[idx] = float32(d.X), float32(d.Y)
		}
	}
}

// Lookup returns the flow direction at p, or the zero vector when the cell
// is unreachable or is the goal.
func (f *FlowField) Lookup(p Vec2) Vec2 {
	idx := f.Cell(p)
	return V(float64(f.flowX[idx]), float64(f.flowY[idx]))
}

// Cost returns the integration cost at p (MaxFloat32 if unreachable).
func (f *FlowField) Cost(p Vec2) float32 {
	return f.integration[f.Cell(p)]
}

// Dimensions returns the grid dimensions.
func (f *FlowField) Dimensions() (cols, rows int, cellSize float64) {
	return f.cols, f.rows, f.cellSize
}
