// Package spatial provides the static collision layer the simulation queries:
// vector math, collider shapes, a uniform-grid broad phase, the StaticWorld
// push-out and ray service, and a navigation field for pursuit around cover.
//
// Structures use preallocated slices with integer indices (not pointers) to
// keep GC pressure low.
package spatial

import (
	"math"
)

// SpatialGrid buckets collider indices into fixed-size cells.
//
// Optimal cell size is about the size of a typical obstacle. Colliders that
// span several cells are inserted into each of them, so query results can
// contain duplicates; callers dedupe.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64 // 1/cellSize for faster division
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = list of collider indices
	scratch     []uint32   // reusable buffer for query results
}

// NewSpatialGrid creates a grid for the given world bounds.
// maxEntries is used to preallocate cell capacity.
func NewSpatialGrid(worldWidth, worldHeight, cellSize float64, maxEntries int) *SpatialGrid {
	cols := int(math.Ceil(worldWidth / cellSize))
	rows := int(math.Ceil(worldHeight / cellSize))

	// Ensure at least 1x1 grid
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	avgPerCell := maxEntries / len(cells)
	if avgPerCell < 2 {
		avgPerCell = 2
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0] // Keep capacity, reset length
	}
}

// Insert adds an entry at a single point.
func (g *SpatialGrid) Insert(id uint32, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], id)
}

// InsertBox adds an entry to every cell overlapped by [min, max].
// Out-of-grid extents are clamped to the edge cells.
func (g *SpatialGrid) InsertBox(id uint32, min, max Vec2) {
	minCol, minRow, maxCol, maxRow := g.cellRange(min, max)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			g.cells[idx] = append(g.cells[idx], id)
		}
	}
}

// cellIndex computes the cell index for a position, with bounds checking.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col := g.clampCol(int(math.Floor(x * g.invCellSize)))
	row := g.clampRow(int(math.Floor(y * g.invCellSize)))
	return row*g.cols + col
}

func (g *SpatialGrid) cellRange(min, max Vec2) (minCol, minRow, maxCol, maxRow int) {
	minCol = g.clampCol(int(math.Floor(min.X * g.invCellSize)))
	maxCol = g.clampCol(int(math.Floor(max.X * g.invCellSize)))
	minRow = g.clampRow(int(math.Floor(min.Y * g.invCellSize)))
	maxRow = g.clampRow(int(math.Floor(max.Y * g.invCellSize)))
	return
}

func (g *SpatialGrid) clampCol(c int) int {
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) clampRow(r int) int {
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// QueryRadius returns entries potentially within radius of (cx, cy).
//
// IMPORTANT: The returned slice is reused on subsequent calls.
// Copy the results if you need to persist them.
func (g *SpatialGrid) QueryRadius(cx, cy, radius float64) []uint32 {
	return g.QueryBox(V(cx-radius, cy-radius), V(cx+radius, cy+radius))
}

// QueryBox returns entries from every cell overlapped by [min, max].
// The result may contain duplicates and is reused on the next call.
func (g *SpatialGrid) QueryBox(min, max Vec2) []uint32 {
	g.scratch = g.scratch[:0]
	minCol, minRow, maxCol, maxRow := g.cellRange(min, max)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// QueryCell returns all entries in the cell containing (x, y).
func (g *SpatialGrid) QueryCell(x, y float64) []uint32 {
	return g.cells[g.cellIndex(x, y)]
}

// Stats returns grid statistics for debugging/profiling.
func (g *SpatialGrid) Stats() GridStats {
	var total, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		count := len(cell)
		total += count
		if count > maxInCell {
			maxInCell = count
		}
		if count > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(total) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntries:   total,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntries   int
	MaxInCell      int
	AvgPerNonEmpty float64
}

// Dimensions returns the grid dimensions.
func (g *SpatialGrid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
