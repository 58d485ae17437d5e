package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const bucketCapacity = 8

// Grid buckets particle ids by cell. It holds ids only; particle state is
// always read back from the solver's arena.
type Grid struct {
	cellSize   float64
	cols, rows int
	cells      [][]int // index = y*cols + x
}

// NewGrid creates a grid covering [0, width) × [0, height).
func NewGrid(width, height, cellSize float64) *Grid {
	g := &Grid{cellSize: cellSize}
	g.Resize(width, height)
	return g
}

// Resize reallocates the buckets for a new extent, dropping their contents.
// It is a no-op when the dimensions do not change.
func (g *Grid) Resize(width, height float64) {
	cols, rows := extent(width, g.cellSize), extent(height, g.cellSize)
	if cols == g.cols && rows == g.rows && g.cells != nil {
		return
	}

	g.cols, g.rows = cols, rows
	g.cells = make([][]int, cols*rows)
	for i := range g.cells {
		g.cells[i] = make([]int, 0, bucketCapacity)
	}
}

func extent(size, cellSize float64) int {
	n := int(math.Ceil(size / cellSize))
	if n < 1 {
		return 1
	}
	return n
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

func (g *Grid) CellSize() float64 { return g.cellSize }

// CellOf maps a world position to its (possibly out of range) cell.
func (g *Grid) CellOf(pos r2.Vec) Cell {
	return cellOf(pos, g.cellSize)
}

// Contains reports whether c lies inside the allocated extent.
func (g *Grid) Contains(c Cell) bool {
	return c.X >= 0 && c.X < g.cols && c.Y >= 0 && c.Y < g.rows
}

// Clamp moves c onto the nearest edge cell of the extent.
func (g *Grid) Clamp(c Cell) Cell {
	c.X = clampInt(c.X, 0, g.cols-1)
	c.Y = clampInt(c.Y, 0, g.rows-1)
	return c
}

// Clear empties every bucket, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert appends id to the bucket for c. Cells outside the extent are
// clamped; the returned cell is where the id landed and ok is false when
// clamping happened.
func (g *Grid) Insert(id int, c Cell) (Cell, bool) {
	ok := g.Contains(c)
	if !ok {
		c = g.Clamp(c)
	}
	idx := c.Y*g.cols + c.X
	g.cells[idx] = append(g.cells[idx], id)
	return c, ok
}

// At returns the ids stored in c, or nil outside the extent.
// The slice aliases grid storage and is only valid until the next Clear.
func (g *Grid) At(c Cell) []int {
	if !g.Contains(c) {
		return nil
	}
	return g.cells[c.Y*g.cols+c.X]
}

// Neighbors appends to dst every id in the 3×3 block centred on c, skipping
// self and any coordinate outside the extent. There is no wraparound.
func (g *Grid) Neighbors(c Cell, self int, dst []int) []int {
	for x := c.X - 1; x <= c.X+1; x++ {
		if x < 0 || x >= g.cols {
			continue
		}
		for y := c.Y - 1; y <= c.Y+1; y++ {
			if y < 0 || y >= g.rows {
				continue
			}
			for _, id := range g.cells[y*g.cols+x] {
				if id != self {
					dst = append(dst, id)
				}
			}
		}
	}
	return dst
}

// Len returns the total number of ids stored.
func (g *Grid) Len() int {
	n := 0
	for _, b := range g.cells {
		n += len(b)
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
