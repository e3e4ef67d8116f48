package game

import "errors"

// ErrBoardFull is returned by FreeCells.Pick when no cell is unoccupied.
var ErrBoardFull = errors.New("board full")

// Intner is the slice of a random source the free-cell index needs.
// *rand.Rand from golang.org/x/exp/rand and math/rand both satisfy it.
type Intner interface {
	Intn(n int) int
}

// FreeCells is the set of board cells not covered by the snake.
//
// Cells live in a dense slice so a uniform pick is a single index draw, and
// pos maps every board cell to its slot in that slice (-1 when absent), which
// keeps Contains, Insert and Remove O(1). Remove swaps the last cell into the
// vacated slot; the resulting order depends only on the sequence of
// operations, so seeded games stay reproducible.
type FreeCells struct {
	size  int
	cells []Coord
	pos   []int32
}

// NewFreeCells returns the full board of side n in row-major order.
func NewFreeCells(n int) *FreeCells {
	f := &FreeCells{
		size:  n,
		cells: make([]Coord, 0, n*n),
		pos:   make([]int32, n*n),
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			f.pos[y*n+x] = int32(len(f.cells))
			f.cells = append(f.cells, Coord{X: x, Y: y})
		}
	}
	return f
}

func (f *FreeCells) key(c Coord) int {
	return c.Y*f.size + c.X
}

// Len returns the number of free cells.
func (f *FreeCells) Len() int {
	return len(f.cells)
}

// Contains reports whether c is on the board and unoccupied.
func (f *FreeCells) Contains(c Coord) bool {
	if !c.InBounds(f.size) {
		return false
	}
	return f.pos[f.key(c)] >= 0
}

// Remove marks c as occupied. It returns false, and does nothing, when c was
// not free.
func (f *FreeCells) Remove(c Coord) bool {
	if !f.Contains(c) {
		return false
	}
	k := f.key(c)
	i := f.pos[k]
	last := len(f.cells) - 1
	moved := f.cells[last]
	f.cells[i] = moved
	f.pos[f.key(moved)] = i
	f.cells = f.cells[:last]
	f.pos[k] = -1
	return true
}

// Insert marks c as free again. It returns false, and does nothing, when c is
// off the board or already free.
func (f *FreeCells) Insert(c Coord) bool {
	if !c.InBounds(f.size) || f.pos[f.key(c)] >= 0 {
		return false
	}
	f.pos[f.key(c)] = int32(len(f.cells))
	f.cells = append(f.cells, c)
	return true
}

// Pick returns a uniformly chosen free cell without removing it.
func (f *FreeCells) Pick(rng Intner) (Coord, error) {
	if len(f.cells) == 0 {
		return Coord{}, ErrBoardFull
	}
	return f.cells[rng.Intn(len(f.cells))], nil
}

func (f *FreeCells) clone() *FreeCells {
	out := &FreeCells{
		size:  f.size,
		cells: make([]Coord, len(f.cells), cap(f.cells)),
		pos:   make([]int32, len(f.pos)),
	}
	copy(out.cells, f.cells)
	copy(out.pos, f.pos)
	return out
}
