package game

import "strings"

// Snapshot is a read-only copy of everything a renderer needs after a turn.
type Snapshot struct {
	Size    int       `json:"size"`
	Seed    uint64    `json:"seed"`
	Turn    int       `json:"turn"`
	Heading Direction `json:"heading"`
	Body    []Coord   `json:"body"`
	Food    Coord     `json:"food"`
	Alive   bool      `json:"alive"`
	Cause   Cause     `json:"cause"`
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Size:    g.size,
		Seed:    g.seed,
		Turn:    g.turns,
		Heading: g.Heading(),
		Body:    g.Body(),
		Food:    g.food,
		Alive:   !g.done,
		Cause:   g.cause,
	}
}

// Length returns the number of body cells in the snapshot.
func (s Snapshot) Length() int { return len(s.Body) }

// Clone performs a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	if len(s.Body) > 0 {
		out.Body = make([]Coord, len(s.Body))
		copy(out.Body, s.Body)
	}
	return out
}

// Cell kinds used by Grid.
const (
	CellEmpty byte = '.'
	CellFood  byte = '*'
	CellBody  byte = 'o'
	CellHead  byte = 'H'
)

// Grid lays the snapshot out as rows of cell kinds, row 0 at the top. Body
// cells that fall off the board are skipped.
func (s Snapshot) Grid() [][]byte {
	grid := make([][]byte, s.Size)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(string(CellEmpty), s.Size))
	}
	if s.Food.InBounds(s.Size) {
		grid[s.Food.Y][s.Food.X] = CellFood
	}
	for i := len(s.Body) - 1; i >= 0; i-- {
		p := s.Body[i]
		if !p.InBounds(s.Size) {
			continue
		}
		if i == 0 {
			grid[p.Y][p.X] = CellHead
		} else {
			grid[p.Y][p.X] = CellBody
		}
	}
	return grid
}

// Render draws the board as text, one line per row.
func (s Snapshot) Render() string {
	var b strings.Builder
	for _, row := range s.Grid() {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}
