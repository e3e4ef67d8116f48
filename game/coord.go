package game

import (
	"fmt"
	"log/slog"
)

// Coord is a board cell. (0,0) is the top-left corner; X grows to the right
// and Y grows downward.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether c lies on a board of side n.
func (c Coord) InBounds(n int) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < n && c.Y < n
}

// Step returns the neighbouring cell in direction d. Center returns c.
// The result is not bounds checked.
func (c Coord) Step(d Direction) Coord {
	switch d {
	case Up:
		return Coord{X: c.X, Y: c.Y - 1}
	case Down:
		return Coord{X: c.X, Y: c.Y + 1}
	case Left:
		return Coord{X: c.X - 1, Y: c.Y}
	case Right:
		return Coord{X: c.X + 1, Y: c.Y}
	default:
		return c
	}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

func (c Coord) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Manhattan returns the grid distance between c and o.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}
