package game

import (
	"fmt"
	"strings"
)

// Direction is a requested move. Center means "no new input" and keeps the
// snake travelling along its current heading.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
	Center
)

var directionNames = [...]string{"up", "down", "left", "right", "center"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Opposite returns the reverse of d. Center is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// Valid reports whether d is one of the five defined directions.
func (d Direction) Valid() bool {
	return d <= Center
}

// ParseDirection accepts the names printed by String plus the single letters
// u/d/l/r/c.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "center", "c", "":
		return Center, nil
	}
	return Center, fmt.Errorf("unknown direction %q", s)
}

// Moves lists the four directions a snake can travel in.
var Moves = [4]Direction{Up, Down, Left, Right}

// Heading is the snake's direction of travel. It can only ever hold Up, Down,
// Left or Right; the zero value is Up.
type Heading struct {
	dir Direction
}

var (
	HeadingUp    = Heading{dir: Up}
	HeadingDown  = Heading{dir: Down}
	HeadingLeft  = Heading{dir: Left}
	HeadingRight = Heading{dir: Right}
)

// HeadingOf converts d into a heading. ok is false for Center and for
// undefined values.
func HeadingOf(d Direction) (h Heading, ok bool) {
	switch d {
	case Up, Down, Left, Right:
		return Heading{dir: d}, true
	}
	return Heading{}, false
}

func (h Heading) Direction() Direction { return h.dir }

func (h Heading) String() string { return h.dir.String() }

// Resolve applies a requested direction to the heading. Reversals and Center
// keep the current heading; orthogonal requests replace it.
func (h Heading) Resolve(req Direction) Heading {
	next, ok := HeadingOf(req)
	if !ok || req == h.dir.Opposite() {
		return h
	}
	return next
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
