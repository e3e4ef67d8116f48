package game

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
)

// ErrBadSnapshot is returned by Restore for snapshots that do not describe a
// reachable position.
var ErrBadSnapshot = errors.New("invalid snapshot")

// Restore rebuilds a game from a snapshot. The body, heading, food, turn count
// and end state are taken as is; the random source restarts from the
// snapshot's seed, so food placed after a restore differs from the game the
// snapshot was taken from.
func Restore(s Snapshot) (*Game, error) {
	if s.Size < MinSize {
		return nil, fmt.Errorf("%w: size %d", ErrBadSnapshot, s.Size)
	}
	heading, ok := HeadingOf(s.Heading)
	if !ok {
		return nil, fmt.Errorf("%w: heading %s", ErrBadSnapshot, s.Heading)
	}
	if len(s.Body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrBadSnapshot)
	}

	src := &rand.PCGSource{}
	src.Seed(s.Seed)
	g := &Game{
		size:    s.Size,
		seed:    s.Seed,
		free:    NewFreeCells(s.Size),
		heading: heading,
		food:    s.Food,
		src:     src,
		rng:     rand.New(src),
		turns:   s.Turn,
		cause:   s.Cause,
		done:    !s.Alive,
	}

	for i, c := range s.Body {
		if !g.free.Remove(c) {
			return nil, fmt.Errorf("%w: body cell %s off board or repeated", ErrBadSnapshot, c)
		}
		if i > 0 && c.Manhattan(s.Body[i-1]) != 1 {
			return nil, fmt.Errorf("%w: body cell %s not adjacent to %s", ErrBadSnapshot, c, s.Body[i-1])
		}
		g.body.PushBack(c)
	}

	if g.free.Len() > 0 && !g.free.Contains(s.Food) {
		return nil, fmt.Errorf("%w: food %s not on a free cell", ErrBadSnapshot, s.Food)
	}
	if s.Alive && s.Cause != CauseNone {
		return nil, fmt.Errorf("%w: live game with cause %s", ErrBadSnapshot, s.Cause)
	}
	return g, nil
}
