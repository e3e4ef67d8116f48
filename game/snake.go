// Package game is the state engine of a single-player grid snake game.
//
// A Game owns the snake body, the set of free cells, the food and a seeded
// random source. Callers drive it with Turn and read it through the query
// methods and the sensor functions; rendering, input and pacing all live
// outside this package. A Game is not safe for concurrent use, but separate
// games share nothing and can run in parallel.
package game

import (
	"errors"
	"fmt"

	"github.com/gammazero/deque"
	"golang.org/x/exp/rand"
)

// ErrBoardTooSmall is the panic value New raises for boards that cannot hold
// the starting snake.
var ErrBoardTooSmall = errors.New("board size must be at least 2")

// MinSize is the smallest board that fits the two-cell starting snake.
const MinSize = 2

// Game is a single snake game.
type Game struct {
	size    int
	seed    uint64
	body    deque.Deque[Coord]
	free    *FreeCells
	heading Heading
	food    Coord
	src     *rand.PCGSource
	rng     *rand.Rand
	turns   int
	cause   Cause
	done    bool
}

// New starts a game on a size×size board. The snake is two cells long, sits on
// row size/2-1 with its head at column size/2, and heads right. Food placement
// is driven by seed, so equal seeds and inputs give equal games.
//
// New panics if size is below MinSize.
func New(seed uint64, size int) *Game {
	if size < MinSize {
		panic(fmt.Errorf("%w: got %d", ErrBoardTooSmall, size))
	}

	src := &rand.PCGSource{}
	src.Seed(seed)

	g := &Game{
		size:    size,
		seed:    seed,
		free:    NewFreeCells(size),
		heading: HeadingRight,
		src:     src,
		rng:     rand.New(src),
	}

	mid := size / 2
	for _, c := range []Coord{{X: mid, Y: mid - 1}, {X: mid - 1, Y: mid - 1}} {
		g.body.PushBack(c)
		g.free.Remove(c)
	}

	// A 2x2 board leaves two free cells, so the first placement cannot fail.
	g.placeFood()
	return g
}

// Turn advances the game by one step in the requested direction and reports
// whether the snake is still alive.
//
// A request for the reverse of the current heading, or Center, keeps the
// current heading. Hitting a wall, hitting the body (including the tail cell,
// which is only vacated after the check) or filling the board ends the game.
// Once a game has terminated, Turn does nothing and keeps returning
// Terminated.
func (g *Game) Turn(dir Direction) Outcome {
	if g.done {
		return Terminated
	}
	g.turns++

	g.heading = g.heading.Resolve(dir)

	next := g.Head().Step(g.heading.Direction())
	if !next.InBounds(g.size) {
		return g.terminate(CauseWall)
	}
	if !g.free.Contains(next) {
		return g.terminate(CauseSelf)
	}

	g.body.PushFront(next)
	g.free.Remove(next)

	if next == g.food {
		if !g.placeFood() {
			return g.terminate(CauseBoardFull)
		}
		return Continues
	}

	g.free.Insert(g.body.PopBack())
	return Continues
}

func (g *Game) terminate(c Cause) Outcome {
	g.done = true
	g.cause = c
	return Terminated
}

// Size returns the board side length.
func (g *Game) Size() int { return g.size }

// Seed returns the seed the game was created with.
func (g *Game) Seed() uint64 { return g.seed }

// Length returns the number of body cells.
func (g *Game) Length() int { return g.body.Len() }

// Heading returns the current direction of travel. It is never Center.
func (g *Game) Heading() Direction { return g.heading.Direction() }

// Head returns the first body cell.
func (g *Game) Head() Coord { return g.body.Front() }

// Food returns the current food cell.
func (g *Game) Food() Coord { return g.food }

// Turns returns how many Turn calls have been applied, including the one that
// ended the game.
func (g *Game) Turns() int { return g.turns }

// Alive reports whether the game is still running.
func (g *Game) Alive() bool { return !g.done }

// Cause returns why the game ended, or CauseNone while it is running.
func (g *Game) Cause() Cause { return g.cause }

// Body returns a copy of the body, head first.
func (g *Game) Body() []Coord {
	out := make([]Coord, g.body.Len())
	for i := range out {
		out[i] = g.body.At(i)
	}
	return out
}

// Occupied reports whether c is covered by the snake. Off-board cells are not
// occupied.
func (g *Game) Occupied(c Coord) bool {
	return c.InBounds(g.size) && !g.free.Contains(c)
}

// FreeCount returns the number of cells not covered by the snake.
func (g *Game) FreeCount() int { return g.free.Len() }

// Project returns the cell the head would move to if Turn(dir) were called
// now, and whether that move would be survivable this step. It does not
// change the game.
func (g *Game) Project(dir Direction) (Coord, bool) {
	next := g.Head().Step(g.heading.Resolve(dir).Direction())
	return next, g.free.Contains(next)
}

// Clone returns an independent copy of the game, including the random
// source, so the copy places food exactly as the original would.
func (g *Game) Clone() *Game {
	src := *g.src
	out := &Game{
		size:    g.size,
		seed:    g.seed,
		free:    g.free.clone(),
		heading: g.heading,
		food:    g.food,
		src:     &src,
		turns:   g.turns,
		cause:   g.cause,
		done:    g.done,
	}
	out.rng = rand.New(out.src)
	for i := 0; i < g.body.Len(); i++ {
		out.body.PushBack(g.body.At(i))
	}
	return out
}
