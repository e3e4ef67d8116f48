package rules

import (
	"github.com/brensch/snek/game"
)

// Reward values for a single turn.
const (
	RewardDeath     = -1.0
	RewardFood      = 1.0
	RewardBoardFull = 1.0
	RewardCloser    = 0.5
	RewardFarther   = -0.3
)

// SafeDirections returns the moves that keep the snake alive for one more
// turn. The reverse of the current heading is never listed since the game
// treats it as a request to keep going straight.
func SafeDirections(g *game.Game) []game.Direction {
	if !g.Alive() {
		return nil
	}
	back := g.Heading().Opposite()
	moves := make([]game.Direction, 0, 3)
	for _, d := range game.Moves {
		if d == back {
			continue
		}
		if _, ok := g.Project(d); ok {
			moves = append(moves, d)
		}
	}
	return moves
}

// IsSafe reports whether turning in dir would survive this step.
func IsSafe(g *game.Game, dir game.Direction) bool {
	if !g.Alive() {
		return false
	}
	_, ok := g.Project(dir)
	return ok
}

// IsTerminal is true once the game has ended or every move from here dies.
func IsTerminal(g *game.Game) bool {
	return !g.Alive() || len(SafeDirections(g)) == 0
}

// Reward scores the transition from before to the current state of g, where
// out is what Turn returned. Dying costs RewardDeath, eating or filling the
// board pays out, and otherwise the snake is nudged toward the food.
func Reward(before game.Snapshot, g *game.Game, out game.Outcome) float64 {
	if out == game.Terminated {
		if g.Cause() == game.CauseBoardFull {
			return RewardBoardFull
		}
		return RewardDeath
	}
	if g.Length() > before.Length() {
		return RewardFood
	}
	if len(before.Body) == 0 {
		return 0
	}

	was := before.Body[0].Manhattan(before.Food)
	now := g.Head().Manhattan(g.Food())
	switch {
	case now < was:
		return RewardCloser
	case now > was:
		return RewardFarther
	}
	return 0
}

// Result is the final score of a finished game: +1 for filling the board and
// -1 for any other death. It is 0 while the game is running.
func Result(g *game.Game) float32 {
	switch {
	case g.Alive():
		return 0
	case g.Cause() == game.CauseBoardFull:
		return 1
	default:
		return -1
	}
}
