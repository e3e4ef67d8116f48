package policy

import (
	"context"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/rules"
)

// rayOf maps a move onto the sensor ray that looks the same way.
var rayOf = [...]game.Ray{
	game.Up:    game.RayUp,
	game.Down:  game.RayDown,
	game.Left:  game.RayLeft,
	game.Right: game.RayRight,
}

// Greedy heads for the food along safe moves. Among moves that bring the
// head equally close it prefers the one with the most open space ahead, as
// read from the body sensor.
type Greedy struct{}

func (Greedy) Name() string { return NameGreedy }

func (Greedy) Decide(_ context.Context, g *game.Game) (game.Direction, error) {
	safe := rules.SafeDirections(g)
	if len(safe) == 0 {
		return game.Center, nil
	}

	obs := g.Observe()
	food := g.Food()
	best := safe[0]
	bestDist, bestOpen := -1, -1.0
	for _, d := range safe {
		next, _ := g.Project(d)
		dist := next.Manhattan(food)
		open := min(obs.Body[rayOf[d]], obs.Wall[rayOf[d]])
		if bestDist < 0 || dist < bestDist || (dist == bestDist && open > bestOpen) {
			best, bestDist, bestOpen = d, dist, open
		}
	}
	return best, nil
}
