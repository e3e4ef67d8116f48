package policy

import (
	"context"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/rules"
	"golang.org/x/exp/rand"
)

// Random picks uniformly among the moves that survive the next turn, and
// keeps going straight when there are none.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (*Random) Name() string { return NameRandom }

func (r *Random) Decide(_ context.Context, g *game.Game) (game.Direction, error) {
	safe := rules.SafeDirections(g)
	if len(safe) == 0 {
		return game.Center, nil
	}
	return safe[r.rng.Intn(len(safe))], nil
}
