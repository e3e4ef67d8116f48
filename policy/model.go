package policy

import (
	"context"
	"fmt"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/rules"
)

// ActionCount is the width of a model's output: one score per move in
// game.Moves order.
const ActionCount = len(game.Moves)

// Model scores the four moves from a sensor feature vector.
type Model interface {
	Predict(ctx context.Context, features []float32) ([]float32, error)
}

// ModelPolicy plays the highest scoring move that survives the next turn.
type ModelPolicy struct {
	name  string
	model Model
}

func NewModelPolicy(name string, m Model) *ModelPolicy {
	return &ModelPolicy{name: name, model: m}
}

func (p *ModelPolicy) Name() string { return p.name }

func (p *ModelPolicy) Decide(ctx context.Context, g *game.Game) (game.Direction, error) {
	safe := rules.SafeDirections(g)
	if len(safe) == 0 {
		return game.Center, nil
	}

	scores, err := p.model.Predict(ctx, g.Observe().Features())
	if err != nil {
		return game.Center, fmt.Errorf("predict: %w", err)
	}
	if len(scores) != ActionCount {
		return game.Center, fmt.Errorf("predict: got %d scores, want %d", len(scores), ActionCount)
	}
	return bestSafe(scores, safe), nil
}

func bestSafe(scores []float32, safe []game.Direction) game.Direction {
	best := safe[0]
	for _, d := range safe[1:] {
		if scores[d] > scores[best] {
			best = d
		}
	}
	return best
}
