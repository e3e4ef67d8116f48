package policy

import (
	"context"
	"fmt"
	"math"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/rules"
)

const (
	DefaultSimulations  = 64
	DefaultCpuct        = 1.5
	DefaultRolloutDepth = 24
)

// MCTS picks moves with a PUCT tree search over cloned games. Priors come
// from Model when it is set and are uniform over safe moves otherwise. Leaves
// are scored by a short greedy rollout.
type MCTS struct {
	Simulations  int
	Cpuct        float32
	RolloutDepth int
	Model        Model
}

// NewMCTS returns a search with the default budget. m may be nil.
func NewMCTS(m Model) *MCTS {
	return &MCTS{
		Simulations:  DefaultSimulations,
		Cpuct:        DefaultCpuct,
		RolloutDepth: DefaultRolloutDepth,
		Model:        m,
	}
}

func (*MCTS) Name() string { return NameMCTS }

type node struct {
	visits   int
	valueSum float32
	prior    float32
	children [ActionCount]*node
	game     *game.Game
	expanded bool
}

func (n *node) q() float32 {
	if n.visits == 0 {
		return 0
	}
	return n.valueSum / float32(n.visits)
}

func (p *MCTS) Decide(ctx context.Context, g *game.Game) (game.Direction, error) {
	safe := rules.SafeDirections(g)
	switch len(safe) {
	case 0:
		return game.Center, nil
	case 1:
		return safe[0], nil
	}

	root, err := p.search(ctx, g)
	if err != nil {
		return game.Center, err
	}
	best := safe[0]
	for _, d := range safe[1:] {
		c, b := root.children[d], root.children[best]
		if c.visits > b.visits || (c.visits == b.visits && c.q() > b.q()) {
			best = d
		}
	}
	return best, nil
}

// search runs the configured number of simulations from g and returns the
// root. g itself is never advanced.
func (p *MCTS) search(ctx context.Context, g *game.Game) (*node, error) {
	sims := p.Simulations
	if sims <= 0 {
		sims = DefaultSimulations
	}
	cpuct := p.Cpuct
	if cpuct <= 0 {
		cpuct = DefaultCpuct
	}

	root := &node{game: g.Clone(), prior: 1}
	for i := 0; i < sims; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := root
		path := []*node{n}

		// Selection
		for n.expanded {
			var next *node
			bestScore := float32(math.Inf(-1))
			sqrtN := float32(math.Sqrt(float64(n.visits)))
			for _, c := range n.children {
				if c == nil {
					continue
				}
				// U(s,a) = Q(s,a) + c * P(s,a) * sqrt(N(s)) / (1 + N(s,a))
				u := c.q() + cpuct*c.prior*sqrtN/(1+float32(c.visits))
				if u > bestScore {
					bestScore, next = u, c
				}
			}
			if next == nil {
				break
			}
			n = next
			path = append(path, n)
		}

		value, err := p.expand(ctx, n)
		if err != nil {
			return nil, err
		}

		// Backpropagation
		for _, n := range path {
			n.visits++
			n.valueSum += value
		}
	}
	return root, nil
}

// expand adds children for every safe move of n and returns its value.
func (p *MCTS) expand(ctx context.Context, n *node) (float32, error) {
	if rules.IsTerminal(n.game) {
		if !n.game.Alive() {
			return rules.Result(n.game), nil
		}
		return -1, nil
	}
	safe := rules.SafeDirections(n.game)

	priors, err := p.priors(ctx, n.game, safe)
	if err != nil {
		return 0, err
	}
	for _, d := range safe {
		child := n.game.Clone()
		child.Turn(d)
		n.children[d] = &node{game: child, prior: priors[d]}
	}
	n.expanded = true
	return p.rollout(n.game), nil
}

func (p *MCTS) priors(ctx context.Context, g *game.Game, safe []game.Direction) ([ActionCount]float32, error) {
	var out [ActionCount]float32
	if p.Model == nil {
		for _, d := range safe {
			out[d] = 1 / float32(len(safe))
		}
		return out, nil
	}

	scores, err := p.Model.Predict(ctx, g.Observe().Features())
	if err != nil {
		return out, fmt.Errorf("predict: %w", err)
	}
	if len(scores) != ActionCount {
		return out, fmt.Errorf("predict: got %d scores, want %d", len(scores), ActionCount)
	}
	return softmaxOver(scores, safe), nil
}

// softmaxOver normalises scores across the safe moves only.
func softmaxOver(scores []float32, safe []game.Direction) [ActionCount]float32 {
	var out [ActionCount]float32
	maxV := scores[safe[0]]
	for _, d := range safe[1:] {
		maxV = max(maxV, scores[d])
	}
	var sum float32
	for _, d := range safe {
		e := float32(math.Exp(float64(scores[d] - maxV)))
		out[d] = e
		sum += e
	}
	for _, d := range safe {
		out[d] /= sum
	}
	return out
}

// rollout plays greedily from a copy of g. Dying scores between -1 and -0.5
// depending on how long the snake lasted; surviving scores by food eaten.
func (p *MCTS) rollout(g *game.Game) float32 {
	depth := p.RolloutDepth
	if depth <= 0 {
		depth = DefaultRolloutDepth
	}
	sim := g.Clone()
	start := sim.Length()
	for i := 0; i < depth; i++ {
		dir, _ := Greedy{}.Decide(context.Background(), sim)
		if sim.Turn(dir) == game.Terminated {
			if sim.Cause() == game.CauseBoardFull {
				return 1
			}
			return -1 + 0.5*float32(i)/float32(depth)
		}
	}
	return min(1, 0.25*float32(sim.Length()-start))
}
