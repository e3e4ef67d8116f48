// Package policy holds the input sources that choose a direction for each
// turn of a game.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/brensch/snek/game"
)

// Policy picks the next direction for g. Implementations must not call
// g.Turn; they only read the game.
type Policy interface {
	Name() string
	Decide(ctx context.Context, g *game.Game) (game.Direction, error)
}

// Func adapts a plain function to Policy.
type Func struct {
	Label string
	Fn    func(ctx context.Context, g *game.Game) (game.Direction, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Decide(ctx context.Context, g *game.Game) (game.Direction, error) {
	return f.Fn(ctx, g)
}

// Policy names. Onnx needs a model file; the rest are self-contained.
const (
	NameRandom = "random"
	NameGreedy = "greedy"
	NameOnnx   = "onnx"
	NameMCTS   = "mcts"

	NameScripted = "scripted"
	// ScriptedPrefix selects a scripted policy, e.g. "scripted:uurrd".
	ScriptedPrefix = NameScripted + ":"
)

// ByName builds a random, greedy, model-free mcts or scripted policy. seed
// only matters for random.
func ByName(name string, seed uint64) (Policy, error) {
	if script, ok := strings.CutPrefix(name, ScriptedPrefix); ok {
		return ParseScript(script)
	}
	switch name {
	case NameRandom:
		return NewRandom(seed), nil
	case NameGreedy:
		return Greedy{}, nil
	case NameMCTS:
		return NewMCTS(nil), nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
