package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/brensch/snek/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pocket puts the food beyond a dead end: Left looks closer but leaves the
// head at (0,0) with no way out.
func pocket(t *testing.T) *game.Game {
	return restore(t, game.Snapshot{
		Size:    5,
		Heading: game.Up,
		Body:    []game.Coord{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 2}, {X: 0, Y: 3}},
		Food:    game.Coord{X: 0, Y: 4},
		Alive:   true,
	})
}

func TestMCTS_AvoidsDeadEnd(t *testing.T) {
	ctx := context.Background()
	g := pocket(t)
	t.Logf("board:\n%s", g.Snapshot().Render())

	d, err := Greedy{}.Decide(ctx, g)
	require.NoError(t, err)
	require.Equal(t, game.Left, d, "greedy walks into the pocket")

	before := g.Snapshot()
	d, err = NewMCTS(nil).Decide(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, game.Right, d)
	assert.Equal(t, before, g.Snapshot(), "search must not advance the real game")
}

func TestMCTS_SingleSafeMove(t *testing.T) {
	m := &fakeModel{scores: []float32{1, 0, 0, 0}}
	d, err := NewMCTS(m).Decide(context.Background(), corner(t))
	require.NoError(t, err)
	assert.Equal(t, game.Right, d)
	assert.Zero(t, m.calls, "no search needed")
}

func TestMCTS_ModelPriors(t *testing.T) {
	m := &fakeModel{scores: []float32{0, 0, 0, 3}}
	p := &MCTS{Simulations: 8, Model: m}
	_, err := p.Decide(context.Background(), game.New(4, 12))
	require.NoError(t, err)
	assert.Positive(t, m.calls)
	assert.Equal(t, game.FeatureCount, m.width)

	priors := softmaxOver([]float32{0, 0, 0, 3}, []game.Direction{game.Up, game.Right})
	assert.InDelta(t, 1, priors[game.Up]+priors[game.Right], 1e-6)
	assert.Greater(t, priors[game.Right], priors[game.Up])
	assert.Zero(t, priors[game.Down])
}

func TestMCTS_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewMCTS(&fakeModel{err: boom}).Decide(context.Background(), game.New(1, 10))
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMCTS(nil).Decide(ctx, game.New(1, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMCTS_PlaysWholeGames(t *testing.T) {
	ctx := context.Background()
	play := func(p Policy, seed uint64) int {
		g := game.New(seed, 8)
		for g.Alive() && g.Turns() < 400 {
			d, err := p.Decide(ctx, g)
			require.NoError(t, err)
			g.Turn(d)
		}
		return g.Length()
	}

	var greedy, search int
	for seed := uint64(0); seed < 4; seed++ {
		greedy += play(Greedy{}, seed)
		search += play(NewMCTS(nil), seed)
	}
	t.Logf("total length greedy=%d mcts=%d", greedy, search)
	assert.Greater(t, search, 8, "search should eat at least once in four games")
}

func TestMCTS_ExpandBoxedIn(t *testing.T) {
	g := restore(t, game.Snapshot{
		Size:    4,
		Heading: game.Up,
		Body: []game.Coord{
			{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 0},
			{X: 1, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1},
		},
		Food:  game.Coord{X: 3, Y: 3},
		Alive: true,
	})
	n := &node{game: g}
	v, err := NewMCTS(nil).expand(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, float32(-1), v)
	assert.False(t, n.expanded)
}
