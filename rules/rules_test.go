package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brensch/snek/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dumpState(g *game.Game) string {
	if g == nil {
		return "<nil game>\n"
	}
	s := g.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "Turn=%d Size=%d Heading=%s Len=%d Alive=%v Cause=%s\n",
		s.Turn, s.Size, s.Heading, s.Length(), s.Alive, s.Cause)
	b.WriteString(s.Render())
	return b.String()
}

func mustRestore(t *testing.T, s game.Snapshot) *game.Game {
	t.Helper()
	g, err := game.Restore(s)
	require.NoError(t, err)
	return g
}

func logTurn(t *testing.T, name string, before game.Snapshot, dir game.Direction, g *game.Game) {
	t.Helper()
	t.Logf("=== %s ===\nBefore:\n%sMove: %s\nAfter:\n%s", name, before.Render(), dir, dumpState(g))
}

func TestSafeDirections_Open(t *testing.T) {
	g := game.New(0, 10)
	t.Logf("state:\n%s", dumpState(g))

	assert.ElementsMatch(t, []game.Direction{game.Up, game.Down, game.Right}, SafeDirections(g))
	assert.False(t, IsTerminal(g))
}

func TestSafeDirections_Corner(t *testing.T) {
	g := mustRestore(t, game.Snapshot{
		Size:    6,
		Heading: game.Up,
		Body:    []game.Coord{{X: 0, Y: 0}, {X: 0, Y: 1}},
		Food:    game.Coord{X: 5, Y: 5},
		Alive:   true,
	})
	t.Logf("state:\n%s", dumpState(g))

	assert.Equal(t, []game.Direction{game.Right}, SafeDirections(g))
	assert.False(t, IsSafe(g, game.Up))
	assert.False(t, IsSafe(g, game.Left))
	assert.True(t, IsSafe(g, game.Right))
	assert.False(t, IsSafe(g, game.Down), "reverse resolves to up")
}

func TestIsTerminal_Boxed(t *testing.T) {
	// head (1,1) heading up, walled in by its own body on every side
	g := mustRestore(t, game.Snapshot{
		Size:    4,
		Heading: game.Up,
		Body: []game.Coord{
			{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 1}, {X: 2, Y: 0},
			{X: 1, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1},
		},
		Food:  game.Coord{X: 3, Y: 3},
		Alive: true,
	})
	t.Logf("state:\n%s", dumpState(g))

	assert.Empty(t, SafeDirections(g))
	assert.True(t, IsTerminal(g))
	assert.Equal(t, float32(0), Result(g))
}

func TestReward(t *testing.T) {
	start := game.Snapshot{
		Size:    8,
		Heading: game.Right,
		Body:    []game.Coord{{X: 3, Y: 3}, {X: 2, Y: 3}},
		Food:    game.Coord{X: 6, Y: 3},
		Alive:   true,
	}

	tests := []struct {
		name string
		food game.Coord
		body []game.Coord
		dir  game.Direction
		want float64
	}{
		{"closer", game.Coord{X: 6, Y: 3}, nil, game.Right, RewardCloser},
		{"farther", game.Coord{X: 6, Y: 3}, nil, game.Up, RewardFarther},
		{"eat", game.Coord{X: 4, Y: 3}, nil, game.Right, RewardFood},
		{"wall", game.Coord{X: 0, Y: 0}, []game.Coord{{X: 7, Y: 3}, {X: 6, Y: 3}}, game.Right, RewardDeath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := start.Clone()
			s.Food = tt.food
			if tt.body != nil {
				s.Body = tt.body
			}
			g := mustRestore(t, s)
			before := g.Snapshot()
			out := g.Turn(tt.dir)
			logTurn(t, tt.name, before, tt.dir, g)
			assert.Equal(t, tt.want, Reward(before, g, out))
		})
	}
}

func TestReward_BoardFull(t *testing.T) {
	g := mustRestore(t, game.Snapshot{
		Size:    2,
		Heading: game.Right,
		Body:    []game.Coord{{X: 1, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1}},
		Food:    game.Coord{X: 1, Y: 1},
		Alive:   true,
	})
	before := g.Snapshot()
	out := g.Turn(game.Down)
	logTurn(t, "board full", before, game.Down, g)

	require.Equal(t, game.Terminated, out)
	assert.Equal(t, RewardBoardFull, Reward(before, g, out))
	assert.Equal(t, float32(1), Result(g))
	assert.Nil(t, SafeDirections(g))
}

func TestResult_Death(t *testing.T) {
	g := game.New(0, 4)
	for g.Alive() {
		g.Turn(game.Center)
	}
	t.Logf("state:\n%s", dumpState(g))
	assert.Equal(t, game.CauseWall, g.Cause())
	assert.Equal(t, float32(-1), Result(g))
	assert.True(t, IsTerminal(g))
}
