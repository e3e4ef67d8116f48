package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestFreeCells_StartsFull(t *testing.T) {
	f := NewFreeCells(4)
	require.Equal(t, 16, f.Len())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.True(t, f.Contains(Coord{X: x, Y: y}), "(%d,%d)", x, y)
		}
	}
	assert.False(t, f.Contains(Coord{X: -1, Y: 0}))
	assert.False(t, f.Contains(Coord{X: 0, Y: 4}))
}

func TestFreeCells_RemoveInsert(t *testing.T) {
	f := NewFreeCells(3)
	c := Coord{X: 1, Y: 2}

	require.True(t, f.Remove(c))
	assert.False(t, f.Contains(c))
	assert.Equal(t, 8, f.Len())

	assert.False(t, f.Remove(c), "second remove is a no-op")
	assert.Equal(t, 8, f.Len())

	require.True(t, f.Insert(c))
	assert.True(t, f.Contains(c))
	assert.Equal(t, 9, f.Len())

	assert.False(t, f.Insert(c), "inserting a free cell is a no-op")
	assert.False(t, f.Insert(Coord{X: 3, Y: 0}), "off-board insert is rejected")
	assert.Equal(t, 9, f.Len())
}

func TestFreeCells_RemoveLastSlot(t *testing.T) {
	f := NewFreeCells(2)
	last := Coord{X: 1, Y: 1}
	require.True(t, f.Remove(last))
	assert.False(t, f.Contains(last))
	for _, c := range []Coord{{0, 0}, {1, 0}, {0, 1}} {
		assert.True(t, f.Contains(c))
	}
}

func TestFreeCells_PickEmpty(t *testing.T) {
	f := NewFreeCells(2)
	for _, c := range []Coord{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		require.True(t, f.Remove(c))
	}
	_, err := f.Pick(rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrBoardFull)
}

func TestFreeCells_PickIsUniformOverFreeCells(t *testing.T) {
	f := NewFreeCells(3)
	for _, c := range []Coord{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}} {
		require.True(t, f.Remove(c))
	}
	require.Equal(t, 3, f.Len())

	rng := rand.New(rand.NewSource(42))
	const draws = 30000
	counts := map[Coord]int{}
	for i := 0; i < draws; i++ {
		c, err := f.Pick(rng)
		require.NoError(t, err)
		counts[c]++
	}

	require.Len(t, counts, 3)
	for c, n := range counts {
		assert.Equal(t, 2, c.Y, "picked occupied cell %v", c)
		assert.InDelta(t, draws/3, n, draws*0.03, "cell %v", c)
	}
	assert.Equal(t, 3, f.Len(), "pick does not remove")
}

// TestFreeCells_MatchesMapModel replays random edits against a plain map.
func TestFreeCells_MatchesMapModel(t *testing.T) {
	const n = 6
	f := NewFreeCells(n)
	model := map[Coord]bool{}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			model[Coord{X: x, Y: y}] = true
		}
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		c := Coord{X: rng.Intn(n), Y: rng.Intn(n)}
		if rng.Intn(2) == 0 {
			assert.Equal(t, model[c], f.Remove(c))
			delete(model, c)
		} else {
			assert.Equal(t, !model[c], f.Insert(c))
			model[c] = true
		}
		require.Equal(t, len(model), f.Len())
	}

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			c := Coord{X: x, Y: y}
			assert.Equal(t, model[c], f.Contains(c), "cell %v", c)
		}
	}
}
