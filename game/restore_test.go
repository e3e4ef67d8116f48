package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore_RoundTripsSnapshot(t *testing.T) {
	g := New(8, 10)
	g.Turn(Up)
	g.Turn(Center)

	r, err := Restore(g.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, g.Snapshot(), r.Snapshot())
	assert.Equal(t, g.FreeCount(), r.FreeCount())
	assert.Equal(t, g.WallDistance(), r.WallDistance())
	assert.Equal(t, g.BodyDistance(), r.BodyDistance())
}

func TestRestore_FromJSON(t *testing.T) {
	const frame = `{"size":6,"seed":3,"turn":4,"heading":"down",
		"body":[{"x":2,"y":3},{"x":2,"y":2},{"x":3,"y":2}],
		"food":{"x":0,"y":0},"alive":true,"cause":"none"}`

	var s Snapshot
	require.NoError(t, json.Unmarshal([]byte(frame), &s))
	g, err := Restore(s)
	require.NoError(t, err)

	assert.Equal(t, Down, g.Heading())
	assert.Equal(t, 3, g.Length())
	assert.Equal(t, 4, g.Turns())
	assert.Equal(t, 33, g.FreeCount())
	assert.Equal(t, Continues, g.Turn(Center))
	assert.Equal(t, Coord{X: 2, Y: 4}, g.Head())
}

func TestRestore_Rejects(t *testing.T) {
	good := Snapshot{
		Size:    5,
		Heading: Right,
		Body:    []Coord{{X: 2, Y: 2}, {X: 1, Y: 2}},
		Food:    Coord{X: 4, Y: 4},
		Alive:   true,
	}
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"tiny board", func(s *Snapshot) { s.Size = 1 }},
		{"center heading", func(s *Snapshot) { s.Heading = Center }},
		{"empty body", func(s *Snapshot) { s.Body = nil }},
		{"off board", func(s *Snapshot) { s.Body = []Coord{{X: 5, Y: 2}, {X: 4, Y: 2}} }},
		{"repeated cell", func(s *Snapshot) { s.Body = []Coord{{X: 2, Y: 2}, {X: 2, Y: 2}} }},
		{"gap", func(s *Snapshot) { s.Body = []Coord{{X: 2, Y: 2}, {X: 0, Y: 2}} }},
		{"food on body", func(s *Snapshot) { s.Food = Coord{X: 1, Y: 2} }},
		{"alive with cause", func(s *Snapshot) { s.Cause = CauseWall }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good.Clone()
			tt.mutate(&s)
			_, err := Restore(s)
			assert.ErrorIs(t, err, ErrBadSnapshot)
		})
	}

	_, err := Restore(good)
	assert.NoError(t, err)
}
