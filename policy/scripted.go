package policy

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/brensch/snek/game"
)

// Scripted replays a fixed list of directions, then sends Center forever.
type Scripted struct {
	moves []game.Direction
	next  int
}

func NewScripted(moves ...game.Direction) *Scripted {
	return &Scripted{moves: moves}
}

// ParseScript reads a compact script such as "uurr c dl". Whitespace is
// ignored and each letter is one of u, d, l, r, c.
func ParseScript(s string) (*Scripted, error) {
	var moves []game.Direction
	for i, r := range s {
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		d, err := game.ParseDirection(string(r))
		if err != nil {
			return nil, fmt.Errorf("script position %d: %w", i, err)
		}
		moves = append(moves, d)
	}
	return NewScripted(moves...), nil
}

func (*Scripted) Name() string { return NameScripted }

func (s *Scripted) Decide(context.Context, *game.Game) (game.Direction, error) {
	if s.next >= len(s.moves) {
		return game.Center, nil
	}
	d := s.moves[s.next]
	s.next++
	return d, nil
}

// Remaining reports how many scripted moves are left.
func (s *Scripted) Remaining() int { return len(s.moves) - s.next }

func (s *Scripted) String() string {
	var b strings.Builder
	for _, d := range s.moves {
		b.WriteByte(d.String()[0])
	}
	return b.String()
}
