// Package selfplay runs games driven by a policy, records every turn and
// writes the episodes to parquet.
package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/policy"
	"github.com/brensch/snek/rules"
	"github.com/brensch/snek/store"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// EpisodeConfig describes one game.
type EpisodeConfig struct {
	Seed     uint64
	Size     int
	MaxTurns int
}

// Episode is a finished (or truncated) game with one row per turn.
type Episode struct {
	ID        uuid.UUID
	Seed      uint64
	Policy    string
	Rows      []store.TurnRow
	Turns     int
	Length    int
	Cause     game.Cause
	Truncated bool
	Elapsed   time.Duration
}

// PlayEpisode plays a fresh game until it ends or MaxTurns is reached. When
// limiter is non-nil every turn waits on it. onStep, if set, sees the game
// after each turn. A cancelled context stops the game and returns ctx.Err()
// along with the partial episode.
func PlayEpisode(ctx context.Context, cfg EpisodeConfig, p policy.Policy, limiter *rate.Limiter, onStep func(*game.Game)) (Episode, error) {
	start := time.Now()
	g := game.New(cfg.Seed, cfg.Size)
	ep := Episode{
		ID:     uuid.New(),
		Seed:   cfg.Seed,
		Policy: p.Name(),
		Rows:   make([]store.TurnRow, 0, 64),
	}
	finish := func() Episode {
		ep.Turns = g.Turns()
		ep.Length = g.Length()
		ep.Cause = g.Cause()
		ep.Truncated = g.Alive()
		ep.Elapsed = time.Since(start)
		return ep
	}

	decide := decideSeconds.WithLabelValues(ep.Policy)
	for g.Alive() && (cfg.MaxTurns <= 0 || g.Turns() < cfg.MaxTurns) {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return finish(), err
			}
		}

		before := g.Snapshot()
		obs := g.Observe()

		t0 := time.Now()
		dir, err := p.Decide(ctx, g)
		decide.Observe(time.Since(t0).Seconds())
		if err != nil {
			return finish(), fmt.Errorf("turn %d: %w", g.Turns()+1, err)
		}

		out := g.Turn(dir)
		ep.Rows = append(ep.Rows, store.TurnRow{
			EpisodeID: ep.ID.String(),
			Policy:    ep.Policy,
			Seed:      cfg.Seed,
			Size:      int32(cfg.Size),
			Turn:      int32(g.Turns()),
			Heading:   before.Heading.String(),
			HeadX:     int32(before.Body[0].X),
			HeadY:     int32(before.Body[0].Y),
			FoodX:     int32(before.Food.X),
			FoodY:     int32(before.Food.Y),
			Features:  obs.Features(),
			Action:    int32(dir),
			Reward:    float32(rules.Reward(before, g, out)),
			Length:    int32(g.Length()),
			Done:      out == game.Terminated,
			Cause:     g.Cause().String(),
		})
		if onStep != nil {
			onStep(g)
		}
	}
	return finish(), nil
}
