package main

import (
	"fmt"
	"time"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/policy"
	"github.com/spf13/cobra"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		turns      int
		size       int
		policyName string
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure turns per second over back-to-back games",
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(cmd, "size", &a.cfg.Game.Size, size)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			p, err := policy.ByName(policyName, a.cfg.Game.Seed)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			seed := a.cfg.Game.Seed
			g := game.New(seed, a.cfg.Game.Size)
			games := 1
			start := time.Now()
			for i := 0; i < turns; i++ {
				if !g.Alive() {
					seed++
					games++
					g = game.New(seed, a.cfg.Game.Size)
				}
				dir, err := p.Decide(ctx, g)
				if err != nil {
					return err
				}
				g.Turn(dir)
			}
			elapsed := time.Since(start)

			fmt.Fprintf(cmd.OutOrStdout(), "%d turns over %d games in %s (%.0f turns/s, policy %s, size %d)\n",
				turns, games, elapsed.Round(time.Microsecond), float64(turns)/max(elapsed.Seconds(), 1e-9),
				p.Name(), a.cfg.Game.Size)
			return nil
		},
	}
	cmd.Flags().IntVar(&turns, "turns", 1_000_000, "turns to play")
	cmd.Flags().IntVar(&size, "size", 0, "board size")
	cmd.Flags().StringVar(&policyName, "policy", policy.NameRandom, "random, greedy, mcts or scripted:<moves>")
	return cmd
}
