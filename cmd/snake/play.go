package main

import (
	"fmt"
	"time"

	"github.com/brensch/snek/policy"
	"github.com/brensch/snek/tui"
	"github.com/spf13/cobra"
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		size       int
		seed       uint64
		tick       time.Duration
		policyName string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal with the arrow keys or watch a policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(cmd, "size", &a.cfg.Game.Size, size)
			override(cmd, "seed", &a.cfg.Game.Seed, seed)
			override(cmd, "tick", &a.cfg.Play.Tick, tick)
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			opts := tui.Options{Seed: a.cfg.Game.Seed, Size: a.cfg.Game.Size, Tick: a.cfg.Play.Tick}
			if opts.Seed == 0 {
				opts.Seed = uint64(time.Now().UnixNano())
			}
			if policyName != "" {
				p, err := policy.ByName(policyName, opts.Seed)
				if err != nil {
					return err
				}
				opts.Policy = p
			}

			m, err := tui.Run(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("play: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "best length %d\n", m.Best())
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "board size")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "game seed (0 picks one from the clock)")
	cmd.Flags().DurationVar(&tick, "tick", 0, "time per turn")
	cmd.Flags().StringVar(&policyName, "policy", "", "let random, greedy, mcts or scripted:<moves> play instead of the keyboard")
	return cmd
}
