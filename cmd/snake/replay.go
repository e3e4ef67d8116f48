package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/policy"
	"github.com/spf13/cobra"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		turns      int
		policyName string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "replay <snapshot.json>",
		Short: "Resume a saved position and play it on headless",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			var snap game.Snapshot
			if err := json.Unmarshal(b, &snap); err != nil {
				return fmt.Errorf("parse snapshot %s: %w", args[0], err)
			}
			g, err := game.Restore(snap)
			if err != nil {
				return err
			}
			p, err := policy.ByName(policyName, snap.Seed)
			if err != nil {
				return err
			}

			limit := turns
			if limit <= 0 {
				limit = a.cfg.SelfPlay.MaxTurns
			}
			ctx := cmd.Context()
			for i := 0; i < limit && g.Alive(); i++ {
				dir, err := p.Decide(ctx, g)
				if err != nil {
					return fmt.Errorf("replay turn %d: %w", g.Turns()+1, err)
				}
				g.Turn(dir)
			}
			a.log.Debug("replay finished", "from_turn", snap.Turn, "to_turn", g.Turns(), "policy", p.Name())

			out := cmd.OutOrStdout()
			end := g.Snapshot()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(end)
			}
			fmt.Fprint(out, end.Render())
			fmt.Fprintf(out, "turn %d  length %d  alive %t  cause %s\n", end.Turn, end.Length(), end.Alive, end.Cause)
			return nil
		},
	}
	cmd.Flags().IntVar(&turns, "turns", 0, "turns to play (0 uses selfplay.max_turns)")
	cmd.Flags().StringVar(&policyName, "policy", policy.NameGreedy, "random, greedy, mcts or scripted:<moves>")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final snapshot as JSON, ready to replay again")
	return cmd
}
