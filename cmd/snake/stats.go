package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/brensch/snek/store"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		asJSON     bool
		exportPath string
		compact    bool
	)
	cmd := &cobra.Command{
		Use:   "stats [dir]",
		Short: "Summarise recorded episodes with DuckDB",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.SelfPlay.OutDir
			if len(args) == 1 {
				dir = args[0]
			}
			out := cmd.OutOrStdout()

			if compact {
				path, n, err := store.Compact(dir)
				switch {
				case errors.Is(err, store.ErrNoRows):
					a.log.Info("nothing to compact", "dir", dir)
				case err != nil:
					return fmt.Errorf("compact: %w", err)
				default:
					a.log.Info("compacted episodes", "dir", dir, "files", n, "out", path)
				}
			}
			if exportPath != "" {
				n, err := store.Export(dir, exportPath)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				a.log.Info("exported episodes", "dir", dir, "rows", n, "out", exportPath)
			}

			sum, err := store.Summarize(cmd.Context(), dir)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			fmt.Fprintf(out, "files       %d\n", sum.Files)
			fmt.Fprintf(out, "episodes    %d (%d finished)\n", sum.Episodes, sum.Finished)
			fmt.Fprintf(out, "turns       %d\n", sum.Turns)
			fmt.Fprintf(out, "length      max %d  mean %.2f\n", sum.MaxLength, sum.MeanLength)
			fmt.Fprintf(out, "reward      mean %.3f\n", sum.MeanReward)

			causes := make([]string, 0, len(sum.Causes))
			for c := range sum.Causes {
				causes = append(causes, c)
			}
			sort.Strings(causes)
			for _, c := range causes {
				fmt.Fprintf(out, "cause %-10s %d\n", c, sum.Causes[c])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write every row into this single parquet file")
	cmd.Flags().BoolVar(&compact, "compact", false, "merge the files directly in dir into one before summarising")
	return cmd
}
