package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brensch/snek/viewer"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr, policyName, dataDir string
		tps                       float64
		maxTurns                  int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web viewer with live games over WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(cmd, "addr", &a.cfg.Viewer.Addr, addr)
			override(cmd, "tps", &a.cfg.Viewer.TurnsPerSecond, tps)
			override(cmd, "policy", &a.cfg.Viewer.Policy, policyName)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("data-dir") {
				dataDir = a.cfg.SelfPlay.OutDir
			}

			s, err := viewer.NewServer(viewer.Options{
				Size:           a.cfg.Game.Size,
				TurnsPerSecond: a.cfg.Viewer.TurnsPerSecond,
				MaxTurns:       maxTurns,
				Policy:         a.cfg.Viewer.Policy,
				DataDir:        dataDir,
				Logger:         a.log,
			})
			if err != nil {
				return err
			}
			return a.listen(cmd.Context(), a.cfg.Viewer.Addr, s.Handler())
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "listen address")
	f.Float64Var(&tps, "tps", 0, "default turns per second for streamed games")
	f.StringVar(&policyName, "policy", "", "default policy: random, greedy, mcts or manual")
	f.StringVar(&dataDir, "data-dir", "", "recorded episodes for /api/summary (defaults to selfplay.out_dir)")
	f.IntVar(&maxTurns, "max-turns", 0, "turn limit for streamed games (0 is unlimited)")
	return cmd
}

// listen serves h until ctx is done and then shuts down gracefully.
func (a *app) listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		a.log.Info("viewer listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.log.Info("viewer stopped")
	return nil
}
