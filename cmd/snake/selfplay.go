package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brensch/snek/logging"
	"github.com/brensch/snek/policy"
	"github.com/brensch/snek/selfplay"
	"github.com/brensch/snek/tui"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newSelfPlayCmd(a *app) *cobra.Command {
	var (
		size, workers, episodes, maxTurns, perFlush int
		seed                                        uint64
		tps                                         float64
		outDir, policyName, modelPath, metricsAddr  string
		progress                                    bool
	)
	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Play episodes headless and record them to parquet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sp := &a.cfg.SelfPlay
			override(cmd, "size", &a.cfg.Game.Size, size)
			override(cmd, "seed", &a.cfg.Game.Seed, seed)
			override(cmd, "workers", &sp.Workers, workers)
			override(cmd, "episodes", &sp.Episodes, episodes)
			override(cmd, "max-turns", &sp.MaxTurns, maxTurns)
			override(cmd, "episodes-per-flush", &sp.EpisodesPerFlush, perFlush)
			override(cmd, "tps", &sp.TurnsPerSecond, tps)
			override(cmd, "out-dir", &sp.OutDir, outDir)
			override(cmd, "policy", &sp.Policy, policyName)
			override(cmd, "model", &sp.ModelPath, modelPath)
			override(cmd, "metrics-addr", &sp.MetricsAddr, metricsAddr)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runSelfPlay(cmd, progress)
		},
	}
	f := cmd.Flags()
	f.IntVar(&size, "size", 0, "board size")
	f.Uint64Var(&seed, "seed", 0, "seed of the first episode")
	f.IntVar(&workers, "workers", 0, "concurrent games")
	f.IntVar(&episodes, "episodes", 0, "episodes to play (0 runs until interrupted)")
	f.IntVar(&maxTurns, "max-turns", 0, "turn limit per episode")
	f.IntVar(&perFlush, "episodes-per-flush", 0, "episodes per parquet file")
	f.Float64Var(&tps, "tps", 0, "total turns per second across workers (0 is unlimited)")
	f.StringVar(&outDir, "out-dir", "", "directory for parquet output")
	f.StringVar(&policyName, "policy", "", "random, greedy, mcts or onnx")
	f.StringVar(&modelPath, "model", "", "onnx model for --policy onnx")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	f.BoolVar(&progress, "progress", false, "show a live progress view instead of logs")
	return cmd
}

func (a *app) runSelfPlay(cmd *cobra.Command, progress bool) error {
	ctx := cmd.Context()
	sp := a.cfg.SelfPlay

	newPolicy, closeModel, err := a.policyFactory()
	if err != nil {
		return err
	}
	defer closeModel()

	if sp.MetricsAddr != "" {
		stop := a.serveMetrics(sp.MetricsAddr)
		defer stop()
	}

	runCfg := selfplay.Config{
		Size:             a.cfg.Game.Size,
		MaxTurns:         sp.MaxTurns,
		Seed:             a.cfg.Game.Seed,
		Workers:          sp.Workers,
		Episodes:         sp.Episodes,
		OutDir:           sp.OutDir,
		EpisodesPerFlush: sp.EpisodesPerFlush,
		TurnsPerSecond:   sp.TurnsPerSecond,
		Logger:           a.log,
	}
	var stats selfplay.Stats
	if progress {
		// Log lines would tear the progress view.
		runCfg.Logger = logging.Discard()
		stats, err = tui.WatchSelfPlay(ctx, runCfg, newPolicy)
	} else {
		stats, err = selfplay.Run(ctx, runCfg, newPolicy)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("selfplay: %w", err)
	}

	rate := 0.0
	if s := stats.Elapsed.Seconds(); s > 0 {
		rate = float64(stats.Turns) / s
	}
	fmt.Fprintf(cmd.OutOrStdout(), "episodes %d  turns %d  rows %d  files %d  %.0f turns/s\n",
		stats.Episodes, stats.Turns, stats.Rows, len(stats.Files), rate)
	return nil
}

// policyFactory returns a per-worker factory and a func releasing anything
// shared. All workers share one onnx model so its batches fill up.
func (a *app) policyFactory() (selfplay.PolicyFactory, func(), error) {
	sp := a.cfg.SelfPlay
	if sp.Policy != policy.NameOnnx {
		seed := a.cfg.Game.Seed
		return func(worker int) (policy.Policy, error) {
			return policy.ByName(sp.Policy, seed+uint64(worker)*7919)
		}, func() {}, nil
	}

	p, model, err := policy.NewOnnxPolicy(policy.OnnxConfig{
		ModelPath:     sp.ModelPath,
		SharedLibrary: sp.OnnxLibrary,
		Logger:        a.log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load onnx model: %w", err)
	}
	return func(int) (policy.Policy, error) { return p, nil }, func() { _ = model.Close() }, nil
}

func (a *app) serveMetrics(addr string) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		a.log.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
