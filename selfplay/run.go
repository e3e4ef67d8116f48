package selfplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brensch/snek/policy"
	"github.com/brensch/snek/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PolicyFactory builds the policy for one worker. Policies are not shared
// between workers unless the factory returns the same value.
type PolicyFactory func(worker int) (policy.Policy, error)

type Config struct {
	Size     int
	MaxTurns int
	// Seed is the seed of the first episode; episode i uses Seed+i.
	Seed    uint64
	Workers int
	// Episodes <= 0 runs until the context is cancelled.
	Episodes         int
	OutDir           string
	EpisodesPerFlush int
	// TurnsPerSecond caps the total turn rate across all workers; 0 is
	// unlimited.
	TurnsPerSecond float64

	Logger *slog.Logger
	// OnEpisode is called from the worker goroutines after each episode.
	OnEpisode func(worker int, ep Episode)
}

// Stats is what Run did.
type Stats struct {
	Episodes int64
	Turns    int64
	Rows     int
	Files    []string
	Elapsed  time.Duration
}

type finished struct {
	worker int
	ep     Episode
}

// Run plays episodes on cfg.Workers goroutines and streams them to parquet
// files in cfg.OutDir, EpisodesPerFlush episodes per file. Cancelling ctx
// stops the workers after their current turn; completed episodes are still
// flushed. Partial episodes are dropped.
func Run(ctx context.Context, cfg Config, newPolicy PolicyFactory) (Stats, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.EpisodesPerFlush <= 0 {
		cfg.EpisodesPerFlush = 50
	}
	if cfg.OutDir == "" {
		return Stats{}, fmt.Errorf("selfplay: out dir is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.TurnsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.TurnsPerSecond), max(1, int(cfg.TurnsPerSecond)))
	}

	policies := make([]policy.Policy, cfg.Workers)
	for w := range policies {
		p, err := newPolicy(w)
		if err != nil {
			return Stats{}, fmt.Errorf("policy for worker %d: %w", w, err)
		}
		policies[w] = p
	}

	start := time.Now()
	var (
		next     atomic.Int64
		episodes atomic.Int64
		turns    atomic.Int64
	)
	done := make(chan finished, cfg.Workers*2)

	eg, ectx := errgroup.WithContext(ctx)
	workers, wctx := errgroup.WithContext(ectx)

	for w, p := range policies {
		workers.Go(func() error {
			wlog := log.With("worker", w, "policy", p.Name())
			wlog.Debug("worker started")
			for {
				i := next.Add(1) - 1
				if cfg.Episodes > 0 && i >= int64(cfg.Episodes) {
					return nil
				}
				seed := cfg.Seed + uint64(i)
				ep, err := PlayEpisode(wctx, EpisodeConfig{Seed: seed, Size: cfg.Size, MaxTurns: cfg.MaxTurns}, p, limiter, nil)
				if err != nil {
					if wctx.Err() != nil {
						wlog.Debug("worker stopped", "partial_turns", ep.Turns)
						return nil
					}
					return fmt.Errorf("worker %d episode seed=%d: %w", w, seed, err)
				}

				episodes.Add(1)
				turns.Add(int64(ep.Turns))
				turnsTotal.WithLabelValues(ep.Policy).Add(float64(ep.Turns))
				episodeLength.WithLabelValues(ep.Policy).Observe(float64(ep.Length))
				cause := ep.Cause.String()
				if ep.Truncated {
					cause = "truncated"
				}
				episodesTotal.WithLabelValues(ep.Policy, cause).Inc()
				wlog.Debug("episode done", "id", ep.ID, "seed", seed, "turns", ep.Turns, "length", ep.Length, "cause", cause)

				if cfg.OnEpisode != nil {
					cfg.OnEpisode(w, ep)
				}
				select {
				case done <- finished{worker: w, ep: ep}:
				case <-ectx.Done():
					return nil
				}
			}
		})
	}

	eg.Go(func() error {
		err := workers.Wait()
		close(done)
		return err
	})

	var files []string
	var rows int
	eg.Go(func() error {
		var err error
		files, rows, err = parquetWriterLoop(cfg.OutDir, cfg.EpisodesPerFlush, done, log)
		return err
	})

	err := eg.Wait()
	st := Stats{
		Episodes: episodes.Load(),
		Turns:    turns.Load(),
		Rows:     rows,
		Files:    files,
		Elapsed:  time.Since(start),
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return st, err
	}
	log.Info("selfplay finished", "episodes", st.Episodes, "turns", st.Turns, "files", len(st.Files), "elapsed", st.Elapsed.Round(time.Millisecond))
	return st, nil
}

// parquetWriterLoop drains in, rolling to a new batch file every
// perFlush episodes. It always finalizes the open batch before returning.
func parquetWriterLoop(outDir string, perFlush int, in <-chan finished, log *slog.Logger) ([]string, int, error) {
	var (
		files []string
		rows  int
		w     *store.BatchWriter
	)
	flush := func(final bool) error {
		if w == nil {
			return nil
		}
		path, n, eps, err := w.Finalize()
		w = nil
		if err != nil {
			flushesTotal.WithLabelValues("error").Inc()
			log.Error("parquet flush failed", "err", err, "final", final)
			return err
		}
		if path == "" {
			return nil
		}
		flushesTotal.WithLabelValues("ok").Inc()
		rowsWritten.Add(float64(n))
		files = append(files, path)
		rows += n
		log.Info("parquet flush ok", "path", path, "episodes", eps, "rows", n, "final", final)
		return nil
	}

	for f := range in {
		if w == nil {
			var err error
			if w, err = store.NewBatchWriter(outDir); err != nil {
				return files, rows, err
			}
		}
		if err := w.WriteEpisode(f.ep.Rows); err != nil {
			_ = flush(true)
			return files, rows, err
		}
		if w.Episodes() >= perFlush {
			if err := flush(false); err != nil {
				return files, rows, err
			}
		}
	}
	return files, rows, flush(true)
}
