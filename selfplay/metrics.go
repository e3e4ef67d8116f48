package selfplay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	episodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_selfplay_episodes_total",
		Help: "Finished self-play episodes by policy and end cause",
	}, []string{"policy", "cause"})

	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_selfplay_turns_total",
		Help: "Turns applied across all self-play episodes",
	}, []string{"policy"})

	episodeLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snake_selfplay_episode_length",
		Help:    "Snake length when an episode ends",
		Buckets: prometheus.ExponentialBuckets(2, 2, 10),
	}, []string{"policy"})

	decideSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snake_selfplay_decide_seconds",
		Help:    "Time spent in a policy choosing one move",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{"policy"})

	flushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_selfplay_parquet_flushes_total",
		Help: "Parquet batch flushes by result",
	}, []string{"result"})

	rowsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_selfplay_rows_written_total",
		Help: "Turn rows written to parquet",
	})
)
