// Package viewer serves live snake games over HTTP: a server-rendered board
// page, a WebSocket stream of per-turn frames and summaries of recorded
// episodes.
package viewer

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/policy"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PolicyManual takes directions from the WebSocket client.
const PolicyManual = "manual"

var (
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_viewer_active_streams",
		Help: "Open WebSocket game streams",
	})
	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_viewer_frames_sent_total",
		Help: "Frames written to WebSocket clients",
	})
	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_viewer_streams_total",
		Help: "Finished WebSocket streams by policy and end reason",
	}, []string{"policy", "reason"})
)

type Options struct {
	Size           int
	TurnsPerSecond float64
	// MaxTurns caps streamed games and /api/snapshot runs; 0 is unlimited for
	// streams.
	MaxTurns int
	// Policy drives streams that do not ask for one: random, greedy, mcts,
	// manual or scripted:<moves>.
	Policy string
	// DataDir holds recorded episodes for /api/summary. Empty disables it.
	DataDir string
	Logger  *slog.Logger
}

// Server holds shared state for the HTTP handlers.
type Server struct {
	opts     Options
	log      *slog.Logger
	page     *template.Template
	upgrader websocket.Upgrader
	seq      atomic.Uint64
}

func NewServer(opts Options) (*Server, error) {
	if opts.Size == 0 {
		opts.Size = 10
	}
	if opts.Size < game.MinSize {
		return nil, fmt.Errorf("viewer: board size %d below %d", opts.Size, game.MinSize)
	}
	if opts.TurnsPerSecond <= 0 {
		opts.TurnsPerSecond = 8
	}
	if opts.Policy == "" {
		opts.Policy = policy.NameGreedy
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	page, err := template.New("board").Funcs(template.FuncMap{"cellClass": cellClass}).Parse(boardPage)
	if err != nil {
		return nil, fmt.Errorf("parse board template: %w", err)
	}
	s := &Server{
		opts: opts,
		log:  opts.Logger,
		page: page,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.seq.Store(uint64(time.Now().UnixNano()))
	return s, nil
}

// RegisterRoutes sets up all routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/ws", s.handleStream)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// nextSeed hands out distinct seeds to requests that do not pick one.
func (s *Server) nextSeed() uint64 {
	return s.seq.Add(1)
}
