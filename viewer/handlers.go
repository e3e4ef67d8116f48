package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/policy"
	"github.com/brensch/snek/store"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Event is the envelope for every WebSocket message in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event types.
const (
	EventGameInfo = "game_info"
	EventFrame    = "frame"
	EventGameEnd  = "game_end"
	EventTurn     = "turn"
)

type GameInfo struct {
	Seed           uint64  `json:"seed"`
	Size           int     `json:"size"`
	Policy         string  `json:"policy"`
	TurnsPerSecond float64 `json:"turns_per_second"`
	MaxTurns       int     `json:"max_turns,omitempty"`
}

// Frame is the state after a turn. Turn 0 is the starting position.
type Frame struct {
	game.Snapshot
	Action  game.Direction   `json:"action"`
	Sensors game.Observation `json:"sensors"`
}

type GameEnd struct {
	Turns  int        `json:"turns"`
	Length int        `json:"length"`
	Cause  game.Cause `json:"cause"`
	// Reason is why the stream ended: finished, max_turns or closed.
	Reason string `json:"reason"`
}

const writeTimeout = 5 * time.Second

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	p, err := s.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap := game.New(p.Seed, p.Size).Snapshot()

	q := url.Values{}
	q.Set("seed", strconv.FormatUint(p.Seed, 10))
	q.Set("size", strconv.Itoa(p.Size))
	q.Set("policy", p.Policy)
	q.Set("tps", strconv.FormatFloat(p.TurnsPerSecond, 'f', -1, 64))
	if p.MaxTurns > 0 {
		q.Set("max_turns", strconv.Itoa(p.MaxTurns))
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, pageData{Snapshot: snap, Grid: snap.Grid(), Params: p, Query: q.Encode()}); err != nil {
		s.log.Error("render board", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// maxSnapshotTurns caps /api/snapshot when the server sets no MaxTurns.
const maxSnapshotTurns = 10_000

// maxSnapshotBody bounds a POSTed starting position.
const maxSnapshotBody = 1 << 20

// handleSnapshot plays up to turns steps headless and returns the final
// frame. It is the non-streaming twin of /ws. A POST body holding a Snapshot
// replaces the fresh game as the starting position.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	switch r.Method {
	case http.MethodOptions:
		return
	case http.MethodGet, http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := s.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Policy == PolicyManual {
		http.Error(w, "manual policy needs /ws", http.StatusBadRequest)
		return
	}
	turns, err := parseIntQuery(r.URL.Query().Get("turns"), 0)
	if err != nil || turns < 0 {
		http.Error(w, "turns must be a non-negative integer", http.StatusBadRequest)
		return
	}
	limit := s.opts.MaxTurns
	if limit <= 0 {
		limit = maxSnapshotTurns
	}
	turns = min(turns, limit)

	pol, err := policy.ByName(p.Policy, p.Seed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var g *game.Game
	if r.Method == http.MethodPost {
		if g, err = decodeStart(r); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		g = game.New(p.Seed, p.Size)
	}

	ctx := r.Context()
	action := game.Center
	for i := 0; i < turns && g.Alive(); i++ {
		if ctx.Err() != nil {
			return
		}
		if action, err = pol.Decide(ctx, g); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		g.Turn(action)
	}
	writeJSON(w, Frame{Snapshot: g.Snapshot(), Action: action, Sensors: g.Observe()})
}

func decodeStart(r *http.Request) (*game.Game, error) {
	var snap game.Snapshot
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSnapshotBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Size > maxBoardSize {
		return nil, fmt.Errorf("size must be between 2 and %d", maxBoardSize)
	}
	return game.Restore(snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if r.Method == http.MethodOptions {
		return
	}
	if s.opts.DataDir == "" {
		http.Error(w, "no data directory configured", http.StatusNotFound)
		return
	}
	sum, err := store.Summarize(r.Context(), s.opts.DataDir)
	if errors.Is(err, store.ErrNoRows) {
		http.Error(w, "no episodes recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("summarize", "dir", s.opts.DataDir, "err", err)
		http.Error(w, "summary failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sum)
}

// manualInput holds the last direction a client asked for. Each decide
// consumes it, so a turn without input goes straight.
type manualInput struct {
	next atomic.Uint32
}

func (m *manualInput) decide(context.Context, *game.Game) (game.Direction, error) {
	v := m.next.Swap(0)
	if v == 0 {
		return game.Center, nil
	}
	return game.Direction(v - 1), nil
}

func (m *manualInput) set(d game.Direction) { m.next.Store(uint32(d) + 1) }

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var pol policy.Policy
	manual := &manualInput{}
	if p.Policy == PolicyManual {
		pol = policy.Func{Label: PolicyManual, Fn: manual.decide}
	} else if pol, err = policy.ByName(p.Policy, p.Seed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	activeStreams.Inc()
	defer activeStreams.Dec()

	log := s.log.With("remote", r.RemoteAddr, "seed", p.Seed, "policy", p.Policy)
	log.Info("stream opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer cancel()
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			if ev.Type != EventTurn {
				continue
			}
			var name string
			if err := json.Unmarshal(ev.Data, &name); err != nil {
				continue
			}
			if d, err := game.ParseDirection(name); err == nil {
				manual.set(d)
			}
		}
	}()

	reason := s.stream(ctx, conn, p, pol)
	streamsTotal.WithLabelValues(p.Policy, reason).Inc()
	log.Info("stream closed", "reason", reason)

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
}

// stream plays one game onto conn and returns why it stopped.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, p gameParams, pol policy.Policy) string {
	send := func(typ string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(Event{Type: typ, Data: data}); err != nil {
			return err
		}
		if typ == EventFrame {
			framesSent.Inc()
		}
		return nil
	}

	g := game.New(p.Seed, p.Size)
	info := GameInfo{Seed: p.Seed, Size: p.Size, Policy: p.Policy, TurnsPerSecond: p.TurnsPerSecond, MaxTurns: p.MaxTurns}
	if send(EventGameInfo, info) != nil || send(EventFrame, Frame{Snapshot: g.Snapshot(), Action: game.Center, Sensors: g.Observe()}) != nil {
		return "closed"
	}

	limiter := rate.NewLimiter(rate.Limit(p.TurnsPerSecond), 1)
	reason := "finished"
	for g.Alive() {
		if p.MaxTurns > 0 && g.Turns() >= p.MaxTurns {
			reason = "max_turns"
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return "closed"
		}
		dir, err := pol.Decide(ctx, g)
		if err != nil {
			s.log.Warn("policy failed", "err", err)
			return "closed"
		}
		g.Turn(dir)
		if send(EventFrame, Frame{Snapshot: g.Snapshot(), Action: dir, Sensors: g.Observe()}) != nil {
			return "closed"
		}
	}

	if send(EventGameEnd, GameEnd{Turns: g.Turns(), Length: g.Length(), Cause: g.Cause(), Reason: reason}) != nil {
		return "closed"
	}
	return reason
}
