package viewer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/brensch/snek/policy"
)

const maxBoardSize = 64

type gameParams struct {
	Seed           uint64
	Size           int
	Policy         string
	TurnsPerSecond float64
	MaxTurns       int
}

// parseParams reads seed, size, policy, tps and max_turns from the query,
// falling back to the server options.
func (s *Server) parseParams(r *http.Request) (gameParams, error) {
	q := r.URL.Query()
	p := gameParams{
		Size:           s.opts.Size,
		Policy:         s.opts.Policy,
		TurnsPerSecond: s.opts.TurnsPerSecond,
		MaxTurns:       s.opts.MaxTurns,
	}

	if v := strings.TrimSpace(q.Get("seed")); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("seed: %w", err)
		}
		p.Seed = seed
	} else {
		p.Seed = s.nextSeed()
	}

	var err error
	if p.Size, err = parseIntQuery(q.Get("size"), p.Size); err != nil {
		return p, fmt.Errorf("size: %w", err)
	}
	if p.Size < 2 || p.Size > maxBoardSize {
		return p, fmt.Errorf("size must be between 2 and %d", maxBoardSize)
	}
	if p.MaxTurns, err = parseIntQuery(q.Get("max_turns"), p.MaxTurns); err != nil {
		return p, fmt.Errorf("max_turns: %w", err)
	}
	if v := strings.TrimSpace(q.Get("tps")); v != "" {
		tps, err := strconv.ParseFloat(v, 64)
		if err != nil || tps <= 0 {
			return p, fmt.Errorf("tps must be a positive number")
		}
		p.TurnsPerSecond = tps
	}
	if v := strings.TrimSpace(q.Get("policy")); v != "" {
		p.Policy = v
	}
	switch {
	case p.Policy == policy.NameRandom, p.Policy == policy.NameGreedy,
		p.Policy == policy.NameMCTS, p.Policy == PolicyManual:
	case strings.HasPrefix(p.Policy, policy.ScriptedPrefix):
	default:
		return p, fmt.Errorf("unknown policy %q", p.Policy)
	}
	return p, nil
}

func parseIntQuery(v string, def int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func withCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
