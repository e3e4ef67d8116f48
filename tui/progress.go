package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brensch/snek/selfplay"
	tea "github.com/charmbracelet/bubbletea"
)

// EpisodeUpdate reports one finished self-play episode to the progress view.
type EpisodeUpdate struct {
	Worker  int
	Episode selfplay.Episode
}

// RunDone tells the progress view that the run has returned.
type RunDone struct{}

const recentEpisodes = 10

// Progress shows live self-play throughput.
type Progress struct {
	target    int
	started   time.Time
	now       time.Time
	episodes  int
	turns     int64
	truncated int
	best      int
	causes    map[string]int
	recent    []string
	updates   <-chan EpisodeUpdate
	done      bool
}

func NewProgress(target int, updates <-chan EpisodeUpdate) Progress {
	now := time.Now()
	return Progress{
		target:  target,
		started: now,
		now:     now,
		causes:  map[string]int{},
		updates: updates,
	}
}

type progressTick time.Time

func progressTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTick(t)
	})
}

func waitForUpdate(updates <-chan EpisodeUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return RunDone{}
		}
		return u
	}
}

func (m Progress) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), progressTickCmd())
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progressTick:
		m.now = time.Time(msg)
		return m, progressTickCmd()
	case EpisodeUpdate:
		ep := msg.Episode
		m.episodes++
		m.turns += int64(ep.Turns)
		m.best = max(m.best, ep.Length)
		cause := ep.Cause.String()
		if ep.Truncated {
			m.truncated++
			cause = "truncated"
		}
		m.causes[cause]++

		line := fmt.Sprintf("worker %d: seed %d, %d turns, length %d, %s", msg.Worker, ep.Seed, ep.Turns, ep.Length, cause)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > recentEpisodes {
			m.recent = m.recent[:recentEpisodes]
		}
		return m, waitForUpdate(m.updates)
	case RunDone:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Progress) Episodes() int { return m.episodes }

func (m Progress) View() string {
	elapsed := m.now.Sub(m.started)
	var epsPerSec, turnsPerSec float64
	if elapsed >= time.Second {
		epsPerSec = float64(m.episodes) / elapsed.Seconds()
		turnsPerSec = float64(m.turns) / elapsed.Seconds()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("self-play"))
	b.WriteString("\n")
	if m.target > 0 {
		fmt.Fprintf(&b, "Episodes:     %d / %d\n", m.episodes, m.target)
	} else {
		fmt.Fprintf(&b, "Episodes:     %d\n", m.episodes)
	}
	fmt.Fprintf(&b, "Turns:        %d\n", m.turns)
	fmt.Fprintf(&b, "Best length:  %d\n", m.best)
	fmt.Fprintf(&b, "Duration:     %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Episodes/Sec: %.2f\n", epsPerSec)
	fmt.Fprintf(&b, "Turns/Sec:    %.2f\n\n", turnsPerSec)

	causes := make([]string, 0, len(m.causes))
	for c := range m.causes {
		causes = append(causes, c)
	}
	sort.Strings(causes)
	for _, c := range causes {
		b.WriteString(statsStyle.Render(fmt.Sprintf("%-10s %d", c, m.causes[c])))
		b.WriteString("\n")
	}

	b.WriteString("\nRecent episodes:\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}
	if m.done {
		b.WriteString("\ndone\n")
	} else {
		b.WriteString(helpStyle.Render("\nPress q to stop."))
		b.WriteString("\n")
	}
	return b.String()
}

// WatchSelfPlay runs selfplay.Run behind the progress view. Quitting the view
// cancels the run; episodes finished so far are still flushed.
func WatchSelfPlay(ctx context.Context, cfg selfplay.Config, newPolicy selfplay.PolicyFactory, opts ...tea.ProgramOption) (selfplay.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan EpisodeUpdate, 64)
	cfg.OnEpisode = func(worker int, ep selfplay.Episode) {
		select {
		case updates <- EpisodeUpdate{Worker: worker, Episode: ep}:
		case <-ctx.Done():
		}
	}

	p := tea.NewProgram(NewProgress(cfg.Episodes, updates), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	type result struct {
		stats selfplay.Stats
		err   error
	}
	resc := make(chan result, 1)
	go func() {
		st, err := selfplay.Run(ctx, cfg, newPolicy)
		resc <- result{st, err}
		close(updates)
	}()

	_, uiErr := p.Run()
	cancel()
	r := <-resc
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return r.stats, fmt.Errorf("progress view: %w", uiErr)
	}
	return r.stats, r.err
}
