// Package tui plays a game in the terminal with bubbletea. Directions come
// from the keyboard or, when a policy is set, from the policy.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/policy"
	tea "github.com/charmbracelet/bubbletea"
)

const DefaultTick = 150 * time.Millisecond

type Options struct {
	Seed uint64
	Size int
	Tick time.Duration
	// Policy drives the snake instead of the keyboard when set.
	Policy policy.Policy
}

// Model is the bubbletea model for one interactive session. Restarting
// starts a new game with the next seed.
type Model struct {
	opts    Options
	game    *game.Game
	seed    uint64
	pending game.Direction
	paused  bool
	quit    bool
	games   int
	best    int
	err     error
}

type tickMsg time.Time

func NewModel(opts Options) Model {
	if opts.Size < game.MinSize {
		opts.Size = 10
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	return Model{
		opts:    opts,
		game:    game.New(opts.Seed, opts.Size),
		seed:    opts.Seed,
		pending: game.Center,
		games:   1,
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

var keyDirections = map[string]game.Direction{
	"up": game.Up, "w": game.Up, "k": game.Up,
	"down": game.Down, "s": game.Down, "j": game.Down,
	"left": game.Left, "a": game.Left, "h": game.Left,
	"right": game.Right, "d": game.Right, "l": game.Right,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "esc", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		case " ", "p":
			if m.game.Alive() {
				m.paused = !m.paused
			}
			return m, nil
		case "r":
			m.restart()
			return m, nil
		}
		if d, ok := keyDirections[key]; ok && m.opts.Policy == nil {
			m.pending = d
		}
		return m, nil

	case tickMsg:
		if !m.paused && m.game.Alive() {
			m.step()
		}
		return m, m.tickCmd()
	}
	return m, nil
}

// step plays one turn with the pending key or the policy's choice.
func (m *Model) step() {
	dir := m.pending
	m.pending = game.Center
	if m.opts.Policy != nil {
		d, err := m.opts.Policy.Decide(context.Background(), m.game)
		if err != nil {
			m.err = fmt.Errorf("%s: %w", m.opts.Policy.Name(), err)
			m.paused = true
			return
		}
		dir = d
	}
	m.game.Turn(dir)
	m.best = max(m.best, m.game.Length())
}

func (m *Model) restart() {
	m.seed++
	m.game = game.New(m.seed, m.opts.Size)
	m.pending = game.Center
	m.paused = false
	m.err = nil
	m.games++
}

// Game returns the game currently on screen.
func (m Model) Game() *game.Game { return m.game }

func (m Model) Paused() bool { return m.paused }

// Best is the longest snake seen this session.
func (m Model) Best() int { return max(m.best, m.game.Length()) }

// Run blocks until the player quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) (Model, error) {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	m, _ := final.(Model)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return m, nil
	}
	return m, err
}
