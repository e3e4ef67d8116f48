package tui

import (
	"fmt"
	"strings"

	"github.com/brensch/snek/game"
	"github.com/brensch/snek/rules"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241"))

	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	foodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))

	statsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	deadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

func renderCell(c byte) string {
	switch c {
	case game.CellHead:
		return headStyle.Render("██")
	case game.CellBody:
		return bodyStyle.Render("▓▓")
	case game.CellFood:
		return foodStyle.Render("()")
	default:
		return emptyStyle.Render(" .")
	}
}

func renderBoard(s game.Snapshot) string {
	var b strings.Builder
	for y, row := range s.Grid() {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			b.WriteString(renderCell(c))
		}
	}
	return boardStyle.Render(b.String())
}

func (m Model) View() string {
	if m.quit {
		return ""
	}
	s := m.game.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("snake  seed %d  game %d", m.seed, m.games)))
	b.WriteString("\n")
	b.WriteString(renderBoard(s))
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("turn %d  length %d  best %d  heading %s",
		s.Turn, s.Length(), m.Best(), s.Heading)))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(deadStyle.Render("error: " + m.err.Error()))
	case !s.Alive && s.Cause == game.CauseBoardFull:
		b.WriteString(titleStyle.Render("board full!"))
	case !s.Alive:
		b.WriteString(deadStyle.Render("dead: " + s.Cause.String()))
	case m.paused:
		b.WriteString(statsStyle.Render("paused"))
	case m.opts.Policy == nil && !rules.IsSafe(m.game, m.pending):
		b.WriteString(deadStyle.Render("danger: next move dies"))
	}
	b.WriteString("\n")

	help := "arrows/wasd move  space pause  r restart  q quit"
	if m.opts.Policy != nil {
		help = m.opts.Policy.Name() + " driving  space pause  r restart  q quit"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")
	return b.String()
}
