package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/nanosim/internal/dynamo"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(12)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))
)

// Pens color agents in sorted id order.
var Pens = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd700")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#00a8cc")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd068")),
}

func Pen(i int) lipgloss.Style { return Pens[i%len(Pens)] }

// Legend lists agents in pen order.
func Legend(ids []dynamo.AgentID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = Pen(i).Render("⣿ " + string(id))
	}
	return strings.Join(parts, "  ")
}

// StateLine formats one agent's kinematics for a status panel.
func StateLine(st dynamo.State) string {
	return fmt.Sprintf("t=%.3f pos=(%+.3f, %+.3f) vel=(%+.3f, %+.3f)", st.Time, st.X, st.Y, st.VX, st.VY)
}

// ProgressBar renders done/total as a fixed-width bar.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := done * width / total
	filled = max(0, min(filled, width))
	return StatusRunning.Render(strings.Repeat("█", filled)) + Subtle.Render(strings.Repeat("░", width-filled))
}
