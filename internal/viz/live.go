package viz

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/sim"
)

const (
	width      = 64
	height     = 20
	energyKeep = 300
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulation one iteration per tick and draws the
// trajectories committed so far.
type Model struct {
	sim     *sim.Simulation
	ham     dynamo.Hamiltonian
	title   string
	ids     []dynamo.AgentID
	tracks  map[dynamo.AgentID][]dynamo.State
	energy  []float64
	running bool
	err     error
	canvas  *Canvas
}

// NewModel wraps s. ham may be nil, in which case no energy chart is drawn.
func NewModel(s *sim.Simulation, ham dynamo.Hamiltonian, title string) Model {
	m := Model{
		sim:     s,
		ham:     ham,
		title:   title,
		ids:     sortedAgents(s.Agents()),
		tracks:  make(map[dynamo.AgentID][]dynamo.State),
		running: true,
		canvas:  NewCanvas(width, height),
	}
	m.sample()
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.err != nil || m.sim.Done() {
		return
	}
	if err := m.sim.Step(); err != nil {
		m.err = err
		return
	}
	m.sample()
}

// sample appends each agent's latest committed state. An agent's newest
// record covers [previous clock, clock), so it is read just below clock.
func (m *Model) sample() {
	eps := m.sim.Config().Epsilon
	latest := make(dynamo.Universe, len(m.ids))
	for _, id := range m.ids {
		clock, _ := m.sim.Clock(id)
		st, ok := m.sim.Universe(clock - eps)[id]
		if !ok {
			continue
		}
		latest[id] = st
		track := m.tracks[id]
		if n := len(track); n > 0 && track[n-1].Time == st.Time {
			continue
		}
		m.tracks[id] = append(track, st)
	}
	if m.ham == nil {
		return
	}
	if e, ok := m.ham.Energy(latest); ok {
		m.energy = append(m.energy, e)
		if len(m.energy) > energyKeep {
			m.energy = m.energy[len(m.energy)-energyKeep:]
		}
	}
}

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

// View renders the TUI interface.
func (m Model) View() string {
	m.canvas.Clear()
	b := Fit(m.tracks)
	for i, id := range m.ids {
		m.canvas.Trace(b, m.tracks[id], i)
	}
	canvasView := Panel.Render(m.canvas.Render(Pens) + Legend(m.ids))

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n\n")
	s.WriteString(m.status() + "\n\n")

	cfg := m.sim.Config()
	s.WriteString(ProgressBar(m.sim.Iteration(), cfg.Iterations, 24) + "\n")
	s.WriteString(MetricLabel.Render("Iteration") + MetricValue.Render(fmt.Sprintf("%d/%d", m.sim.Iteration(), cfg.Iterations)) + "\n")
	s.WriteString(MetricLabel.Render("Records") + MetricValue.Render(fmt.Sprintf("%d", m.sim.Store().Len())) + "\n")
	for i, id := range m.ids {
		clock, _ := m.sim.Clock(id)
		s.WriteString(MetricLabel.Render(string(id)) + Pen(i).Render(fmt.Sprintf("%.3f", clock)) + "\n")
	}
	if len(m.energy) > 1 {
		s.WriteString("\n" + Chart(m.energy, "energy", 30, 4) + "\n")
	}
	s.WriteString("\n" + KeyHint.Render("space pause  n step  q quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, Panel.Render(s.String()))
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED: " + m.err.Error())
	case m.sim.Done():
		return StatusPaused.Render("DONE")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func sortedAgents(ids []dynamo.AgentID) []dynamo.AgentID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
