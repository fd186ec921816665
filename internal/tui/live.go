package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mbdyn/internal/config"
	"github.com/san-kum/mbdyn/internal/dynamics"
	"github.com/san-kum/mbdyn/internal/integrators"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

type liveModel struct {
	skel    *dynamics.Skeleton
	stepper integrators.Stepper
	dt      float64

	paused  bool
	speed   int
	simTime float64
	history []float64

	width  int
	height int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func newLiveModel(skel *dynamics.Skeleton, stepper integrators.Stepper, dt float64) *liveModel {
	return &liveModel{
		skel:    skel,
		stepper: stepper,
		dt:      dt,
		speed:   1,
		history: make([]float64, 0, 60),
		width:   80,
		height:  24,
	}
}

func (m *liveModel) Init() tea.Cmd { return tick() }

func (m *liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			if m.speed < 64 {
				m.speed *= 2
			}
		case "-":
			if m.speed > 1 {
				m.speed /= 2
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			// 16ms frames at real time need dt-sized substeps.
			substeps := int(0.016/m.dt+0.5) * m.speed
			if substeps < 1 {
				substeps = 1
			}
			for i := 0; i < substeps; i++ {
				m.stepper.Step(m.skel, m.dt)
				m.simTime += m.dt
			}
			energy := m.skel.KineticEnergy() + m.skel.PotentialEnergy()
			m.history = append(m.history, energy)
			if len(m.history) > 60 {
				m.history = m.history[1:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *liveModel) View() string {
	var b strings.Builder

	status := green.Render("running")
	if m.paused {
		status = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("  %s  %s  t=%s  speed=%dx\n\n",
		cyan.Render(m.skel.Name()), status,
		white.Render(fmt.Sprintf("%.3fs", m.simTime)), m.speed))

	q := m.skel.Positions()
	dq := m.skel.Velocities()
	rows := len(q)
	if rows > 12 {
		rows = 12
	}
	for i := 0; i < rows; i++ {
		name := m.skel.GenCoord(i).Name()
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			dim.Render(fmt.Sprintf("%-16s", name)),
			white.Render(fmt.Sprintf("q=%9.4f", q[i])),
			dim.Render(fmt.Sprintf("dq=%9.4f", dq[i]))))
	}
	if len(q) > rows {
		b.WriteString(dim.Render(fmt.Sprintf("  ... %d more coordinates\n", len(q)-rows)))
	}

	b.WriteString("\n")
	ke := m.skel.KineticEnergy()
	pe := m.skel.PotentialEnergy()
	b.WriteString(fmt.Sprintf("  %s %s %s\n",
		dim.Render("energy"),
		white.Render(fmt.Sprintf("KE=%.4f PE=%.4f", ke, pe)),
		cyan.Render(sparkline(m.history, 40))))

	com := m.skel.WorldCOM()
	b.WriteString(fmt.Sprintf("  %s %s\n",
		dim.Render("com   "),
		white.Render(fmt.Sprintf("(%.3f, %.3f, %.3f)", com[0], com[1], com[2]))))

	b.WriteString("\n" + dim.Render("  space pause  +/- speed  q quit") + "\n")
	return b.String()
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func sparkline(vals []float64, width int) string {
	if len(vals) == 0 {
		return ""
	}
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	var b strings.Builder
	for _, v := range vals {
		idx := 0
		if span > 0 {
			idx = int((v - min) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// Run builds the skeleton from the config and drives it in an interactive
// terminal view.
func Run(cfg *config.Config) error {
	skel, err := cfg.Build()
	if err != nil {
		return err
	}
	stepper, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}
	p := tea.NewProgram(newLiveModel(skel, stepper, cfg.Dt))
	_, err = p.Run()
	return err
}
