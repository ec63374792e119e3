package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
)

const (
	width           = 60
	height          = 18
	historyCapacity = 600
	frameRate       = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model runs a driver frame by frame and shows the corners, the receiver
// pressure and the first tick error, which halts the view.
type Model struct {
	driver  *sim.Driver
	profile sim.Profile
	dt      float64
	name    string

	// stepsPerFrame ticks are advanced for every frame.
	stepsPerFrame int
	snap          sim.StateSnapshot
	tankHistory   []float64
	headHistory   [dynamo.NumCorners][]float64
	canvas        *Canvas
	rear          bool
	running       bool
	err           error
	showHelp      bool
}

func NewModel(d *sim.Driver, p sim.Profile, dt float64, name string) Model {
	return Model{
		driver:        d,
		profile:       p,
		dt:            dt,
		name:          name,
		stepsPerFrame: 10,
		snap:          d.Snapshot(),
		tankHistory:   make([]float64, 0, historyCapacity),
		canvas:        NewCanvas(width, height, frame(d.Params())),
		running:       true,
	}
}

// frame fits the canvas around every anchor and the reach of every lever.
func frame(p sim.Params) Viewport {
	pts := make([]dynamo.Vec3, 0, 4*dynamo.NumCorners)
	for _, c := range p.Corners {
		arm, l := c.Lever.JArm, c.Lever.Length
		pts = append(pts, arm, c.Linkage.JTail,
			arm.Add(dynamo.Vec3{l, l, 0}), arm.Sub(dynamo.Vec3{l, l, 0}))
	}
	return Fit(20, pts...)
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "a":
			m.rear = !m.rear
		case "+", "=":
			m.stepsPerFrame = min(m.stepsPerFrame*2, 640)
		case "-", "_":
			m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one frame of ticks and stops at the first error.
func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		in := m.profile.Inputs(m.driver.Time()+m.dt, m.driver.Step()+1)
		snap, err := m.driver.Advance(m.dt, in)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.snap = snap
	}
	m.record()
}

func (m *Model) record() {
	m.tankHistory = appendCapped(m.tankHistory, m.snap.Tank.Pressure/1e3)
	for i, c := range m.snap.Corners {
		m.headHistory[i] = appendCapped(m.headHistory[i], c.HeadPressure/1e3)
	}
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) draw() {
	m.canvas.Clear()
	params := m.driver.Params()
	for i, c := range dynamo.Corners {
		if c.Front() == m.rear {
			continue
		}
		spec := params.Corners[i]
		rod := m.snap.Corners[i].JRod
		m.canvas.Segment(spec.Lever.JArm, rod)
		m.canvas.Segment(rod, spec.Linkage.JTail)
		m.canvas.Joint(spec.Lever.JArm)
		m.canvas.Joint(spec.Linkage.JTail)
		m.canvas.Joint(rod)
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return fg(CurrentTheme.Error).Bold(true).Render("HALTED")
	case !m.running:
		return fg(CurrentTheme.Warning).Bold(true).Render("PAUSED")
	default:
		return fg(CurrentTheme.Success).Bold(true).Render("RUNNING")
	}
}

func (m Model) View() string {
	m.draw()
	axle := "FRONT AXLE"
	if m.rear {
		axle = "REAR AXLE"
	}
	canvasView := canvasStyle.Render(headerStyle().Render(axle) + "\n" + m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	label, value := labelStyle(), valueStyle()
	s.WriteString(label.Render("Time") + value.Render(fmt.Sprintf("%.3fs  step %d  x%d", m.snap.Time, m.snap.Step, m.stepsPerFrame)) + "\n")
	s.WriteString(label.Render("Tank") + value.Render(fmt.Sprintf("%.1f kPa  %.1f K", m.snap.Tank.Pressure/1e3, m.snap.Tank.Temperature)) + "\n")
	s.WriteString(label.Render("Mass") + value.Render(fmt.Sprintf("%.6g kg", m.snap.TotalMass())) + "\n\n")

	for i, c := range m.snap.Corners {
		s.WriteString(label.Render(strings.ToUpper(c.Corner.String())) +
			StrokeBar(c.PistonRatio, 16) + " " +
			value.Render(fmt.Sprintf("%.3f  head %6.1f  rod %6.1f kPa", c.PistonRatio, c.HeadPressure/1e3, c.RodPressure/1e3)) + "\n")
		s.WriteString(label.Render("") + fg(CurrentTheme.Accent).Render(Sparkline(m.headHistory[i], 40)) + "\n")
	}

	if len(m.tankHistory) > 1 {
		chart := asciigraph.Plot(m.tankHistory, asciigraph.Height(5), asciigraph.Width(40), asciigraph.Caption("Tank pressure (kPa)"))
		s.WriteString(graphStyle().Render(chart) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + fg(CurrentTheme.Error).Width(60).Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle().Render("SP:Pause A:Axle +/-:Speed T:Theme ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
  Space    pause / resume
  A        switch front / rear axle
  + / -    double / halve ticks per frame
  T        cycle themes
  ?        toggle this help
  Q        quit
` + "\n" + mainView
	}
	return mainView
}

// Err is the tick error that halted the view, if any.
func (m Model) Err() error { return m.err }

// Run starts the live view in the alternate screen and returns the tick
// error that halted it, if any.
func Run(d *sim.Driver, p sim.Profile, dt float64, name string) error {
	final, err := tea.NewProgram(NewModel(d, p, dt, name), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
