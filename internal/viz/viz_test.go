package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/road"
	"github.com/san-kum/pneumostab/internal/sim"
)

type dropProfile struct {
	rest sim.Inputs
	at   int
}

func (p dropProfile) Inputs(_ float64, step int) sim.Inputs {
	in := p.rest
	if step >= p.at {
		in.Corners[dynamo.FrontLeft].Angle = -1.3
	}
	return in
}

func newTestModel(t *testing.T, prof func(*sim.Driver) sim.Profile) Model {
	t.Helper()
	p, err := config.DefaultScenario().Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	d, err := sim.NewDriver(p)
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	return NewModel(d, prof(d), 1e-3, "default")
}

func sine(d *sim.Driver) sim.Profile {
	var rest [dynamo.NumCorners]float64
	for i, c := range d.RestInputs().Corners {
		rest[i] = c.Angle
	}
	return road.NewSine(road.Params{Rest: rest, Amplitude: 0.1, Frequency: 2})
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelAdvancesOnTick(t *testing.T) {
	m := newTestModel(t, sine)
	m = update(m, TickMsg(time.Now()))
	m = update(m, TickMsg(time.Now()))

	if m.snap.Step != 2*m.stepsPerFrame {
		t.Errorf("expected step %d, got %d", 2*m.stepsPerFrame, m.snap.Step)
	}
	if len(m.tankHistory) != 2 {
		t.Errorf("expected 2 history points, got %d", len(m.tankHistory))
	}

	view := m.View()
	for _, want := range []string{"DEFAULT", "RUNNING", "FL", "RR", "Tank"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelPause(t *testing.T) {
	m := newTestModel(t, sine)
	m = update(m, key(" "))
	m = update(m, TickMsg(time.Now()))

	if m.snap.Step != 0 {
		t.Errorf("paused model should not advance, got step %d", m.snap.Step)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("expected paused status")
	}
}

func TestModelHaltsOnTickError(t *testing.T) {
	m := newTestModel(t, func(d *sim.Driver) sim.Profile { return dropProfile{rest: d.RestInputs(), at: 4} })
	m = update(m, TickMsg(time.Now()))

	if m.Err() == nil {
		t.Fatal("expected tick error")
	}
	if m.running {
		t.Error("model should stop running after an error")
	}
	if m.snap.Step != 3 {
		t.Errorf("expected the last committed snapshot at step 3, got %d", m.snap.Step)
	}
	if m.driver.Step() != 3 {
		t.Errorf("expected driver to stop at step 3, got %d", m.driver.Step())
	}

	m = update(m, key(" "))
	if m.running {
		t.Error("a halted model should not resume")
	}

	view := m.View()
	if !strings.Contains(view, "HALTED") {
		t.Error("expected halted status")
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t, sine)
	n := m.stepsPerFrame

	m = update(m, key("+"))
	if m.stepsPerFrame != 2*n {
		t.Errorf("expected %d steps per frame, got %d", 2*n, m.stepsPerFrame)
	}
	m = update(m, key("-"))
	m = update(m, key("-"))
	if m.stepsPerFrame != n/2 {
		t.Errorf("expected %d steps per frame, got %d", n/2, m.stepsPerFrame)
	}

	m = update(m, key("a"))
	if !m.rear || !strings.Contains(m.View(), "REAR AXLE") {
		t.Error("expected rear axle view")
	}

	before := CurrentTheme.Name
	update(m, key("t"))
	if CurrentTheme.Name == before {
		t.Error("expected theme to change")
	}
	SetTheme(before)

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestCanvasSegment(t *testing.T) {
	c := NewCanvas(10, 5, Viewport{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100})
	c.Segment(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{100, 100, 0})

	out := c.String()
	if strings.Count(out, "\n") != 5 {
		t.Fatalf("expected 5 rows, got %q", out)
	}
	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != brailleBlank {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected the segment to light some cells")
	}
	if c.Grid[c.Height-1][0] == brailleBlank {
		t.Error("origin should map to the bottom left cell")
	}

	c.Clear()
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != brailleBlank && r != '\n' }) {
		t.Error("clear should blank every cell")
	}
}

func TestFit(t *testing.T) {
	v := Fit(10, dynamo.Vec3{-5, 2, 0}, dynamo.Vec3{30, -4, 9})
	if v.MinX != -15 || v.MaxX != 40 || v.MinY != -14 || v.MaxY != 12 {
		t.Errorf("unexpected viewport %+v", v)
	}
}

func TestStrokeBarAndSparkline(t *testing.T) {
	if got := []rune(stripANSI(StrokeBar(0.5, 10))); len(got) != 10 {
		t.Errorf("expected 10 cells, got %d", len(got))
	}
	if s := Sparkline([]float64{1, 2, 3, 4}, 3); len([]rune(s)) != 3 {
		t.Errorf("expected sparkline of 3, got %q", s)
	}
	if s := Sparkline(nil, 4); s != "────" {
		t.Errorf("unexpected empty sparkline %q", s)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	skip := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			skip = true
		case skip && r == 'm':
			skip = false
		case !skip:
			b.WriteRune(r)
		}
	}
	return b.String()
}
