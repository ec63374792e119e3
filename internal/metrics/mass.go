package metrics

import (
	"math"

	"github.com/san-kum/pneumostab/internal/sim"
)

// MassDrift is the largest relative change of total gas mass seen since
// the first snapshot. Valves only move gas between columns, so anything
// above round-off points at a bug.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s sim.StateSnapshot) {
	total := s.TotalMass()
	if m.samples == 0 {
		m.initial = total
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(total-m.initial) / m.initial
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

// GasLawResidual tracks the worst relative residual of pV = mRT over every
// chamber and the receiver.
type GasLawResidual struct {
	name  string
	r     float64
	worst float64
}

func NewGasLawResidual(gasConstant float64) *GasLawResidual {
	return &GasLawResidual{name: "gas_law_residual", r: gasConstant}
}

func (g *GasLawResidual) Name() string { return g.name }

func (g *GasLawResidual) Observe(s sim.StateSnapshot) {
	g.check(s.Tank.Pressure, s.Tank.Volume, s.Tank.Mass, s.Tank.Temperature)
	for _, c := range s.Corners {
		g.check(c.HeadPressure, c.HeadVolume, c.HeadMass, c.HeadTemperature)
		g.check(c.RodPressure, c.RodVolume, c.RodMass, c.RodTemperature)
	}
}

func (g *GasLawResidual) check(p, v, m, temp float64) {
	pv := p * v
	if pv == 0 {
		return
	}
	g.worst = math.Max(g.worst, math.Abs(pv-m*g.r*temp)/pv)
}

func (g *GasLawResidual) Value() float64 { return g.worst }

func (g *GasLawResidual) Reset() { g.worst = 0 }
