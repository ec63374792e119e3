package metrics

import (
	"math"

	"github.com/san-kum/pneumostab/internal/sim"
)

// PeakPressure is the highest chamber pressure reached, in Pa.
type PeakPressure struct {
	name string
	peak float64
}

func NewPeakPressure() *PeakPressure {
	return &PeakPressure{name: "peak_pressure"}
}

func (p *PeakPressure) Name() string { return p.name }

func (p *PeakPressure) Observe(s sim.StateSnapshot) {
	for _, c := range s.Corners {
		p.peak = math.Max(p.peak, math.Max(c.HeadPressure, c.RodPressure))
	}
}

func (p *PeakPressure) Value() float64 { return p.peak }

func (p *PeakPressure) Reset() { p.peak = 0 }

// TransferredMass sums the gas moved through open valves, in kg.
type TransferredMass struct {
	name  string
	total float64
}

func NewTransferredMass() *TransferredMass {
	return &TransferredMass{name: "transferred_mass"}
}

func (t *TransferredMass) Name() string { return t.name }

func (t *TransferredMass) Observe(s sim.StateSnapshot) { t.total += s.Transferred }

func (t *TransferredMass) Value() float64 { return t.total }

func (t *TransferredMass) Reset() { t.total = 0 }
