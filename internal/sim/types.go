package sim

import (
	"github.com/san-kum/pneumostab/internal/corner"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/gas"
)

// TankSpec is the receiver's initial state in SI.
type TankSpec struct {
	Pressure    float64 // Pa
	Volume      float64 // m³
	Temperature float64 // K
	GasConstant float64 // J/(kg·K)
}

// ValveLine connects one cylinder chamber to the receiver.
type ValveLine struct {
	Corner  dynamo.Corner
	Chamber dynamo.Chamber
}

// Params is the validated, immutable configuration of a driver.
type Params struct {
	Corners [dynamo.NumCorners]corner.Spec
	Tank    TankSpec
	Valves  []ValveLine

	// FlowRate is the valve conductance in kg/(s·Pa). Zero means an open
	// valve equalizes pressure within a single tick.
	FlowRate float64
}

// CornerInput is the external command for one corner.
type CornerInput struct {
	Angle     float64 // rad
	HeadValve bool
	RodValve  bool
}

// Valve reports whether the flag for ch is open.
func (in CornerInput) Valve(ch dynamo.Chamber) bool {
	if ch == dynamo.Rod {
		return in.RodValve
	}
	return in.HeadValve
}

// Inputs is everything one tick consumes.
type Inputs struct {
	Corners [dynamo.NumCorners]CornerInput
}

// TankSnapshot is the outward view of the receiver.
type TankSnapshot struct {
	Pressure    float64 `json:"pressure"`
	Volume      float64 `json:"volume"`
	Temperature float64 `json:"temperature"`
	Mass        float64 `json:"mass"`
}

func tankSnapshot(t gas.Tank) TankSnapshot {
	return TankSnapshot{
		Pressure:    t.Pressure,
		Volume:      t.Volume,
		Temperature: t.Temperature,
		Mass:        t.Mass,
	}
}

// StateSnapshot is the aggregate produced once per tick. It holds only
// arrays and scalars, so a copy is a deep copy and can cross goroutines.
type StateSnapshot struct {
	Step    int                                `json:"step"`
	Time    float64                            `json:"time"`
	Corners [dynamo.NumCorners]corner.Snapshot `json:"corners"`
	Tank    TankSnapshot                       `json:"tank"`

	// Transferred is the gas mass that crossed open valves this tick, kg.
	Transferred float64 `json:"transferred"`
}

// TotalMass is the gas mass held by all chambers and the receiver.
func (s StateSnapshot) TotalMass() float64 {
	m := s.Tank.Mass
	for _, c := range s.Corners {
		m += c.Mass()
	}
	return m
}

// Profile produces tick inputs, e.g. from a road model.
type Profile interface {
	Inputs(t float64, step int) Inputs
}

type Metric interface {
	Name() string
	Observe(s StateSnapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnSnapshot(s StateSnapshot)
}

// RunConfig bounds a Runner session.
type RunConfig struct {
	Dt       float64
	Duration float64
	// KeepHistory stores every snapshot in the Result.
	KeepHistory bool
}

type Result struct {
	Snapshots  []StateSnapshot
	Final      StateSnapshot
	Metrics    map[string]float64
	StepsTaken int
	// Err is the tick error that halted the run, if any.
	Err error
}
