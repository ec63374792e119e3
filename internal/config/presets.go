package config

import (
	"sort"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/geometry"
)

// Reference frame of a mid-size passenger car, in mm.
const (
	trackHalf   = 150.0
	armHeight   = 60.0
	axleOffset  = 1300.0
	leverLength = 315.0
	tailLink    = 60.0
	rodLink     = 120.0
	// cylinderLean tilts the cylinder axis inboard from vertical.
	cylinderLean = 0.25
)

var referenceCylinder = geometry.Cylinder{Bore: 80, Rod: 32, BodyLength: 250, PistonThickness: 20}

var Presets = map[string]func() *Scenario{
	"default": DefaultScenario,
	"adiabatic": func() *Scenario {
		s := newFrame("adiabatic", dynamo.Adiabatic)
		s.Road.Frequency = 4
		return s
	},
	"linked": func() *Scenario {
		s := newFrame("linked", dynamo.Isothermal)
		s.Valves.Lines = allLines(dynamo.Head)
		s.Road.ValveOpen = []string{"head"}
		return s
	},
	"throttled": func() *Scenario {
		s := newFrame("throttled", dynamo.Isothermal)
		s.Valves.FlowRate = 2e-8
		s.Valves.Lines = append(allLines(dynamo.Head), allLines(dynamo.Rod)...)
		s.Road.ValveOpen = []string{"head", "rod"}
		return s
	},
	"bump": func() *Scenario {
		s := newFrame("bump", dynamo.Adiabatic)
		s.Duration = 3
		s.Road.Profile = "bump"
		s.Road.BumpTime = 0.5
		s.Road.Speed = 15
		return s
	},
	"rough": func() *Scenario {
		s := newFrame("rough", dynamo.Isothermal)
		s.Duration = 10
		s.Seed = 42
		s.Road.Profile = "rough"
		s.Road.Amplitude = 0.08
		s.Road.Frequency = 6
		s.Valves.FlowRate = 5e-8
		s.Valves.Lines = allLines(dynamo.Head)
		s.Road.ValveOpen = []string{"head"}
		return s
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Scenario {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newFrame(name string, mode dynamo.Mode) *Scenario {
	s := &Scenario{
		Name:     name,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Gas: GasConfig{
			Mode:        mode.String(),
			Gamma:       dynamo.StandardGamma,
			GasConstant: dynamo.AirGasConstant,
		},
		NeutralToleranceMM: DefaultNeutralTolerance,
		Tank: TankConfig{
			Pressure:    DefaultTankPressure,
			Volume:      DefaultTankVolume,
			Temperature: DefaultTemperature,
		},
		Road: RoadConfig{
			Profile:   "sine",
			Amplitude: DefaultAmplitude,
			Frequency: DefaultFrequency,
			Speed:     20,
			Wheelbase: 2 * axleOffset,
		},
	}
	for _, c := range dynamo.Corners {
		*s.Corners.Get(c) = frameCorner(c)
	}
	return s
}

// frameCorner lays out one corner so that its rest angle puts the piston
// exactly at the neutral position.
func frameCorner(c dynamo.Corner) CornerConfig {
	side, axle := 1.0, axleOffset
	if c.Left() {
		side = -1
	}
	if !c.Front() {
		axle = -axleOffset
	}

	lever := geometry.Lever{
		JArm:   dynamo.Vec3{side * trackHalf, armHeight, axle},
		Length: leverLength,
		Mirror: c.Left(),
	}
	n, _ := referenceCylinder.Neutral()
	lean := dynamo.Vec3{-side * cylinderLean, 1, 0}
	tail := geometry.PlaceTail(lever.JRod(0), lean, tailLink+n.Head+rodLink)

	return CornerConfig{
		JArm:            [3]float64(lever.JArm),
		JTail:           [3]float64(tail),
		LeverLength:     leverLength,
		TailLink:        tailLink,
		RodLink:         rodLink,
		Bore:            referenceCylinder.Bore,
		Rod:             referenceCylinder.Rod,
		BodyLength:      referenceCylinder.BodyLength,
		PistonThickness: referenceCylinder.PistonThickness,
		DeadVolume:      2000,
		Pressure:        DefaultPressure,
		Temperature:     DefaultTemperature,
	}
}

func allLines(ch dynamo.Chamber) []ValveLineConfig {
	lines := make([]ValveLineConfig, 0, dynamo.NumCorners)
	for _, c := range dynamo.Corners {
		lines = append(lines, ValveLineConfig{Corner: c.String(), Chamber: ch.String()})
	}
	return lines
}
