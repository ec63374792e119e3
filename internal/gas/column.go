package gas

import (
	"fmt"
	"math"

	"github.com/san-kum/pneumostab/internal/dynamo"
)

// Column is one enclosed gas volume: a cylinder chamber or the receiver.
// It is a value; every operation returns a new Column.
type Column struct {
	Pressure    float64 // Pa
	Volume      float64 // m³
	Temperature float64 // K
	Mass        float64 // kg
	R           float64 // J/(kg·K)
}

// NewCylinderGas builds the initial gas state of one cylinder chamber.
// Mass follows from the ideal gas law.
func NewCylinderGas(pressure, volume, temperature, r float64) (Column, error) {
	return newColumn("cylinder", pressure, volume, temperature, r)
}

func newColumn(kind string, pressure, volume, temperature, r float64) (Column, error) {
	checks := []struct {
		name  string
		value float64
	}{
		{"pressure", pressure},
		{"volume", volume},
		{"temperature", temperature},
		{"gas constant", r},
	}
	for _, c := range checks {
		if !dynamo.Positive(c.value) {
			return Column{}, fmt.Errorf("%w: %s %s must be positive, got %g",
				dynamo.ErrInvalidConfiguration, kind, c.name, c.value)
		}
	}
	return Column{
		Pressure:    pressure,
		Volume:      volume,
		Temperature: temperature,
		Mass:        pressure * volume / (r * temperature),
		R:           r,
	}, nil
}

// IsoUpdate compresses or expands the column at constant temperature.
func IsoUpdate(c Column, newVolume float64) (Column, error) {
	if err := checkVolume(newVolume); err != nil {
		return c, err
	}
	next := c
	next.Pressure = c.Pressure * (c.Volume / newVolume)
	next.Volume = newVolume
	return next, nil
}

// AdiabaticUpdate applies a reversible adiabatic change with exponent gamma.
func AdiabaticUpdate(c Column, newVolume, gamma float64) (Column, error) {
	if err := checkVolume(newVolume); err != nil {
		return c, err
	}
	if err := CheckGamma(gamma); err != nil {
		return c, err
	}
	ratio := c.Volume / newVolume
	next := c
	next.Pressure = c.Pressure * math.Pow(ratio, gamma)
	next.Temperature = c.Temperature * math.Pow(ratio, gamma-1)
	next.Volume = newVolume
	return next, nil
}

// ApplyInstantVolumeChange models a step change in volume that is faster
// than heat exchange. The adiabatic law stands in for the transient; no
// heat transfer is modelled. Callers clamp piston travel beforehand.
func ApplyInstantVolumeChange(c Column, delta, gamma float64) (Column, error) {
	if !dynamo.Finite(delta) {
		return c, fmt.Errorf("%w: volume delta %g", dynamo.ErrInvalidVolume, delta)
	}
	return AdiabaticUpdate(c, c.Volume+delta, gamma)
}

// Update dispatches on mode. Gamma is ignored for isothermal updates. An
// adiabatic tick is one instant volume step from the current volume.
func (c Column) Update(mode dynamo.Mode, newVolume, gamma float64) (Column, error) {
	switch mode {
	case dynamo.Isothermal:
		return IsoUpdate(c, newVolume)
	case dynamo.Adiabatic:
		return ApplyInstantVolumeChange(c, newVolume-c.Volume, gamma)
	default:
		return c, fmt.Errorf("%w: unknown mode %v", dynamo.ErrInvalidConfiguration, mode)
	}
}

// WithMass returns the column holding mass m at unchanged volume and
// temperature.
func (c Column) WithMass(m float64) (Column, error) {
	if !dynamo.Positive(m) {
		return c, fmt.Errorf("%w: gas mass must stay positive, got %g", dynamo.ErrInvalidVolume, m)
	}
	next := c
	next.Mass = m
	next.Pressure = m * c.R * c.Temperature / c.Volume
	return next, nil
}

// Capacity is the mass stored per pascal at the current volume and
// temperature, V/(R·T).
func (c Column) Capacity() float64 {
	return c.Volume / (c.R * c.Temperature)
}

// Residual is the relative ideal-gas-law error |PV - mRT| / PV.
func (c Column) Residual() float64 {
	pv := c.Pressure * c.Volume
	if pv == 0 {
		return math.Inf(1)
	}
	return math.Abs(pv-c.Mass*c.R*c.Temperature) / pv
}

// CheckGamma validates a heat capacity ratio.
func CheckGamma(gamma float64) error {
	if !dynamo.Finite(gamma) || gamma <= 1 {
		return fmt.Errorf("%w: got %g", dynamo.ErrInvalidGamma, gamma)
	}
	return nil
}

func checkVolume(v float64) error {
	if !dynamo.Positive(v) {
		return fmt.Errorf("%w: got %g m³", dynamo.ErrInvalidVolume, v)
	}
	return nil
}
