package gas

import (
	"fmt"
	"math"

	"github.com/san-kum/pneumostab/internal/dynamo"
)

// Exchange between columns happens at fixed volume and temperature: each
// column keeps its own T, only mass and pressure move. Total mass is
// conserved by every function in this file.

// Transfer moves dm kilograms from one column to another. A negative dm
// moves gas the other way.
func Transfer(from, to Column, dm float64) (Column, Column, error) {
	if !dynamo.Finite(dm) {
		return from, to, fmt.Errorf("%w: transfer mass %g", dynamo.ErrInvalidInput, dm)
	}
	nextFrom, err := from.WithMass(from.Mass - dm)
	if err != nil {
		return from, to, err
	}
	nextTo, err := to.WithMass(to.Mass + dm)
	if err != nil {
		return from, to, err
	}
	return nextFrom, nextTo, nil
}

// EqualizingMass is the mass that must leave a and enter b for both
// columns to reach the same pressure.
func EqualizingMass(a, b Column) float64 {
	ca, cb := a.Capacity(), b.Capacity()
	return (a.Mass*cb - b.Mass*ca) / (ca + cb)
}

// LimitedFlow is the mass moved from a to b over dt through an orifice with
// conductance k (kg/(s·Pa)). It never exceeds the equalizing mass, so a
// large step cannot reverse the pressure difference.
func LimitedFlow(a, b Column, k, dt float64) float64 {
	dm := k * (a.Pressure - b.Pressure) * dt
	eq := EqualizingMass(a, b)
	if math.Abs(dm) > math.Abs(eq) {
		return eq
	}
	return dm
}

// Equalize redistributes the combined mass of cols so that all of them end
// at one common pressure. The common pressure is returned alongside.
func Equalize(cols []Column) ([]Column, float64, error) {
	out := make([]Column, len(cols))
	copy(out, cols)
	if len(cols) < 2 {
		if len(cols) == 1 {
			return out, cols[0].Pressure, nil
		}
		return out, 0, nil
	}

	var mass, capacity float64
	for _, c := range cols {
		mass += c.Mass
		capacity += c.Capacity()
	}
	p := mass / capacity

	for i, c := range cols {
		next, err := c.WithMass(p * c.Capacity())
		if err != nil {
			return cols, 0, err
		}
		out[i] = next
	}
	return out, p, nil
}

// TotalMass sums the mass of cols.
func TotalMass(cols ...Column) float64 {
	sum := 0.0
	for _, c := range cols {
		sum += c.Mass
	}
	return sum
}
