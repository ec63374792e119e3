package geometry

import (
	"fmt"
	"math"

	"github.com/san-kum/pneumostab/internal/dynamo"
)

// Cylinder is a double-acting pneumatic cylinder, dimensions in mm.
type Cylinder struct {
	Bore            float64
	Rod             float64
	BodyLength      float64
	PistonThickness float64
}

func (c Cylinder) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"bore", c.Bore},
		{"rod diameter", c.Rod},
		{"body length", c.BodyLength},
		{"piston thickness", c.PistonThickness},
	} {
		if !dynamo.Positive(f.value) {
			return fmt.Errorf("%w: cylinder %s must be positive, got %g", dynamo.ErrInvalidConfiguration, f.name, f.value)
		}
	}
	if c.Rod >= c.Bore {
		return fmt.Errorf("%w: rod diameter %g must be smaller than bore %g", dynamo.ErrInvalidConfiguration, c.Rod, c.Bore)
	}
	if c.PistonThickness >= c.BodyLength {
		return fmt.Errorf("%w: piston thickness %g must be smaller than body length %g",
			dynamo.ErrInvalidConfiguration, c.PistonThickness, c.BodyLength)
	}
	return nil
}

// HeadArea is the full piston face area, mm².
func (c Cylinder) HeadArea() float64 {
	return math.Pi / 4 * c.Bore * c.Bore
}

// RodArea is the annular piston area on the rod side, mm².
func (c Cylinder) RodArea() float64 {
	return math.Pi / 4 * (c.Bore*c.Bore - c.Rod*c.Rod)
}

// WorkingLength is the usable piston travel, mm.
func (c Cylinder) WorkingLength() float64 {
	return c.BodyLength - c.PistonThickness
}

// Neutral is the piston position at which both chambers hold equal volume.
type Neutral struct {
	HeadArea float64 // mm²
	RodArea  float64 // mm²
	Working  float64 // mm
	Head     float64 // head chamber length, mm
	Rod      float64 // rod chamber length, mm
}

// Ratio is the neutral head length as a fraction of working travel.
func (n Neutral) Ratio() float64 { return n.Head / n.Working }

// HeadVolume is the head chamber volume at neutral, mm³.
func (n Neutral) HeadVolume() float64 { return n.HeadArea * n.Head }

// RodVolume is the rod chamber volume at neutral, mm³.
func (n Neutral) RodVolume() float64 { return n.RodArea * n.Rod }

// NeutralPosition solves A_head·L_head = A_rod·(L_working - L_head) in
// closed form.
func NeutralPosition(headArea, rodArea, working float64) (head, rod float64, err error) {
	if !dynamo.Positive(headArea) || !dynamo.Positive(rodArea) || !dynamo.Positive(working) {
		return 0, 0, fmt.Errorf("%w: neutral solve needs positive areas and travel (head=%g rod=%g working=%g)",
			dynamo.ErrInvalidConfiguration, headArea, rodArea, working)
	}
	head = rodArea * working / (headArea + rodArea)
	return head, working - head, nil
}

func (c Cylinder) Neutral() (Neutral, error) {
	if err := c.Validate(); err != nil {
		return Neutral{}, err
	}
	n := Neutral{HeadArea: c.HeadArea(), RodArea: c.RodArea(), Working: c.WorkingLength()}
	head, rod, err := NeutralPosition(n.HeadArea, n.RodArea, n.Working)
	if err != nil {
		return Neutral{}, err
	}
	n.Head, n.Rod = head, rod
	return n, nil
}
