package geometry

import (
	"fmt"

	"github.com/san-kum/pneumostab/internal/dynamo"
)

// Linkage connects the frame anchor to the cylinder tail and the piston rod
// to the lever tip. Lengths in mm.
type Linkage struct {
	JTail    dynamo.Vec3
	TailLink float64
	RodLink  float64
}

func (l Linkage) Validate() error {
	if !dynamo.VecFinite(l.JTail) {
		return fmt.Errorf("%w: tail anchor %v is not finite", dynamo.ErrInvalidConfiguration, l.JTail)
	}
	if !dynamo.Finite(l.TailLink) || l.TailLink < 0 {
		return fmt.Errorf("%w: tail link must be >= 0, got %g", dynamo.ErrInvalidConfiguration, l.TailLink)
	}
	if !dynamo.Finite(l.RodLink) || l.RodLink < 0 {
		return fmt.Errorf("%w: rod link must be >= 0, got %g", dynamo.ErrInvalidConfiguration, l.RodLink)
	}
	return nil
}

// Stroke is the piston location inside the cylinder body.
type Stroke struct {
	Distance float64 // |j_rod - j_tail|, mm
	Position float64 // head chamber length, mm from the cylinder head
	Ratio    float64 // Position / working length, in [0, 1]
}

// ComputePistonStroke derives the piston position from the distance between
// the tail anchor and the lever tip. A distance the links cannot span is
// reported as ErrGeometryOutOfRange, never clamped.
func ComputePistonStroke(jTail, jRod dynamo.Vec3, tailLink, rodLink, bodyLength, pistonThickness float64) (Stroke, error) {
	if !dynamo.Positive(bodyLength) || !dynamo.Positive(pistonThickness) || pistonThickness >= bodyLength {
		return Stroke{}, fmt.Errorf("%w: body length %g, piston thickness %g",
			dynamo.ErrInvalidConfiguration, bodyLength, pistonThickness)
	}
	working := bodyLength - pistonThickness

	d := jRod.Sub(jTail).Len()
	pos := d - tailLink - rodLink
	if !dynamo.Finite(pos) || pos < 0 || pos > working {
		return Stroke{}, fmt.Errorf("%w: distance %.3f mm gives piston position %.3f mm outside [0, %.3f]",
			dynamo.ErrGeometryOutOfRange, d, pos, working)
	}
	return Stroke{Distance: d, Position: pos, Ratio: pos / working}, nil
}

// Stroke evaluates the piston position for the linkage, cylinder and tip.
func (l Linkage) Stroke(c Cylinder, jRod dynamo.Vec3) (Stroke, error) {
	return ComputePistonStroke(l.JTail, jRod, l.TailLink, l.RodLink, c.BodyLength, c.PistonThickness)
}

// PlaceTail returns the anchor that sits distance mm from jRod along
// direction. Used to build frames whose rest angle lands on a chosen stroke.
func PlaceTail(jRod, direction dynamo.Vec3, distance float64) dynamo.Vec3 {
	return jRod.Add(direction.Normalize().Mul(distance))
}
