package geometry

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pneumostab/internal/dynamo"
)

// ComputeJRod rotates a lever of the given length about jArm. The lever
// lies in the transverse X-Y plane; angle 0 points along +X, positive
// angles lift the tip towards +Y.
func ComputeJRod(jArm dynamo.Vec3, length, angle float64) dynamo.Vec3 {
	arm := mgl64.Rotate3DZ(angle).Mul3x1(dynamo.Vec3{length, 0, 0})
	return jArm.Add(arm)
}

// Lever is one corner's rigid suspension arm.
type Lever struct {
	JArm   dynamo.Vec3 // pivot on the frame, mm
	Length float64     // mm
	// Mirror flips the lever to point along -X, for left-side corners.
	// Positive angles still lift the tip.
	Mirror bool
}

func (l Lever) Validate() error {
	if !dynamo.VecFinite(l.JArm) {
		return fmt.Errorf("%w: lever pivot %v is not finite", dynamo.ErrInvalidConfiguration, l.JArm)
	}
	if !dynamo.Positive(l.Length) {
		return fmt.Errorf("%w: lever length must be positive, got %g", dynamo.ErrInvalidConfiguration, l.Length)
	}
	return nil
}

// JRod is the lever tip position for angle.
func (l Lever) JRod(angle float64) dynamo.Vec3 {
	if !l.Mirror {
		return ComputeJRod(l.JArm, l.Length, angle)
	}
	tip := ComputeJRod(dynamo.Vec3{}, l.Length, angle)
	tip[0] = -tip[0]
	return l.JArm.Add(tip)
}

