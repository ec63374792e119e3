package geometry

import (
	"math"
	"testing"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceCylinder = Cylinder{Bore: 80, Rod: 32, BodyLength: 250, PistonThickness: 20}

func TestComputeJRod_RigidLink(t *testing.T) {
	jArm := dynamo.Vec3{-150, 60, 1300}
	length := 315.0

	for i := -720; i <= 720; i++ {
		angle := float64(i) * math.Pi / 180 * 0.37
		tip := ComputeJRod(jArm, length, angle)
		assert.InDelta(t, length, tip.Sub(jArm).Len(), 1e-9, "angle %v", angle)
		assert.InDelta(t, jArm[2], tip[2], 1e-12, "tip must stay in the transverse plane")
	}
}

func TestComputeJRod_Convention(t *testing.T) {
	tip := ComputeJRod(dynamo.Vec3{}, 100, 0)
	assert.InDelta(t, 100, tip[0], 1e-12)
	assert.InDelta(t, 0, tip[1], 1e-12)

	tip = ComputeJRod(dynamo.Vec3{}, 100, math.Pi/2)
	assert.InDelta(t, 0, tip[0], 1e-12)
	assert.InDelta(t, 100, tip[1], 1e-12)
}

func TestLever_Mirror(t *testing.T) {
	right := Lever{JArm: dynamo.Vec3{10, 0, 0}, Length: 200}
	left := Lever{JArm: dynamo.Vec3{-10, 0, 0}, Length: 200, Mirror: true}

	for _, angle := range []float64{-0.4, 0, 0.25} {
		r := right.JRod(angle)
		l := left.JRod(angle)
		assert.InDelta(t, -r[0], l[0], 1e-9)
		assert.InDelta(t, r[1], l[1], 1e-9)
		assert.InDelta(t, 200, l.Sub(left.JArm).Len(), 1e-9)
	}
}

func TestLever_Validate(t *testing.T) {
	assert.NoError(t, Lever{Length: 1}.Validate())
	assert.ErrorIs(t, Lever{Length: 0}.Validate(), dynamo.ErrInvalidConfiguration)
	assert.ErrorIs(t, Lever{JArm: dynamo.Vec3{math.NaN(), 0, 0}, Length: 1}.Validate(), dynamo.ErrInvalidConfiguration)
}

func TestNeutralPosition_ReferenceCylinder(t *testing.T) {
	n, err := referenceCylinder.Neutral()
	require.NoError(t, err)

	assert.InDelta(t, 5027, n.HeadArea, 1)
	assert.InDelta(t, 4223, n.RodArea, 1)
	assert.Equal(t, 230.0, n.Working)
	assert.InDelta(t, 104.9, n.Head, 0.2)
	assert.InDelta(t, 125.1, n.Rod, 0.2)
	assert.InDelta(t, 230, n.Head+n.Rod, 1e-12)

	head, rod := n.HeadVolume(), n.RodVolume()
	assert.Less(t, math.Abs(head-rod)/head, 1e-4, "neutral volumes %v vs %v", head, rod)
}

func TestNeutralPosition_Rejects(t *testing.T) {
	_, _, err := NeutralPosition(0, 1, 1)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfiguration)

	_, err = Cylinder{Bore: 30, Rod: 32, BodyLength: 250, PistonThickness: 20}.Neutral()
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfiguration)

	_, err = Cylinder{Bore: 80, Rod: 32, BodyLength: 20, PistonThickness: 20}.Neutral()
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfiguration)
}

// testCorner places the tail straight above the lever tip so that angle 0
// sits exactly at the neutral stroke.
func testCorner(t *testing.T) (Lever, Linkage, Neutral) {
	t.Helper()
	n, err := referenceCylinder.Neutral()
	require.NoError(t, err)

	lever := Lever{JArm: dynamo.Vec3{0, 0, 0}, Length: 300}
	link := Linkage{TailLink: 50, RodLink: 100}
	link.JTail = PlaceTail(lever.JRod(0), dynamo.Vec3{0, 1, 0}, link.TailLink+n.Head+link.RodLink)
	return lever, link, n
}

func TestComputePistonStroke_RestIsNeutral(t *testing.T) {
	lever, link, n := testCorner(t)

	s, err := link.Stroke(referenceCylinder, lever.JRod(0))
	require.NoError(t, err)
	assert.InDelta(t, n.Head, s.Position, 1e-9)
	assert.InDelta(t, n.Ratio(), s.Ratio, 1e-12)
}

func TestComputePistonStroke_Monotonic(t *testing.T) {
	lever, link, _ := testCorner(t)

	prev := math.Inf(1)
	for i := -30; i <= 30; i++ {
		angle := float64(i) * 0.01
		s, err := link.Stroke(referenceCylinder, lever.JRod(angle))
		require.NoError(t, err, "angle %v", angle)
		assert.GreaterOrEqual(t, s.Ratio, 0.0)
		assert.LessOrEqual(t, s.Ratio, 1.0)
		assert.Less(t, s.Ratio, prev, "ratio must fall as the tip rises towards the tail (angle %v)", angle)
		prev = s.Ratio
	}
}

func TestComputePistonStroke_Unreachable(t *testing.T) {
	lever := Lever{JArm: dynamo.Vec3{}, Length: 300}
	jTail := dynamo.Vec3{0, 5000, 0}

	for i := 0; i < 360; i++ {
		angle := float64(i) * math.Pi / 180
		_, err := ComputePistonStroke(jTail, lever.JRod(angle), 10, 10, 250, 20)
		assert.ErrorIs(t, err, dynamo.ErrGeometryOutOfRange, "angle %v", angle)
	}
}

func TestComputePistonStroke_TooShort(t *testing.T) {
	// links alone are longer than the anchor distance: piston would sit behind the head
	_, err := ComputePistonStroke(dynamo.Vec3{}, dynamo.Vec3{100, 0, 0}, 80, 80, 250, 20)
	assert.ErrorIs(t, err, dynamo.ErrGeometryOutOfRange)
}

func TestComputePistonStroke_BadCylinder(t *testing.T) {
	_, err := ComputePistonStroke(dynamo.Vec3{}, dynamo.Vec3{100, 0, 0}, 0, 0, 20, 20)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfiguration)
}

func TestLinkage_Validate(t *testing.T) {
	assert.NoError(t, Linkage{}.Validate())
	assert.ErrorIs(t, Linkage{TailLink: -1}.Validate(), dynamo.ErrInvalidConfiguration)
	assert.ErrorIs(t, Linkage{RodLink: math.Inf(1)}.Validate(), dynamo.ErrInvalidConfiguration)
}
