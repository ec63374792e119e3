package metrics

import (
	"math"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
)

// StrokeSpan is the widest piston ratio range covered by any one corner.
type StrokeSpan struct {
	name     string
	min, max [dynamo.NumCorners]float64
	samples  int
}

func NewStrokeSpan() *StrokeSpan {
	return &StrokeSpan{name: "stroke_span"}
}

func (s *StrokeSpan) Name() string { return s.name }

func (s *StrokeSpan) Observe(snap sim.StateSnapshot) {
	for i, c := range snap.Corners {
		if s.samples == 0 {
			s.min[i], s.max[i] = c.PistonRatio, c.PistonRatio
			continue
		}
		s.min[i] = math.Min(s.min[i], c.PistonRatio)
		s.max[i] = math.Max(s.max[i], c.PistonRatio)
	}
	s.samples++
}

func (s *StrokeSpan) Value() float64 {
	span := 0.0
	for i := range s.min {
		span = math.Max(span, s.max[i]-s.min[i])
	}
	return span
}

func (s *StrokeSpan) Reset() {
	s.min = [dynamo.NumCorners]float64{}
	s.max = [dynamo.NumCorners]float64{}
	s.samples = 0
}

// StrokeMargin is the fraction of snapshots in which every piston stays at
// least margin (as a ratio) away from both end stops.
type StrokeMargin struct {
	name       string
	margin     float64
	violations int
	samples    int
}

func NewStrokeMargin(margin float64) *StrokeMargin {
	return &StrokeMargin{
		name:   "stroke_margin",
		margin: margin,
	}
}

func (s *StrokeMargin) Name() string {
	return s.name
}

func (s *StrokeMargin) Observe(snap sim.StateSnapshot) {
	s.samples++
	for _, c := range snap.Corners {
		if c.PistonRatio < s.margin || c.PistonRatio > 1-s.margin {
			s.violations++
			break
		}
	}
}

func (s *StrokeMargin) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *StrokeMargin) Reset() {
	s.violations = 0
	s.samples = 0
}
