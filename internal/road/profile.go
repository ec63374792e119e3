package road

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
)

// Valves is the valve schedule shared by every corner.
type Valves struct {
	Head bool
	Rod  bool
}

// Params shape a road profile. Amplitude is a lever angle in rad, Wheelbase
// is in mm, Speed in m/s.
type Params struct {
	Rest      [dynamo.NumCorners]float64
	Amplitude float64
	Frequency float64
	Speed     float64
	Wheelbase float64
	BumpTime  float64
	Seed      int64
	Valves    Valves
}

// lag is the delay between the front and rear axle crossing the same spot.
func (p Params) lag() float64 {
	if p.Speed <= 0 {
		return 0
	}
	return p.Wheelbase * dynamo.MM / p.Speed
}

func (p Params) inputs(angle func(c dynamo.Corner, t float64) float64, t float64) sim.Inputs {
	var in sim.Inputs
	lag := p.lag()
	for i, c := range dynamo.Corners {
		tc := t
		if !c.Front() {
			tc -= lag
		}
		in.Corners[i] = sim.CornerInput{
			Angle:     p.Rest[i] + angle(c, tc),
			HeadValve: p.Valves.Head,
			RodValve:  p.Valves.Rod,
		}
	}
	return in
}

// Flat holds every lever at rest.
type Flat struct {
	Params
}

func NewFlat(p Params) *Flat { return &Flat{Params: p} }

func (f *Flat) Inputs(t float64, _ int) sim.Inputs {
	return f.inputs(func(dynamo.Corner, float64) float64 { return 0 }, t)
}

// Sine drives both sides in phase; the rear axle follows the front by the
// wheelbase travel time.
type Sine struct {
	Params
}

func NewSine(p Params) *Sine { return &Sine{Params: p} }

func (s *Sine) Inputs(t float64, _ int) sim.Inputs {
	return s.inputs(func(_ dynamo.Corner, tc float64) float64 {
		if tc < 0 {
			return 0
		}
		return s.Amplitude * math.Sin(2*math.Pi*s.Frequency*tc)
	}, t)
}

// Bump is a single half-sine bump across the full track, reached by the
// front axle at BumpTime. Its length in time is half a period of Frequency.
type Bump struct {
	Params
}

func NewBump(p Params) *Bump { return &Bump{Params: p} }

func (b *Bump) Inputs(t float64, _ int) sim.Inputs {
	width := 0.5 / b.Frequency
	return b.inputs(func(_ dynamo.Corner, tc float64) float64 {
		x := tc - b.BumpTime
		if x < 0 || x > width {
			return 0
		}
		return b.Amplitude * math.Sin(math.Pi*x/width)
	}, t)
}

const roughHarmonics = 8

type harmonic struct {
	weight float64
	freq   float64
	phase  float64
}

// Rough is a seeded random road: a sum of harmonics around Frequency with
// random phases. The left and right tracks are independent, the rear wheel
// of each track repeats its front. |angle - rest| never exceeds Amplitude.
type Rough struct {
	Params
	tracks [2][roughHarmonics]harmonic
}

func NewRough(p Params) *Rough {
	r := &Rough{Params: p}
	rng := rand.New(rand.NewPCG(uint64(p.Seed), 0x9e3779b97f4a7c15))
	for side := range r.tracks {
		var total float64
		for k := range r.tracks[side] {
			h := harmonic{
				weight: 1 / float64(k+1),
				freq:   p.Frequency * (0.5 + 1.5*rng.Float64()),
				phase:  2 * math.Pi * rng.Float64(),
			}
			total += h.weight
			r.tracks[side][k] = h
		}
		for k := range r.tracks[side] {
			r.tracks[side][k].weight /= total
		}
	}
	return r
}

func (r *Rough) Inputs(t float64, _ int) sim.Inputs {
	return r.inputs(func(c dynamo.Corner, tc float64) float64 {
		track := &r.tracks[0]
		if !c.Left() {
			track = &r.tracks[1]
		}
		var sum float64
		for _, h := range track {
			sum += h.weight * math.Sin(2*math.Pi*h.freq*tc+h.phase)
		}
		return r.Amplitude * sum
	}, t)
}
