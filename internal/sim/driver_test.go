package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/sim"
)

const dt = 1e-3

func presetParams(name string) sim.Params {
	p, err := config.GetPreset(name).Params()
	Expect(err).NotTo(HaveOccurred())
	return p
}

func newDriver(name string) *sim.Driver {
	d, err := sim.NewDriver(presetParams(name))
	Expect(err).NotTo(HaveOccurred())
	return d
}

func withAngle(in sim.Inputs, c dynamo.Corner, angle float64) sim.Inputs {
	in.Corners[c].Angle = angle
	return in
}

func openHeads(in sim.Inputs) sim.Inputs {
	for i := range in.Corners {
		in.Corners[i].HeadValve = true
	}
	return in
}

var _ = Describe("Driver", func() {
	Describe("construction", func() {
		It("starts every corner at the neutral position", func() {
			d := newDriver("default")
			s := d.Snapshot()

			Expect(s.Step).To(Equal(0))
			Expect(s.Time).To(BeZero())
			for _, c := range dynamo.Corners {
				n := d.Neutral(c)
				Expect(s.Corners[c].Corner).To(Equal(c))
				Expect(s.Corners[c].PistonRatio).To(BeNumerically("~", n.Ratio(), 1e-9))
				Expect(s.Corners[c].HeadPressure).To(Equal(config.DefaultPressure))
			}
			Expect(s.Tank.Pressure).To(Equal(config.DefaultTankPressure))
		})

		It("rejects corners in the wrong slot", func() {
			p := presetParams("default")
			p.Corners[0], p.Corners[1] = p.Corners[1], p.Corners[0]
			_, err := sim.NewDriver(p)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		})

		It("rejects a negative flow rate", func() {
			p := presetParams("default")
			p.FlowRate = -1
			_, err := sim.NewDriver(p)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		})

		It("rejects duplicate valve lines", func() {
			p := presetParams("linked")
			p.Valves = append(p.Valves, p.Valves[0])
			_, err := sim.NewDriver(p)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		})
	})

	Describe("Advance", func() {
		var d *sim.Driver

		BeforeEach(func() {
			d = newDriver("default")
		})

		It("is idempotent for repeated identical inputs", func() {
			in := withAngle(d.RestInputs(), dynamo.FrontRight, 0.05)

			first, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())
			second, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Corners).To(Equal(first.Corners))
			Expect(second.Tank).To(Equal(first.Tank))
			Expect(second.Step).To(Equal(2))
			Expect(second.Time).To(BeNumerically("~", 2*dt, 1e-15))
		})

		It("is idempotent in adiabatic mode", func() {
			d := newDriver("adiabatic")
			in := withAngle(d.RestInputs(), dynamo.RearLeft, 0.08)

			first, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Corners[dynamo.RearLeft].HeadTemperature).NotTo(Equal(config.DefaultTemperature))

			second, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Corners).To(Equal(first.Corners))
		})

		It("compresses the head chamber when the lever rises", func() {
			before := d.Snapshot()
			in := withAngle(d.RestInputs(), dynamo.FrontRight, 0.1)

			after, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())

			fr := after.Corners[dynamo.FrontRight]
			Expect(fr.HeadVolume).To(BeNumerically("<", before.Corners[dynamo.FrontRight].HeadVolume))
			Expect(fr.HeadPressure).To(BeNumerically(">", config.DefaultPressure))
			Expect(fr.RodPressure).To(BeNumerically("<", config.DefaultPressure))

			// Isothermal: pV is unchanged.
			Expect(fr.HeadPressure * fr.HeadVolume).To(BeNumerically("~",
				before.Corners[dynamo.FrontRight].HeadPressure*before.Corners[dynamo.FrontRight].HeadVolume, 1e-9))

			rl := after.Corners[dynamo.RearLeft]
			Expect(rl.HeadPressure).To(BeNumerically("~", before.Corners[dynamo.RearLeft].HeadPressure, 1e-3))
			Expect(rl.Angle).To(Equal(before.Corners[dynamo.RearLeft].Angle))
		})

		It("rejects a non-positive dt without committing", func() {
			before := d.Snapshot()
			_, err := d.Advance(0, d.RestInputs())

			Expect(err).To(MatchError(dynamo.ErrInvalidInput))
			Expect(sim.IsTickError(err)).To(BeTrue())
			Expect(d.Snapshot()).To(Equal(before))
			Expect(d.Step()).To(Equal(0))
		})

		It("commits nothing when one corner leaves its stroke", func() {
			_, err := d.Advance(dt, withAngle(d.RestInputs(), dynamo.FrontLeft, 0.05))
			Expect(err).NotTo(HaveOccurred())
			before := d.Snapshot()

			in := withAngle(d.RestInputs(), dynamo.FrontLeft, 0.08)
			in = withAngle(in, dynamo.RearRight, -1.2)
			_, err = d.Advance(dt, in)

			Expect(err).To(MatchError(dynamo.ErrGeometryOutOfRange))
			var te *dynamo.TickError
			Expect(err).To(BeAssignableToTypeOf(te))
			te = err.(*dynamo.TickError)
			Expect(te.Corner).To(Equal(dynamo.RearRight))
			Expect(te.Step).To(Equal(2))

			Expect(d.Snapshot()).To(Equal(before))
			Expect(d.Step()).To(Equal(1))
		})

		It("reports a NaN angle as invalid input", func() {
			_, err := d.Advance(dt, withAngle(d.RestInputs(), dynamo.RearLeft, math.NaN()))
			Expect(err).To(MatchError(dynamo.ErrInvalidInput))
		})

		It("ignores valve flags without a line", func() {
			before := d.Snapshot()
			after, err := d.Advance(dt, openHeads(d.RestInputs()))
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Tank).To(Equal(before.Tank))
			Expect(after.Transferred).To(BeZero())
		})
	})

	Describe("valve exchange", func() {
		It("equalizes open chambers with the receiver in one tick", func() {
			d := newDriver("linked")
			before := d.Snapshot()

			after, err := d.Advance(dt, openHeads(d.RestInputs()))
			Expect(err).NotTo(HaveOccurred())

			p := after.Tank.Pressure
			Expect(p).To(BeNumerically("<", config.DefaultTankPressure))
			Expect(p).To(BeNumerically(">", config.DefaultPressure))
			for _, c := range dynamo.Corners {
				Expect(after.Corners[c].HeadPressure).To(BeNumerically("~", p, p*1e-12))
				Expect(after.Corners[c].RodPressure).To(BeNumerically("~", before.Corners[c].RodPressure, 1e-3))
			}
			Expect(after.TotalMass()).To(BeNumerically("~", before.TotalMass(), before.TotalMass()*1e-12))
			Expect(after.Transferred).To(BeNumerically(">", 0))
		})

		It("keeps closed chambers isolated", func() {
			d := newDriver("linked")
			before := d.Snapshot()

			in := d.RestInputs()
			in.Corners[dynamo.FrontLeft].HeadValve = true
			after, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())

			Expect(after.Corners[dynamo.FrontLeft].HeadPressure).To(BeNumerically("~", after.Tank.Pressure, 1e-6))
			Expect(after.Corners[dynamo.FrontRight].HeadPressure).To(BeNumerically("~", before.Corners[dynamo.FrontRight].HeadPressure, 1e-3))
		})

		It("limits flow by conductance and conserves mass", func() {
			d := newDriver("throttled")
			before := d.Snapshot()
			in := d.RestInputs()
			for i := range in.Corners {
				in.Corners[i].HeadValve = true
				in.Corners[i].RodValve = true
			}

			prev := before
			for i := 0; i < 50; i++ {
				next, err := d.Advance(dt, in)
				Expect(err).NotTo(HaveOccurred())
				Expect(next.Tank.Pressure).To(BeNumerically("<", prev.Tank.Pressure))
				Expect(next.Corners[dynamo.RearLeft].HeadPressure).To(BeNumerically(">", prev.Corners[dynamo.RearLeft].HeadPressure))
				Expect(next.Tank.Pressure).To(BeNumerically(">", next.Corners[dynamo.RearLeft].HeadPressure))
				prev = next
			}
			Expect(prev.TotalMass()).To(BeNumerically("~", before.TotalMass(), before.TotalMass()*1e-12))
		})

		It("moves gas out of a compressed chamber", func() {
			d := newDriver("linked")
			in := withAngle(openHeads(d.RestInputs()), dynamo.FrontRight, 0.1)
			_, err := d.Advance(dt, in)
			Expect(err).NotTo(HaveOccurred())

			settled, err := d.Advance(dt, openHeads(d.RestInputs()))
			Expect(err).NotTo(HaveOccurred())
			for _, c := range dynamo.Corners {
				Expect(settled.Corners[c].HeadPressure).To(BeNumerically("~", settled.Tank.Pressure, settled.Tank.Pressure*1e-12))
			}
		})
	})
})
