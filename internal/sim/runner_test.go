package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pneumostab/internal/config"
	"github.com/san-kum/pneumostab/internal/dynamo"
	"github.com/san-kum/pneumostab/internal/metrics"
	"github.com/san-kum/pneumostab/internal/road"
	"github.com/san-kum/pneumostab/internal/sim"
)

// dropAt holds the rest inputs and pulls one lever off its stroke at step.
type dropAt struct {
	rest sim.Inputs
	step int
}

func (p dropAt) Inputs(_ float64, step int) sim.Inputs {
	in := p.rest
	if step >= p.step {
		in.Corners[dynamo.RearLeft].Angle = -1.2
	}
	return in
}

type counter struct{ n int }

func (c *counter) OnSnapshot(sim.StateSnapshot) { c.n++ }

func scenarioProfile(sc *config.Scenario) sim.Profile {
	prof, err := road.NewRegistry().FromScenario(sc)
	Expect(err).NotTo(HaveOccurred())
	return prof
}

var _ = Describe("Runner", func() {
	It("covers the duration and records history", func() {
		sc := config.GetPreset("default")
		d := newDriver("default")
		r := sim.NewRunner(d, scenarioProfile(sc))
		obs := &counter{}
		r.AddObserver(obs)
		for _, m := range metrics.Default(dynamo.AirGasConstant) {
			r.AddMetric(m)
		}

		res, err := r.Run(context.Background(), sim.RunConfig{Dt: 0.001, Duration: 0.5, KeepHistory: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(500))
		Expect(res.Snapshots).To(HaveLen(501))
		Expect(obs.n).To(Equal(501))
		Expect(res.Final.Step).To(Equal(500))
		Expect(res.Final.Time).To(BeNumerically("~", 0.5, 1e-9))

		Expect(res.Metrics).To(HaveKey("mass_drift"))
		Expect(res.Metrics["mass_drift"]).To(BeNumerically("<", 1e-12))
		Expect(res.Metrics["gas_law_residual"]).To(BeNumerically("<", 1e-9))
		Expect(res.Metrics["stroke_span"]).To(BeNumerically(">", 0))
		Expect(res.Metrics["peak_pressure"]).To(BeNumerically(">", config.DefaultPressure))
	})

	It("halts on the first failed tick and keeps the partial result", func() {
		d := newDriver("default")
		r := sim.NewRunner(d, dropAt{rest: d.RestInputs(), step: 5})

		res, err := r.Run(context.Background(), sim.RunConfig{Dt: dt, Duration: 0.1})
		Expect(err).To(MatchError(dynamo.ErrGeometryOutOfRange))
		Expect(res).NotTo(BeNil())
		Expect(res.Err).To(Equal(err))
		Expect(res.StepsTaken).To(Equal(4))
		Expect(res.Final.Step).To(Equal(4))
		Expect(d.Step()).To(Equal(4))
	})

	It("stops when the context is cancelled", func() {
		d := newDriver("default")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := sim.NewRunner(d, dropAt{rest: d.RestInputs(), step: 1 << 30}).
			Run(ctx, sim.RunConfig{Dt: dt, Duration: 1})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.StepsTaken).To(Equal(0))
	})

	DescribeTable("rejects bad run configurations",
		func(cfg sim.RunConfig) {
			d := newDriver("default")
			_, err := sim.NewRunner(d, dropAt{rest: d.RestInputs(), step: 1}).Run(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
		},
		Entry("zero dt", sim.RunConfig{Dt: 0, Duration: 1}),
		Entry("zero duration", sim.RunConfig{Dt: dt, Duration: 0}),
		Entry("dt beyond duration", sim.RunConfig{Dt: 2, Duration: 1}),
	)
})

var _ = Describe("Ensemble", func() {
	It("runs independent scenarios and keeps their order", func() {
		e := sim.NewEnsemble(2)
		names := []string{"default", "linked", "throttled", "adiabatic"}
		for _, name := range names {
			sc := config.GetPreset(name)
			p, err := sc.Params()
			Expect(err).NotTo(HaveOccurred())
			e.Add(sim.Job{
				Name:    name,
				Params:  p,
				Profile: scenarioProfile(sc),
				Config:  sim.RunConfig{Dt: sc.Dt, Duration: 0.2},
				Metrics: func() []sim.Metric { return []sim.Metric{metrics.NewMassDrift()} },
			})
		}
		Expect(e.Len()).To(Equal(len(names)))

		results, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(names)))
		for _, res := range results {
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(200))
			Expect(res.Metrics["mass_drift"]).To(BeNumerically("<", 1e-12))
		}
		Expect(results[0].Final.Transferred).To(BeZero())
		Expect(results[1].Metrics).To(HaveLen(1))
	})

	It("keeps a tick error inside its job", func() {
		e := sim.NewEnsemble(0)
		p := presetParams("default")
		d, err := sim.NewDriver(p)
		Expect(err).NotTo(HaveOccurred())

		e.Add(sim.Job{Name: "drop", Params: p, Profile: dropAt{rest: d.RestInputs(), step: 3}, Config: sim.RunConfig{Dt: dt, Duration: 0.01}})
		e.Add(sim.Job{Name: "flat", Params: p, Profile: dropAt{rest: d.RestInputs(), step: 1 << 30}, Config: sim.RunConfig{Dt: dt, Duration: 0.01}})

		results, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.IsTickError(results[0].Err)).To(BeTrue())
		Expect(results[1].Err).NotTo(HaveOccurred())
		Expect(results[1].StepsTaken).To(Equal(10))
	})

	It("fails on an invalid job", func() {
		e := sim.NewEnsemble(1)
		p := presetParams("default")
		p.FlowRate = -1
		e.Add(sim.Job{Name: "broken", Params: p, Profile: road.NewFlat(road.Params{}), Config: sim.RunConfig{Dt: dt, Duration: 0.01}})

		_, err := e.Run(context.Background())
		Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		Expect(err.Error()).To(ContainSubstring("broken"))
	})
})
