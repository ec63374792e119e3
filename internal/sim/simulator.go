package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pneumostab/internal/dynamo"
)

// Runner drives a Driver from a Profile for a fixed duration. History, if
// any, lives here and not in the driver.
type Runner struct {
	driver    *Driver
	profile   Profile
	metrics   []Metric
	observers []Observer
}

func NewRunner(d *Driver, p Profile) *Runner {
	return &Runner{
		driver:    d,
		profile:   p,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run advances the driver until cfg.Duration is covered, ctx is done, or a
// tick fails. A failed tick halts the run; the partial result is returned
// together with the error.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Metrics: make(map[string]float64),
	}
	if cfg.KeepHistory {
		result.Snapshots = make([]StateSnapshot, 0, steps+1)
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	snap := r.driver.Snapshot()
	r.observe(result, snap, cfg)

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		in := r.profile.Inputs(r.driver.Time()+cfg.Dt, r.driver.Step()+1)
		next, err := r.driver.Advance(cfg.Dt, in)
		if err != nil {
			result.Err = err
			runErr = err
			break
		}
		snap = next
		result.StepsTaken++
		r.observe(result, snap, cfg)
	}

	result.Final = snap
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, runErr
}

func (r *Runner) observe(result *Result, s StateSnapshot, cfg RunConfig) {
	for _, m := range r.metrics {
		m.Observe(s)
	}
	for _, o := range r.observers {
		o.OnSnapshot(s)
	}
	if cfg.KeepHistory {
		result.Snapshots = append(result.Snapshots, s)
	}
}

func validateRunConfig(cfg RunConfig) error {
	if !dynamo.Positive(cfg.Dt) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !dynamo.Positive(cfg.Duration) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Dt > cfg.Duration {
		return fmt.Errorf("dt %f exceeds duration %f", cfg.Dt, cfg.Duration)
	}
	return nil
}
