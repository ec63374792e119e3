package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one independent scenario of an ensemble.
type Job struct {
	Name    string
	Params  Params
	Profile Profile
	Config  RunConfig
	// Metrics builds fresh metric instances for this job.
	Metrics func() []Metric
}

// Ensemble runs independent scenarios concurrently. Every job gets its own
// Driver; nothing is shared between goroutines.
type Ensemble struct {
	jobs  []Job
	limit int
	opts  []Option
}

// NewEnsemble limits concurrency to limit goroutines; limit <= 0 means
// unbounded.
func NewEnsemble(limit int, opts ...Option) *Ensemble {
	return &Ensemble{limit: limit, opts: opts}
}

func (e *Ensemble) Add(j Job) { e.jobs = append(e.jobs, j) }

func (e *Ensemble) Len() int { return len(e.jobs) }

// Run executes every job. A configuration error cancels the ensemble; an
// aborted tick only halts its own job and is reported in Result.Err.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.jobs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, job := range e.jobs {
		g.Go(func() error {
			d, err := NewDriver(job.Params, e.opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}

			r := NewRunner(d, job.Profile)
			if job.Metrics != nil {
				for _, m := range job.Metrics() {
					r.AddMetric(m)
				}
			}

			res, err := r.Run(ctx, job.Config)
			if err != nil && !IsTickError(err) {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
