// Package replication runs independent, common-random-number or antithetic
// replications of a model, positioning the random streams so that each
// replication's draws depend only on its number.
package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/simkernel/sim"
	"github.com/inference-sim/simkernel/sim/rng"
)

// Replication is handed to the model factory before each replication runs.
type Replication struct {
	Number     int // 1-based
	Substream  int
	Antithetic bool
	// Streams is positioned for this replication; streams taken from it in the
	// same order yield the same draws in every run of the experiment.
	Streams *rng.Provider
	// Executive runs the replication. Factories may attach a tracer.
	Executive *sim.Executive
}

// Factory builds the model for one replication.
type Factory func(r *Replication) (sim.Model, error)

// Result summarizes one finished replication.
type Result struct {
	Experiment     uuid.UUID     `json:"experiment"`
	Replication    int           `json:"replication"`
	Mode           Mode          `json:"mode"`
	Substream      int           `json:"substream"`
	Antithetic     bool          `json:"antithetic"`
	EndTime        float64       `json:"end_time"`
	EndReason      sim.EndReason `json:"end_reason"`
	WarmedUp       bool          `json:"warmed_up"`
	EventsExecuted int64         `json:"events_executed"`
	EventsSkipped  int64         `json:"events_skipped"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// Controller runs the replications of one experiment.
type Controller struct {
	opts Options
	id   uuid.UUID
}

// NewController validates opts.
func NewController(opts Options) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Controller{opts: opts, id: uuid.New()}, nil
}

// Experiment returns the identifier stamped on every result.
func (c *Controller) Experiment() uuid.UUID { return c.id }

// Options returns the validated options.
func (c *Controller) Options() Options { return c.opts }

// Run executes all replications and returns their results ordered by
// replication number. Sequential and concurrent runs produce the same results
// apart from Elapsed. The first failing replication cancels the rest, and a
// canceled ctx ends the running replications with ctx's error.
func (c *Controller) Run(ctx context.Context, factory Factory) ([]Result, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidOptions)
	}
	logrus.Infof("Experiment %s: %d %s replication(s), length=%v, warm-up=%v, workers=%d",
		c.id, c.opts.Replications, c.opts.Mode, c.opts.Length, c.opts.WarmUp, c.opts.Workers)

	var (
		results []Result
		err     error
	)
	if c.opts.Workers > 1 {
		results, err = c.runConcurrent(ctx, factory)
	} else {
		results, err = c.runSequential(ctx, factory)
	}
	if err != nil {
		return nil, err
	}
	logrus.Infof("Experiment %s: completed %d replication(s)", c.id, len(results))
	return results, nil
}

// runSequential reuses one provider and one executive across replications.
func (c *Controller) runSequential(ctx context.Context, factory Factory) ([]Result, error) {
	provider, err := rng.NewProviderWithSeed(c.opts.BaseSeed())
	if err != nil {
		return nil, err
	}
	exec, err := sim.NewExecutive(c.opts.ExecutiveConfig())
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, c.opts.Replications)
	for r := 1; r <= c.opts.Replications; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := c.runOne(ctx, r, provider, exec, factory)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// runConcurrent gives every replication its own provider and executive.
func (c *Controller) runConcurrent(ctx context.Context, factory Factory) ([]Result, error) {
	results := make([]Result, c.opts.Replications)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for r := 1; r <= c.opts.Replications; r++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			provider, err := rng.NewProviderWithSeed(c.opts.BaseSeed())
			if err != nil {
				return err
			}
			exec, err := sim.NewExecutive(c.opts.ExecutiveConfig())
			if err != nil {
				return err
			}
			res, err := c.runOne(gctx, r, provider, exec, factory)
			if err != nil {
				return err
			}
			results[r-1] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Controller) runOne(ctx context.Context, r int, provider *rng.Provider, exec *sim.Executive, factory Factory) (Result, error) {
	k, anti := c.opts.Mode.Position(r)
	provider.ResetSequence()
	if err := provider.Position(k, anti); err != nil {
		return Result{}, err
	}
	exec.SetTracer(nil)

	rep := &Replication{
		Number:     r,
		Substream:  k,
		Antithetic: anti,
		Streams:    provider,
		Executive:  exec,
	}
	model, err := factory(rep)
	if err != nil {
		return Result{}, fmt.Errorf("replication %d: building model: %w", r, err)
	}

	start := time.Now()
	if err := exec.RunContext(ctx, model); err != nil {
		return Result{}, fmt.Errorf("replication %d: %w", r, err)
	}
	res := Result{
		Experiment:     c.id,
		Replication:    r,
		Mode:           c.opts.Mode,
		Substream:      k,
		Antithetic:     anti,
		EndTime:        exec.Now(),
		EndReason:      exec.EndReason(),
		WarmedUp:       exec.WarmedUp(),
		EventsExecuted: exec.EventsExecuted(),
		EventsSkipped:  exec.EventsSkipped(),
		Elapsed:        time.Since(start),
	}
	logrus.Infof("Replication %d/%d (sub-stream %d, antithetic=%t) ended at t=%.4f: %s, %d events",
		r, c.opts.Replications, k, anti, res.EndTime, res.EndReason, res.EventsExecuted)
	return res, nil
}
