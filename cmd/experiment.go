package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/simkernel/sim"
	"github.com/inference-sim/simkernel/sim/replication"
	"github.com/inference-sim/simkernel/sim/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReplicationReport is one replication's kernel result plus the model statistics.
type ReplicationReport struct {
	replication.Result
	Queue QueueStats          `json:"queue"`
	Trace *trace.TraceSummary `json:"trace,omitempty"`
}

// Estimate is an across-replication mean with a 95% Student-t half-width.
// HalfWidth is omitted when fewer than two observations are available.
type Estimate struct {
	N         int      `json:"n"`
	Mean      float64  `json:"mean"`
	HalfWidth *float64 `json:"half_width_95,omitempty"`
}

// ExperimentReport is what `simkernel run` prints.
type ExperimentReport struct {
	Experiment   uuid.UUID           `json:"experiment"`
	Mode         replication.Mode    `json:"mode"`
	Replications []ReplicationReport `json:"replications"`
	MeanWait     Estimate            `json:"mean_wait"`
	MeanInSystem Estimate            `json:"mean_in_system"`
	Utilization  Estimate            `json:"utilization"`
}

// RunExperiment runs the queue model under cfg.
func RunExperiment(ctx context.Context, cfg ExperimentConfig) (*ExperimentReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	ctrl, err := replication.NewController(opts)
	if err != nil {
		return nil, err
	}

	level := trace.TraceLevel(cfg.TraceLevel)
	models := make([]*queueModel, opts.Replications)
	traces := make([]*trace.EventTrace, opts.Replications)
	results, err := ctrl.Run(ctx, func(r *replication.Replication) (sim.Model, error) {
		m, err := newQueueModel(cfg.Model, r)
		if err != nil {
			return nil, err
		}
		models[r.Number-1] = m
		if level != trace.TraceLevelNone && level != "" {
			et := trace.NewEventTrace(level)
			r.Executive.SetTracer(et)
			traces[r.Number-1] = et
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	report := &ExperimentReport{
		Experiment:   ctrl.Experiment(),
		Mode:         opts.Mode,
		Replications: make([]ReplicationReport, len(results)),
	}
	waits := make([]float64, len(results))
	inSystem := make([]float64, len(results))
	util := make([]float64, len(results))
	for i, res := range results {
		rr := ReplicationReport{Result: res, Queue: models[i].Stats()}
		if traces[i] != nil {
			rr.Trace = trace.Summarize(traces[i])
			if !rr.Trace.Monotonic {
				logrus.Warnf("Replication %d: trace shows a clock decrease", res.Replication)
			}
		}
		report.Replications[i] = rr
		waits[i] = rr.Queue.MeanWait
		inSystem[i] = rr.Queue.MeanInSystem
		util[i] = rr.Queue.Utilization
	}
	report.MeanWait = estimate(waits, opts.Mode)
	report.MeanInSystem = estimate(inSystem, opts.Mode)
	report.Utilization = estimate(util, opts.Mode)
	return report, nil
}

// estimate averages antithetic pairs before computing the interval, since the
// two halves of a pair are not independent.
func estimate(values []float64, mode replication.Mode) Estimate {
	xs := values
	if mode == replication.ModeAntithetic {
		xs = make([]float64, 0, len(values)/2)
		for i := 0; i+1 < len(values); i += 2 {
			xs = append(xs, (values[i]+values[i+1])/2)
		}
	}
	e := Estimate{N: len(xs)}
	if len(xs) == 0 {
		return e
	}
	if len(xs) == 1 {
		e.Mean = xs[0]
		return e
	}
	mean, sd := stat.MeanStdDev(xs, nil)
	e.Mean = mean
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(xs) - 1)}.Quantile(0.975)
	hw := t * sd / math.Sqrt(float64(len(xs)))
	e.HalfWidth = &hw
	return e
}

// WriteReport prints report as indented JSON or as a text table.
func WriteReport(w io.Writer, report *ExperimentReport, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "=== Experiment %s (%s) ===\n", report.Experiment, report.Mode)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "rep\tsubstream\tanti\tend\treason\tevents\tserved\tmean wait\tmean in system\tutilization")
	for _, r := range report.Replications {
		fmt.Fprintf(tw, "%d\t%d\t%t\t%.2f\t%s\t%d\t%d\t%.4f\t%.4f\t%.4f\n",
			r.Replication, r.Substream, r.Antithetic, r.EndTime, r.EndReason, r.EventsExecuted,
			r.Queue.Served, r.Queue.MeanWait, r.Queue.MeanInSystem, r.Queue.Utilization)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, row := range []struct {
		name string
		e    Estimate
	}{{"Mean wait", report.MeanWait}, {"Mean in system", report.MeanInSystem}, {"Utilization", report.Utilization}} {
		if row.e.HalfWidth != nil {
			fmt.Fprintf(w, "%-15s: %.4f ± %.4f (n=%d)\n", row.name, row.e.Mean, *row.e.HalfWidth, row.e.N)
		} else {
			fmt.Fprintf(w, "%-15s: %.4f (n=%d)\n", row.name, row.e.Mean, row.e.N)
		}
	}
	return nil
}
