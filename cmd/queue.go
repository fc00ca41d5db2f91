package cmd

import (
	"fmt"

	"github.com/inference-sim/simkernel/sim"
	"github.com/inference-sim/simkernel/sim/replication"
	"github.com/inference-sim/simkernel/sim/variate"
)

// QueueStats are the per-replication outputs of the queue model, collected
// after the warm-up marker.
type QueueStats struct {
	Arrivals     int64   `json:"arrivals"`
	Served       int64   `json:"served"`
	MeanWait     float64 `json:"mean_wait"`
	MeanInSystem float64 `json:"mean_in_system"`
	Utilization  float64 `json:"utilization"`
}

// queueModel is a multi-server FIFO queue driven by an arrival and a service
// variate. It draws arrivals from stream 1 and services from stream 2 so that
// both sequences stay synchronized under common random numbers.
type queueModel struct {
	arrival variate.RVariate
	service variate.RVariate
	servers int

	busy    int
	waiting []float64 // arrival times, FIFO

	statStart  float64
	lastChange float64
	areaSystem float64
	areaBusy   float64
	arrivals   int64
	served     int64
	totalWait  float64
}

func newQueueModel(cfg QueueConfig, r *replication.Replication) (*queueModel, error) {
	arrival, err := variate.FromSpec(cfg.Arrival, r.Streams.NextStream())
	if err != nil {
		return nil, fmt.Errorf("arrival: %w", err)
	}
	service, err := variate.FromSpec(cfg.Service, r.Streams.NextStream())
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return &queueModel{arrival: arrival, service: service, servers: cfg.Servers}, nil
}

func (q *queueModel) Initialize(x *sim.Executive) error {
	_, err := x.Schedule(q.nextDelay(q.arrival), q.arrive, sim.WithName("arrival"))
	return err
}

// WarmUp discards statistics collected so far.
func (q *queueModel) WarmUp(x *sim.Executive) {
	q.accumulate(x.Now())
	q.statStart = x.Now()
	q.areaSystem, q.areaBusy = 0, 0
	q.arrivals, q.served, q.totalWait = 0, 0, 0
}

func (q *queueModel) EndReplication(x *sim.Executive) {
	q.accumulate(x.Now())
}

// nextDelay clamps negative draws (e.g. from a normal) to zero.
func (q *queueModel) nextDelay(v variate.RVariate) float64 {
	d := v.Value()
	if d < 0 {
		return 0
	}
	return d
}

func (q *queueModel) accumulate(now float64) {
	dt := now - q.lastChange
	q.areaSystem += dt * float64(q.busy+len(q.waiting))
	q.areaBusy += dt * float64(q.busy)
	q.lastChange = now
}

func (q *queueModel) arrive(x *sim.Executive, _ *sim.Event) {
	now := x.Now()
	q.accumulate(now)
	q.arrivals++
	if _, err := x.Schedule(q.nextDelay(q.arrival), q.arrive, sim.WithName("arrival")); err != nil {
		x.Abort(err)
		return
	}
	if q.busy < q.servers {
		q.busy++
		q.startService(x, now)
		return
	}
	q.waiting = append(q.waiting, now)
}

func (q *queueModel) startService(x *sim.Executive, arrivedAt float64) {
	q.served++
	q.totalWait += x.Now() - arrivedAt
	if _, err := x.Schedule(q.nextDelay(q.service), q.depart, sim.WithName("departure")); err != nil {
		x.Abort(err)
	}
}

func (q *queueModel) depart(x *sim.Executive, _ *sim.Event) {
	q.accumulate(x.Now())
	if len(q.waiting) == 0 {
		q.busy--
		return
	}
	next := q.waiting[0]
	q.waiting = q.waiting[1:]
	q.startService(x, next)
}

// Stats reports the statistics gathered since the warm-up marker.
func (q *queueModel) Stats() QueueStats {
	s := QueueStats{Arrivals: q.arrivals, Served: q.served}
	if q.served > 0 {
		s.MeanWait = q.totalWait / float64(q.served)
	}
	if span := q.lastChange - q.statStart; span > 0 {
		s.MeanInSystem = q.areaSystem / span
		s.Utilization = q.areaBusy / span / float64(q.servers)
	}
	return s
}
