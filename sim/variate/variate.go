// Package variate maps uniform draws from an rng.Stream onto named distributions.
//
// Every variate draws exactly one uniform per value and transforms it by
// inversion, so a variate is stateless apart from its stream: Sample(n) equals n
// calls to Value, resetting the stream replays the values, and an antithetic
// stream yields the mirrored quantiles.
package variate

import (
	"errors"
	"fmt"

	"github.com/inference-sim/simkernel/sim/rng"
)

var (
	// ErrInvalidParameter is returned for distribution parameters outside their domain.
	ErrInvalidParameter = errors.New("variate: invalid parameter")
	// ErrUnknownDistribution is returned by FromSpec for unregistered type names.
	ErrUnknownDistribution = errors.New("variate: unknown distribution")
	// ErrNilStream is returned when a variate is constructed without a stream.
	ErrNilStream = errors.New("variate: nil stream")
)

// Distribution is an invertible distribution: Quantile maps p in (0,1) to a value.
// The gonum distuv types satisfy it, as do the discrete types in this package.
type Distribution interface {
	Quantile(p float64) float64
	Mean() float64
}

// RVariate is a random variable bound to a single stream.
type RVariate interface {
	// Value draws one uniform and returns the corresponding variate.
	Value() float64
	// Sample returns n consecutive values.
	Sample(n int) []float64
	// Stream returns the bound stream.
	Stream() *rng.Stream
	// NewInstance returns a variate with the same parameters bound to s.
	NewInstance(s *rng.Stream) RVariate
	// NewAntitheticInstance returns a variate on a clone of the stream with the
	// antithetic option flipped; it allocates no new provider stream.
	NewAntitheticInstance() RVariate
}

// Variate draws from a Distribution by inversion of one uniform per value.
type Variate struct {
	name   string
	dist   Distribution
	stream *rng.Stream
}

// New binds an arbitrary invertible distribution to a stream.
func New(name string, dist Distribution, s *rng.Stream) (*Variate, error) {
	if s == nil {
		return nil, ErrNilStream
	}
	if dist == nil {
		return nil, fmt.Errorf("%w: nil distribution", ErrInvalidParameter)
	}
	return &Variate{name: name, dist: dist, stream: s}, nil
}

func (v *Variate) Value() float64 {
	return v.dist.Quantile(v.stream.RandU01())
}

func (v *Variate) Sample(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v.Value()
	}
	return out
}

func (v *Variate) Stream() *rng.Stream { return v.stream }

func (v *Variate) NewInstance(s *rng.Stream) RVariate {
	return &Variate{name: v.name, dist: v.dist, stream: s}
}

func (v *Variate) NewAntitheticInstance() RVariate {
	return &Variate{name: v.name, dist: v.dist, stream: v.stream.NewAntitheticInstance()}
}

// Mean returns the theoretical mean of the distribution.
func (v *Variate) Mean() float64 { return v.dist.Mean() }

// Distribution returns the underlying distribution.
func (v *Variate) Distribution() Distribution { return v.dist }

func (v *Variate) String() string { return v.name }
