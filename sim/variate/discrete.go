package variate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/simkernel/sim/rng"
)

// NewBernoulli returns 1 with probability p and 0 otherwise.
func NewBernoulli(p float64, s *rng.Stream) (*Variate, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: bernoulli p must be in [0,1], got %v", ErrInvalidParameter, p)
	}
	return New(fmt.Sprintf("Bernoulli(%g)", p), distuv.Bernoulli{P: p}, s)
}

// discreteUniform is uniform over the integers min..max inclusive.
type discreteUniform struct{ min, max int }

func (d discreteUniform) Quantile(p float64) float64 {
	n := d.max - d.min + 1
	k := int(p * float64(n))
	if k >= n {
		k = n - 1
	}
	return float64(d.min + k)
}

func (d discreteUniform) Mean() float64 { return float64(d.min+d.max) / 2 }

// NewDUniform draws integers uniformly from [min, max].
func NewDUniform(min, max int, s *rng.Stream) (*Variate, error) {
	if min > max {
		return nil, fmt.Errorf("%w: discrete uniform min %d must be <= max %d", ErrInvalidParameter, min, max)
	}
	return New(fmt.Sprintf("DUniform(%d, %d)", min, max), discreteUniform{min: min, max: max}, s)
}

// geometric counts failures before the first success.
type geometric struct{ p float64 }

func (g geometric) Quantile(u float64) float64 {
	if g.p == 1 {
		return 0
	}
	// smallest k with 1-(1-p)^(k+1) >= u
	k := math.Ceil(math.Log1p(-u)/math.Log1p(-g.p) - 1)
	if k <= 0 {
		return 0
	}
	return k
}

func (g geometric) Mean() float64 { return (1 - g.p) / g.p }

// NewGeometric draws the number of failures before the first success with
// success probability p in (0,1].
func NewGeometric(p float64, s *rng.Stream) (*Variate, error) {
	if math.IsNaN(p) || p <= 0 || p > 1 {
		return nil, fmt.Errorf("%w: geometric p must be in (0,1], got %v", ErrInvalidParameter, p)
	}
	return New(fmt.Sprintf("Geometric(%g)", p), geometric{p: p}, s)
}

// cdfInverse is a discrete distribution on the non-negative integers inverted by
// searching its CDF outward from a starting point near the mode.
type cdfInverse struct {
	cdf   func(k float64) float64
	start float64
	upper float64
	mean  float64
}

// Quantile returns the smallest k with CDF(k) >= p.
func (c cdfInverse) Quantile(p float64) float64 {
	k := c.start
	if c.cdf(k) >= p {
		for k > 0 && c.cdf(k-1) >= p {
			k--
		}
		return k
	}
	for k < c.upper && c.cdf(k) < p {
		k++
	}
	return k
}

func (c cdfInverse) Mean() float64 { return c.mean }

// NewPoisson draws from a Poisson distribution with the given mean.
func NewPoisson(mean float64, s *rng.Stream) (*Variate, error) {
	if err := positive("mean", mean); err != nil {
		return nil, err
	}
	d := distuv.Poisson{Lambda: mean}
	return New(fmt.Sprintf("Poisson(%g)", mean), cdfInverse{
		cdf:   d.CDF,
		start: math.Floor(mean),
		upper: math.Inf(1),
		mean:  mean,
	}, s)
}

// NewBinomial draws the number of successes in n trials with success probability p.
func NewBinomial(n int, p float64, s *rng.Stream) (*Variate, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: binomial n must be >= 1, got %d", ErrInvalidParameter, n)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: binomial p must be in [0,1], got %v", ErrInvalidParameter, p)
	}
	d := distuv.Binomial{N: float64(n), P: p}
	return New(fmt.Sprintf("Binomial(%d, %g)", n, p), cdfInverse{
		cdf:   d.CDF,
		start: math.Floor(float64(n) * p),
		upper: float64(n),
		mean:  float64(n) * p,
	}, s)
}

// empirical is a finite discrete distribution given by values and a cumulative
// probability table.
type empirical struct {
	values []float64
	cdf    []float64
	mean   float64
}

func (e empirical) Quantile(p float64) float64 {
	i := sort.SearchFloat64s(e.cdf, p)
	if i >= len(e.values) {
		i = len(e.values) - 1
	}
	return e.values[i]
}

func (e empirical) Mean() float64 { return e.mean }

// NewEmpirical draws values[i] with probability probs[i]. The probabilities are
// normalized when they sum to within 1e-6 of 1.
func NewEmpirical(values, probs []float64, s *rng.Stream) (*Variate, error) {
	if len(values) == 0 || len(values) != len(probs) {
		return nil, fmt.Errorf("%w: empirical needs equal-length non-empty values and probs (got %d, %d)",
			ErrInvalidParameter, len(values), len(probs))
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 {
			return nil, fmt.Errorf("%w: empirical probs[%d] = %v", ErrInvalidParameter, i, p)
		}
	}
	total := floats.Sum(probs)
	if math.Abs(total-1) > 1e-6 {
		return nil, fmt.Errorf("%w: empirical probs sum to %v, want 1", ErrInvalidParameter, total)
	}
	cdf := make([]float64, len(probs))
	floats.CumSum(cdf, probs)
	floats.Scale(1/total, cdf)
	cdf[len(cdf)-1] = 1
	vals := append([]float64(nil), values...)
	mean := floats.Dot(vals, probs) / total
	return New(fmt.Sprintf("Empirical(%d values)", len(vals)), empirical{values: vals, cdf: cdf, mean: mean}, s)
}
