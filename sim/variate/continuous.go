package variate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/simkernel/sim/rng"
)

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return fmt.Errorf("%w: %s must be finite and > 0, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

// constant is a degenerate distribution.
type constant float64

func (c constant) Quantile(float64) float64 { return float64(c) }
func (c constant) Mean() float64            { return float64(c) }

// NewConstant always returns value. It still consumes one uniform per draw so
// that swapping distributions never shifts other consumers of the stream.
func NewConstant(value float64, s *rng.Stream) (*Variate, error) {
	if err := finite("value", value); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Constant(%g)", value), constant(value), s)
}

// NewUniform draws from U(min, max).
func NewUniform(min, max float64, s *rng.Stream) (*Variate, error) {
	if err := finite("min", min); err != nil {
		return nil, err
	}
	if err := finite("max", max); err != nil {
		return nil, err
	}
	if min >= max {
		return nil, fmt.Errorf("%w: uniform min %v must be < max %v", ErrInvalidParameter, min, max)
	}
	return New(fmt.Sprintf("Uniform(%g, %g)", min, max), distuv.Uniform{Min: min, Max: max}, s)
}

// NewExponential draws from an exponential distribution with the given mean.
func NewExponential(mean float64, s *rng.Stream) (*Variate, error) {
	if err := positive("mean", mean); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Exponential(mean=%g)", mean), distuv.Exponential{Rate: 1 / mean}, s)
}

// NewNormal draws from N(mean, stdDev^2).
func NewNormal(mean, stdDev float64, s *rng.Stream) (*Variate, error) {
	if err := finite("mean", mean); err != nil {
		return nil, err
	}
	if err := positive("std_dev", stdDev); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Normal(%g, %g)", mean, stdDev), distuv.Normal{Mu: mean, Sigma: stdDev}, s)
}

// NewLogNormal draws exp(N(mu, sigma^2)).
func NewLogNormal(mu, sigma float64, s *rng.Stream) (*Variate, error) {
	if err := finite("mu", mu); err != nil {
		return nil, err
	}
	if err := positive("sigma", sigma); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("LogNormal(mu=%g, sigma=%g)", mu, sigma), distuv.LogNormal{Mu: mu, Sigma: sigma}, s)
}

// NewWeibull draws from a Weibull distribution with the given shape and scale.
func NewWeibull(shape, scale float64, s *rng.Stream) (*Variate, error) {
	if err := positive("shape", shape); err != nil {
		return nil, err
	}
	if err := positive("scale", scale); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Weibull(shape=%g, scale=%g)", shape, scale), distuv.Weibull{K: shape, Lambda: scale}, s)
}

// NewGamma draws from a gamma distribution with the given shape and scale.
func NewGamma(shape, scale float64, s *rng.Stream) (*Variate, error) {
	if err := positive("shape", shape); err != nil {
		return nil, err
	}
	if err := positive("scale", scale); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Gamma(shape=%g, scale=%g)", shape, scale), distuv.Gamma{Alpha: shape, Beta: 1 / scale}, s)
}

// NewBeta draws from Beta(alpha, beta) on (0,1).
func NewBeta(alpha, beta float64, s *rng.Stream) (*Variate, error) {
	if err := positive("alpha", alpha); err != nil {
		return nil, err
	}
	if err := positive("beta", beta); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Beta(%g, %g)", alpha, beta), distuv.Beta{Alpha: alpha, Beta: beta}, s)
}

// NewTriangular draws from a triangular distribution on [min, max] with the given mode.
func NewTriangular(min, mode, max float64, s *rng.Stream) (*Variate, error) {
	if err := finite("min", min); err != nil {
		return nil, err
	}
	if err := finite("mode", mode); err != nil {
		return nil, err
	}
	if err := finite("max", max); err != nil {
		return nil, err
	}
	if min >= max || mode < min || mode > max {
		return nil, fmt.Errorf("%w: triangular requires min < max and min <= mode <= max, got (%v, %v, %v)",
			ErrInvalidParameter, min, mode, max)
	}
	return New(fmt.Sprintf("Triangular(%g, %g, %g)", min, mode, max), distuv.NewTriangle(min, max, mode, nil), s)
}

// NewPareto draws from a Pareto distribution with scale xm and shape alpha.
func NewPareto(xm, alpha float64, s *rng.Stream) (*Variate, error) {
	if err := positive("xm", xm); err != nil {
		return nil, err
	}
	if err := positive("alpha", alpha); err != nil {
		return nil, err
	}
	return New(fmt.Sprintf("Pareto(xm=%g, alpha=%g)", xm, alpha), distuv.Pareto{Xm: xm, Alpha: alpha}, s)
}
