package variate

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/inference-sim/simkernel/sim/rng"
)

// DistSpec is the declarative form of a variate, as found in experiment YAML.
//
//	type: exponential
//	params: {mean: 2.5}
//
// Empirical distributions list their support in Values and weights in Probs.
type DistSpec struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
	Values []float64          `yaml:"values,omitempty" json:"values,omitempty"`
	Probs  []float64          `yaml:"probs,omitempty" json:"probs,omitempty"`
}

// requireParam checks that all required keys are present in params.
func requireParam(spec DistSpec, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := spec.Params[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s distribution requires parameter(s) %s",
			ErrInvalidParameter, spec.Type, strings.Join(missing, ", "))
	}
	return nil
}

// rejectUnknownParams fails on keys the distribution does not take, so that a
// misspelled key is reported instead of ignored.
func rejectUnknownParams(spec DistSpec, known []string) error {
	var unknown []string
	for k := range spec.Params {
		if !slices.Contains(known, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s distribution does not take parameter(s) %s",
			ErrInvalidParameter, spec.Type, strings.Join(unknown, ", "))
	}
	return nil
}

type builder struct {
	params []string
	build  func(p map[string]float64, spec DistSpec, s *rng.Stream) (*Variate, error)
}

var builders = map[string]builder{
	"constant": {[]string{"value"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewConstant(p["value"], s)
	}},
	"uniform": {[]string{"min", "max"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewUniform(p["min"], p["max"], s)
	}},
	"exponential": {[]string{"mean"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewExponential(p["mean"], s)
	}},
	"normal": {[]string{"mean", "std_dev"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewNormal(p["mean"], p["std_dev"], s)
	}},
	"lognormal": {[]string{"mu", "sigma"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewLogNormal(p["mu"], p["sigma"], s)
	}},
	"weibull": {[]string{"shape", "scale"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewWeibull(p["shape"], p["scale"], s)
	}},
	"gamma": {[]string{"shape", "scale"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewGamma(p["shape"], p["scale"], s)
	}},
	"beta": {[]string{"alpha", "beta"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewBeta(p["alpha"], p["beta"], s)
	}},
	"triangular": {[]string{"min", "mode", "max"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewTriangular(p["min"], p["mode"], p["max"], s)
	}},
	"pareto": {[]string{"xm", "alpha"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewPareto(p["xm"], p["alpha"], s)
	}},
	"bernoulli": {[]string{"p"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewBernoulli(p["p"], s)
	}},
	"duniform": {[]string{"min", "max"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		min, err := integral(p, "min")
		if err != nil {
			return nil, err
		}
		max, err := integral(p, "max")
		if err != nil {
			return nil, err
		}
		return NewDUniform(min, max, s)
	}},
	"geometric": {[]string{"p"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewGeometric(p["p"], s)
	}},
	"poisson": {[]string{"mean"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		return NewPoisson(p["mean"], s)
	}},
	"binomial": {[]string{"n", "p"}, func(p map[string]float64, _ DistSpec, s *rng.Stream) (*Variate, error) {
		n, err := integral(p, "n")
		if err != nil {
			return nil, err
		}
		return NewBinomial(n, p["p"], s)
	}},
	"empirical": {nil, func(_ map[string]float64, spec DistSpec, s *rng.Stream) (*Variate, error) {
		return NewEmpirical(spec.Values, spec.Probs, s)
	}},
}

// integral reads a param that must hold a whole number.
func integral(p map[string]float64, key string) (int, error) {
	v := p[key]
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParameter, key, v)
	}
	return int(v), nil
}

// Types returns the distribution names FromSpec accepts, sorted.
func Types() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromSpec creates a variate described by spec bound to stream s.
func FromSpec(spec DistSpec, s *rng.Stream) (*Variate, error) {
	b, ok := builders[strings.ToLower(spec.Type)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownDistribution, spec.Type, strings.Join(Types(), ", "))
	}
	if err := requireParam(spec, b.params...); err != nil {
		return nil, err
	}
	if err := rejectUnknownParams(spec, b.params); err != nil {
		return nil, err
	}
	return b.build(spec.Params, spec, s)
}
