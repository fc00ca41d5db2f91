package replication

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/inference-sim/simkernel/sim"
	"github.com/inference-sim/simkernel/sim/rng"
)

// ErrInvalidOptions is returned for experiment options that cannot run.
var ErrInvalidOptions = errors.New("replication: invalid options")

// Mode selects how replications are positioned within the random streams.
type Mode int

const (
	// ModeIndependent runs replication r on sub-stream r of every stream.
	ModeIndependent Mode = iota
	// ModeCommonRandomNumbers runs every replication from the start of every stream.
	ModeCommonRandomNumbers
	// ModeAntithetic pairs replications: 2k-1 runs on sub-stream k and 2k runs on
	// the same sub-stream with antithetic draws.
	ModeAntithetic
)

var modeNames = map[Mode]string{
	ModeIndependent:         "independent",
	ModeCommonRandomNumbers: "crn",
	ModeAntithetic:          "antithetic",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText encodes the mode by name, for JSON results.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode accepts "independent", "crn" (or "common-random-numbers") and "antithetic".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "independent":
		return ModeIndependent, nil
	case "crn", "common-random-numbers":
		return ModeCommonRandomNumbers, nil
	case "antithetic":
		return ModeAntithetic, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q; valid: independent, crn, antithetic", ErrInvalidOptions, s)
	}
}

// Position returns the sub-stream and antithetic option replication rep
// (1-based) observes under the mode.
func (m Mode) Position(rep int) (substream int, antithetic bool) {
	switch m {
	case ModeCommonRandomNumbers:
		return 1, false
	case ModeAntithetic:
		return (rep + 1) / 2, rep%2 == 0
	default:
		return rep, false
	}
}

// Options configures an experiment.
type Options struct {
	Replications int       // number of replications, >= 1
	Length       float64   // replication length (math.Inf(1) = until the calendar empties)
	WarmUp       float64   // warm-up length, 0 = none
	Mode         Mode      // stream positioning
	Workers      int       // concurrent replications; 0 or 1 runs them sequentially
	Seed         [6]uint64 // provider base seed; zero value means rng.DefaultSeed
}

// DefaultOptions returns a single independent unbounded replication.
func DefaultOptions() Options {
	return Options{
		Replications: 1,
		Length:       math.Inf(1),
		Mode:         ModeIndependent,
	}
}

// ExecutiveConfig returns the per-replication boundaries.
func (o Options) ExecutiveConfig() sim.ExecutiveConfig {
	return sim.NewExecutiveConfig(o.Length, o.WarmUp)
}

// BaseSeed returns the seed streams are derived from.
func (o Options) BaseSeed() [6]uint64 {
	if o.Seed == ([6]uint64{}) {
		return rng.DefaultSeed
	}
	return o.Seed
}

// Validate reports configuration errors before any replication executes.
func (o Options) Validate() error {
	if o.Replications < 1 {
		return fmt.Errorf("%w: replications must be >= 1, got %d", ErrInvalidOptions, o.Replications)
	}
	if _, ok := modeNames[o.Mode]; !ok {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidOptions, int(o.Mode))
	}
	if o.Mode == ModeAntithetic && o.Replications%2 != 0 {
		return fmt.Errorf("%w: antithetic mode needs an even number of replications, got %d",
			ErrInvalidOptions, o.Replications)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidOptions, o.Workers)
	}
	if err := o.ExecutiveConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := rng.CheckSeed(o.BaseSeed()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
