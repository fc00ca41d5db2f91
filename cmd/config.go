package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/simkernel/sim/replication"
	"github.com/inference-sim/simkernel/sim/trace"
	"github.com/inference-sim/simkernel/sim/variate"
)

// envPrefix namespaces every environment override, e.g. SIMKERNEL_REPLICATIONS=10.
const envPrefix = "SIMKERNEL_"

// QueueConfig describes the built-in queue model.
type QueueConfig struct {
	Servers int              `yaml:"servers" env:"SERVERS"`
	Arrival variate.DistSpec `yaml:"arrival" env:"-"`
	Service variate.DistSpec `yaml:"service" env:"-"`
}

// ExperimentConfig is the experiment file of `simkernel run`.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ExperimentConfig struct {
	Replications int         `yaml:"replications" env:"REPLICATIONS"`
	Length       float64     `yaml:"length" env:"LENGTH"`
	WarmUp       float64     `yaml:"warm_up" env:"WARM_UP"`
	Mode         string      `yaml:"mode" env:"MODE"`
	Workers      int         `yaml:"workers" env:"WORKERS"`
	Seed         []uint64    `yaml:"seed,omitempty" env:"SEED" envSeparator:","`
	Output       string      `yaml:"output" env:"OUTPUT"`
	TraceLevel   string      `yaml:"trace_level" env:"TRACE_LEVEL"`
	Model        QueueConfig `yaml:"model" envPrefix:"MODEL_"`
}

// DefaultExperimentConfig is an M/M/1 queue at 80% load.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		Replications: 10,
		Length:       10000,
		WarmUp:       1000,
		Mode:         "independent",
		Output:       "text",
		TraceLevel:   string(trace.TraceLevelNone),
		Model: QueueConfig{
			Servers: 1,
			Arrival: variate.DistSpec{Type: "exponential", Params: map[string]float64{"mean": 1}},
			Service: variate.DistSpec{Type: "exponential", Params: map[string]float64{"mean": 0.8}},
		},
	}
}

// LoadExperimentConfig layers the defaults, the YAML file at path (if any) and
// SIMKERNEL_* variables from environ (the process environment when nil).
func LoadExperimentConfig(path string, environ map[string]string) (ExperimentConfig, error) {
	defaults := DefaultExperimentConfig()
	cfg := defaults
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading experiment config: %w", err)
		}
		// Distributions are replaced as a whole, never merged with the default params.
		cfg.Model.Arrival, cfg.Model.Service = variate.DistSpec{}, variate.DistSpec{}
		// Parse YAML with strict field checking: typos must cause errors
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parsing experiment config: %w", err)
		}
		if isZeroDist(cfg.Model.Arrival) {
			cfg.Model.Arrival = defaults.Model.Arrival
		}
		if isZeroDist(cfg.Model.Service) {
			cfg.Model.Service = defaults.Model.Service
		}
	}
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// isZeroDist reports whether the experiment file left a distribution unset.
func isZeroDist(d variate.DistSpec) bool {
	return d.Type == "" && len(d.Params) == 0 && len(d.Values) == 0 && len(d.Probs) == 0
}

// Options converts the experiment settings into replication options.
func (c ExperimentConfig) Options() (replication.Options, error) {
	mode, err := replication.ParseMode(c.Mode)
	if err != nil {
		return replication.Options{}, err
	}
	opts := replication.Options{
		Replications: c.Replications,
		Length:       c.Length,
		WarmUp:       c.WarmUp,
		Mode:         mode,
		Workers:      c.Workers,
	}
	switch len(c.Seed) {
	case 0:
	case 6:
		copy(opts.Seed[:], c.Seed)
	default:
		return opts, fmt.Errorf("%w: seed needs 6 components, got %d", replication.ErrInvalidOptions, len(c.Seed))
	}
	return opts, opts.Validate()
}

// Validate checks the settings that replication.Options does not cover.
func (c ExperimentConfig) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("unknown output format %q; valid: text, json", c.Output)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, events, all", c.TraceLevel)
	}
	if c.Model.Servers < 1 {
		return fmt.Errorf("model.servers must be >= 1, got %d", c.Model.Servers)
	}
	return nil
}
