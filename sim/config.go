package sim

import (
	"fmt"
	"math"
)

// ExecutiveConfig groups the replication boundaries of one Executive.
type ExecutiveConfig struct {
	ReplicationLength float64 // simulated time at which the replication ends (math.Inf(1) = run until the calendar empties)
	WarmUpLength      float64 // time of the warm-up marker (0 = no warm-up)
}

// NewExecutiveConfig returns an ExecutiveConfig with the given boundaries.
func NewExecutiveConfig(replicationLength, warmUpLength float64) ExecutiveConfig {
	return ExecutiveConfig{
		ReplicationLength: replicationLength,
		WarmUpLength:      warmUpLength,
	}
}

// UnboundedConfig runs until the calendar empties, with no warm-up.
func UnboundedConfig() ExecutiveConfig {
	return NewExecutiveConfig(math.Inf(1), 0)
}

// Bounded reports whether the replication has a finite length.
func (c ExecutiveConfig) Bounded() bool {
	return !math.IsInf(c.ReplicationLength, 1)
}

// Validate returns an ErrInvalidConfig-wrapped error for unusable boundaries.
func (c ExecutiveConfig) Validate() error {
	if math.IsNaN(c.ReplicationLength) || c.ReplicationLength <= 0 {
		return fmt.Errorf("%w: replication length must be > 0, got %v", ErrInvalidConfig, c.ReplicationLength)
	}
	if math.IsNaN(c.WarmUpLength) || math.IsInf(c.WarmUpLength, 0) || c.WarmUpLength < 0 {
		return fmt.Errorf("%w: warm-up length must be finite and >= 0, got %v", ErrInvalidConfig, c.WarmUpLength)
	}
	if c.Bounded() && c.WarmUpLength >= c.ReplicationLength {
		return fmt.Errorf("%w: warm-up length %v must be less than replication length %v",
			ErrInvalidConfig, c.WarmUpLength, c.ReplicationLength)
	}
	return nil
}
