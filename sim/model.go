package sim

// Model is the modeling layer's view of one replication. The executive calls
// Initialize once the clock and calendar are reset, WarmUp when the warm-up
// marker fires, and EndReplication after the run loop finishes without error.
type Model interface {
	Initialize(exec *Executive) error
	WarmUp(exec *Executive)
	EndReplication(exec *Executive)
}

// ModelFuncs adapts plain functions to Model. Nil fields are skipped.
type ModelFuncs struct {
	InitializeFunc     func(exec *Executive) error
	WarmUpFunc         func(exec *Executive)
	EndReplicationFunc func(exec *Executive)
}

// Initialize calls InitializeFunc if set.
func (m ModelFuncs) Initialize(exec *Executive) error {
	if m.InitializeFunc == nil {
		return nil
	}
	return m.InitializeFunc(exec)
}

// WarmUp calls WarmUpFunc if set.
func (m ModelFuncs) WarmUp(exec *Executive) {
	if m.WarmUpFunc != nil {
		m.WarmUpFunc(exec)
	}
}

// EndReplication calls EndReplicationFunc if set.
func (m ModelFuncs) EndReplication(exec *Executive) {
	if m.EndReplicationFunc != nil {
		m.EndReplicationFunc(exec)
	}
}
