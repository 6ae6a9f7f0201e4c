package sched

// FakeScheduler is a test double that keeps the policy in memory.
type FakeScheduler struct {
	// Policy is the current policy of the fake thread.
	Policy Policy

	// Max is returned by MaxPriority.
	Max int

	// CurrentError, if set, will be returned by Current.
	CurrentError error

	// SetError, if set, will be returned by Set (the policy is unchanged).
	SetError error

	// MaxError, if set, will be returned by MaxPriority.
	MaxError error

	// History records every policy successfully set.
	History []Policy
}

// NewFakeScheduler creates a FakeScheduler starting at Default with max priority 99.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{Policy: Default, Max: 99}
}

// Current returns the fake policy.
func (f *FakeScheduler) Current() (Policy, error) {
	if f.CurrentError != nil {
		return Policy{}, f.CurrentError
	}
	return f.Policy, nil
}

// Set changes the fake policy.
func (f *FakeScheduler) Set(p Policy) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Policy = p
	f.History = append(f.History, p)
	return nil
}

// MaxPriority returns Max.
func (f *FakeScheduler) MaxPriority(c Class) (int, error) {
	if f.MaxError != nil {
		return 0, f.MaxError
	}
	return f.Max, nil
}
