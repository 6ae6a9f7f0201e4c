//go:build !linux

package sched

import "errors"

var errUnsupported = errors.New("sched: not supported on this platform (requires Linux)")

type systemScheduler struct{}

// System returns a Scheduler that refuses every change on non-Linux platforms.
func System() Scheduler {
	return systemScheduler{}
}

func (systemScheduler) Current() (Policy, error) {
	return Policy{}, errUnsupported
}

func (systemScheduler) Set(p Policy) error {
	return errUnsupported
}

func (systemScheduler) MaxPriority(c Class) (int, error) {
	return 0, errUnsupported
}
