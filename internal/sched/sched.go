// Package sched raises the calling thread to real-time scheduling for the
// duration of a timing-critical section and puts it back afterwards.
//
// Scheduling policy on Linux is per thread, so Elevate pins the calling
// goroutine to its OS thread until the Guard is restored.
package sched

import (
	"errors"
	"fmt"
	"runtime"
)

// Class is a scheduling policy. Values match the Linux SCHED_* constants.
type Class uint32

const (
	Other Class = 0 // SCHED_OTHER / SCHED_NORMAL, time-shared
	FIFO  Class = 1 // SCHED_FIFO, fixed-priority real-time
	RR    Class = 2
	Batch Class = 3
	Idle  Class = 5
)

func (c Class) String() string {
	switch c {
	case Other:
		return "OTHER"
	case FIFO:
		return "FIFO"
	case RR:
		return "RR"
	case Batch:
		return "BATCH"
	case Idle:
		return "IDLE"
	}
	return fmt.Sprintf("CLASS(%d)", uint32(c))
}

// Policy is a thread's scheduling class, static priority and nice value.
type Policy struct {
	Class    Class
	Priority int
	Nice     int
}

// Default is the policy a thread starts with.
var Default = Policy{Class: Other}

// ErrElevate is wrapped by every error returned from Elevate.
var ErrElevate = errors.New("sched: elevate priority")

// Scheduler reads and changes the scheduling policy of the calling thread.
type Scheduler interface {
	Current() (Policy, error)
	Set(p Policy) error
	MaxPriority(c Class) (int, error)
}

// Guard undoes an Elevate.
type Guard struct {
	s        Scheduler
	prev     Policy
	elevated bool
	done     bool
}

// Elevate switches the calling thread to FIFO at the highest priority.
//
// The returned Guard is never nil, even with an error, so callers can defer
// Restore straight away. A failed elevation leaves the policy untouched.
func Elevate(s Scheduler) (*Guard, error) {
	runtime.LockOSThread()

	g := &Guard{s: s, prev: Default}
	cur, err := s.Current()
	if err == nil {
		g.prev = cur
	}

	top, err := s.MaxPriority(FIFO)
	if err != nil {
		return g, fmt.Errorf("%w: %w", ErrElevate, err)
	}
	if err := s.Set(Policy{Class: FIFO, Priority: top}); err != nil {
		return g, fmt.Errorf("%w: %w", ErrElevate, err)
	}
	g.elevated = true
	return g, nil
}

// Restore puts back the policy recorded by Elevate and unpins the goroutine.
// If the previous policy could not be read, the thread returns to Default.
// Calling Restore more than once is a no-op.
func (g *Guard) Restore() error {
	if g == nil || g.done {
		return nil
	}
	g.done = true
	defer runtime.UnlockOSThread()

	if !g.elevated {
		return nil
	}
	if err := g.s.Set(g.prev); err != nil {
		return fmt.Errorf("sched: restore %s/%d: %w", g.prev.Class, g.prev.Priority, err)
	}
	return nil
}

// Elevated reports whether Elevate changed the policy.
func (g *Guard) Elevated() bool {
	return g != nil && g.elevated
}
