//go:build linux

package sched

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type systemScheduler struct{}

// System returns the Scheduler for the calling thread.
// Raising to FIFO needs CAP_SYS_NICE or an RLIMIT_RTPRIO allowance.
func System() Scheduler {
	return systemScheduler{}
}

func (systemScheduler) Current() (Policy, error) {
	attr, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return Policy{}, fmt.Errorf("sched_getattr: %w", err)
	}
	return Policy{
		Class:    Class(attr.Policy),
		Priority: int(attr.Priority),
		Nice:     int(attr.Nice),
	}, nil
}

func (systemScheduler) Set(p Policy) error {
	attr := unix.SchedAttr{
		Policy:   uint32(p.Class),
		Priority: uint32(p.Priority),
		Nice:     int32(p.Nice),
	}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return fmt.Errorf("sched_setattr %s/%d: %w", p.Class, p.Priority, err)
	}
	return nil
}

func (systemScheduler) MaxPriority(c Class) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(c), 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("sched_get_priority_max: %w", errno)
	}
	return int(r), nil
}
