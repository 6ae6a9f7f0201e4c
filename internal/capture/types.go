// Package capture records the edge timings a DHT sensor produces on its data line.
// This package has NO hardware dependencies: edges come from a Source, which the
// gpio package implements for real lines and tests implement with scripted fakes.
package capture

import "time"

// Capacity is the number of edges one capture can hold.
// One start transition plus 40 data bits, with margin.
const Capacity = 90

// PollTimeout is how long each iteration waits for the next edge.
const PollTimeout = time.Millisecond

// EdgeKind is the direction of a line transition.
type EdgeKind uint8

const (
	Rising EdgeKind = iota + 1
	Falling
)

func (k EdgeKind) String() string {
	switch k {
	case Rising:
		return "RISING"
	case Falling:
		return "FALLING"
	}
	return "UNKNOWN"
}

// Edge is a single timestamped transition.
type Edge struct {
	// Timestamp is the kernel's monotonic event time in nanoseconds.
	Timestamp uint64
	Kind      EdgeKind
}

// Source delivers edges one at a time.
type Source interface {
	// Wait blocks for at most timeout for the next edge.
	// An expired wait is reported as ErrWaitTimeout; any other error
	// means the wait itself failed.
	Wait(timeout time.Duration) (Edge, error)
}
