package capture

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWaitTimeout is returned by a Source when no edge arrived in time.
	ErrWaitTimeout = errors.New("capture: wait timed out")

	// ErrEmptyTimeout means the first wait expired: the sensor never answered.
	ErrEmptyTimeout = errors.New("capture: no edge before first timeout")

	// ErrPollFailure means the Source failed for a reason other than a timeout.
	ErrPollFailure = errors.New("capture: wait failed")
)

// Run waits on src for edges and records them into buf until one of:
//   - buf is full: returns len(buf), nil
//   - a wait times out after at least one edge: returns the count, nil
//   - the first wait times out: returns 0, ErrEmptyTimeout
//   - a wait fails: returns the count recorded so far and an error wrapping ErrPollFailure
//
// A truncated capture is not an error; the decoder decides whether it is usable.
// On failure buf[n] is left untouched, so only buf[:n] is ever meaningful.
func Run(src Source, buf []Edge, timeout time.Duration) (int, error) {
	n := 0
	for n < len(buf) {
		e, err := src.Wait(timeout)
		switch {
		case err == nil:
			buf[n] = e
			n++
		case errors.Is(err, ErrWaitTimeout):
			if n == 0 {
				return 0, ErrEmptyTimeout
			}
			return n, nil
		default:
			return n, fmt.Errorf("%w: %w", ErrPollFailure, err)
		}
	}
	return n, nil
}
