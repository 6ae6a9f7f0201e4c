package dht

import (
	"fmt"
	"time"
)

// DefaultWakeDelay is how long the line is held low to wake a DHT22.
const DefaultWakeDelay = time.Millisecond

type valueSetter interface {
	SetValue(value int) error
}

// Waker drives the wake pulse that starts a sensor response.
type Waker struct {
	Delay time.Duration
	sleep func(time.Duration)
}

// NewWaker returns a Waker holding the line low for delay.
func NewWaker(delay time.Duration) *Waker {
	return &Waker{Delay: delay, sleep: time.Sleep}
}

// Pulse drives the line low, waits Delay, then drives it high again.
// The line is left as an output so it can be switched to input at once.
func (w *Waker) Pulse(line valueSetter) error {
	if err := line.SetValue(0); err != nil {
		return fmt.Errorf("wake pulse low: %w", err)
	}
	w.sleep(w.Delay)
	if err := line.SetValue(1); err != nil {
		return fmt.Errorf("wake pulse high: %w", err)
	}
	return nil
}
