package dht

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLine struct {
	values []int
	failOn int // value whose write fails, -1 for none
}

func (r *recordingLine) SetValue(v int) error {
	if v == r.failOn {
		return errors.New("write failed")
	}
	r.values = append(r.values, v)
	return nil
}

func TestWakerPulse(t *testing.T) {
	var slept []time.Duration
	w := NewWaker(DefaultWakeDelay)
	w.sleep = func(d time.Duration) { slept = append(slept, d) }
	line := &recordingLine{failOn: -1}

	require.NoError(t, w.Pulse(line))
	assert.Equal(t, []int{0, 1}, line.values)
	assert.Equal(t, []time.Duration{time.Millisecond}, slept)
}

func TestWakerPulseLowFails(t *testing.T) {
	w := NewWaker(DefaultWakeDelay)
	w.sleep = func(time.Duration) { t.Error("must not sleep after a failed write") }
	line := &recordingLine{failOn: 0}

	err := w.Pulse(line)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wake pulse low")
	assert.Empty(t, line.values)
}

func TestWakerPulseHighFails(t *testing.T) {
	w := NewWaker(DefaultWakeDelay)
	w.sleep = func(time.Duration) {}
	line := &recordingLine{failOn: 1}

	err := w.Pulse(line)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wake pulse high")
	assert.Equal(t, []int{0}, line.values)
}
