package dht

import (
	"errors"
	"fmt"

	"github.com/sweeney/dht-sensor/internal/gpio"
)

// Mode is the state of the sensor data line.
type Mode int

const (
	// ModeReleased: no request is held.
	ModeReleased Mode = iota
	// ModeIdle: output driven high, the sensor's low-power state.
	ModeIdle
	// ModeCapturing: input with falling edge detection.
	ModeCapturing
)

func (m Mode) String() string {
	switch m {
	case ModeReleased:
		return "RELEASED"
	case ModeIdle:
		return "IDLE"
	case ModeCapturing:
		return "CAPTURING"
	}
	return "UNKNOWN"
}

// LineController owns the single request held on the sensor line and moves
// it between idle output and edge watching. Each transition releases the
// previous request before asking for the next, so an output and a watch are
// never held together.
type LineController struct {
	chip   gpio.Chip
	offset int
	mode   Mode
	output gpio.Output
	watch  gpio.EdgeWatch
}

// NewLineController returns a controller for offset on chip. It holds nothing
// until the first transition.
func NewLineController(chip gpio.Chip, offset int) *LineController {
	return &LineController{chip: chip, offset: offset}
}

// Mode returns the current line mode.
func (c *LineController) Mode() Mode {
	return c.mode
}

// ToIdleOutputHigh requests the line as an output driven high.
func (c *LineController) ToIdleOutputHigh() error {
	relErr := c.Release()

	out, err := c.chip.RequestOutput(c.offset, 1)
	if err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrOpen, c.offset, errors.Join(err, relErr))
	}
	c.output = out
	c.mode = ModeIdle
	return nil
}

// ToInputEdgeWatch requests the line as an input reporting falling edges.
// The returned watch stays owned by the controller.
func (c *LineController) ToInputEdgeWatch() (gpio.EdgeWatch, error) {
	relErr := c.Release()

	w, err := c.chip.RequestEdgeWatch(c.offset)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrWatch, c.offset, errors.Join(err, relErr))
	}
	c.watch = w
	c.mode = ModeCapturing
	return w, nil
}

// SetValue drives the line. Only valid in ModeIdle.
func (c *LineController) SetValue(value int) error {
	if c.mode != ModeIdle {
		return fmt.Errorf("%w: line is %s", ErrNotOutput, c.mode)
	}
	return c.output.SetValue(value)
}

// Release gives up whatever request is held. The controller is in
// ModeReleased afterwards even if closing the request failed.
func (c *LineController) Release() error {
	var err error
	if c.output != nil {
		err = c.output.Close()
		c.output = nil
	}
	if c.watch != nil {
		err = errors.Join(err, c.watch.Close())
		c.watch = nil
	}
	c.mode = ModeReleased
	if err != nil {
		return fmt.Errorf("release line %d: %w", c.offset, err)
	}
	return nil
}
