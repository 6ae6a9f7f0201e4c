// Package gpio provides single-line GPIO requests with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"

	"github.com/sweeney/dht-sensor/internal/capture"
)

// Consumer is the label the kernel shows for lines we hold.
const Consumer = "dht"

// Defaults for a Raspberry Pi with the sensor data pin on BCM 4.
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 4
)

var (
	// ErrWatchClosed is returned by Wait once the edge watch has been released.
	ErrWatchClosed = errors.New("gpio: edge watch closed")

	// ErrEventsLost is returned by Wait when the kernel event buffer overflowed
	// and edges were discarded before they could be read.
	ErrEventsLost = errors.New("gpio: edge events lost")
)

// Chip grants requests for individual lines.
// At most one request per offset may be held at a time.
type Chip interface {
	// RequestOutput requests the line as an output driven to value.
	RequestOutput(offset, value int) (Output, error)

	// RequestEdgeWatch requests the line as an input reporting falling edges.
	RequestEdgeWatch(offset int) (EdgeWatch, error)

	// Close releases the chip. Lines must be closed independently.
	Close() error
}

// Output is a line requested as an output.
type Output interface {
	SetValue(value int) error
	Close() error
}

// EdgeWatch is a line requested as an input with edge detection.
type EdgeWatch interface {
	capture.Source
	Close() error
}
