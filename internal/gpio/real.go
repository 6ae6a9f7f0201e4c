//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-gpiocdev/uapi"
	"golang.org/x/sys/unix"

	"github.com/sweeney/dht-sensor/internal/capture"
)

// RealChip requests lines from actual hardware using Linux GPIO character device.
//
// Outputs go through go-gpiocdev. Edge watches are requested directly through
// the uapi so that Wait polls and reads the line's event fd on the calling
// thread: a reader running at real-time priority then also receives the
// edges at that priority.
type RealChip struct {
	chip *gpiocdev.Chip
	dev  *os.File
}

// NewRealChip opens the named GPIO chip, e.g. "gpiochip0".
func NewRealChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	path := name
	if !strings.HasPrefix(path, "/dev/") {
		path = "/dev/" + name
	}
	dev, err := os.OpenFile(path, os.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip, dev: dev}, nil
}

// RequestOutput requests the line as an output with the given initial value.
func (c *RealChip) RequestOutput(offset, value int) (Output, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(value))
	if err != nil {
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}
	return &realOutput{line: line}, nil
}

// RequestEdgeWatch requests the line as an input with falling edge detection.
// The kernel buffers up to capture.Capacity events until Wait reads them.
func (c *RealChip) RequestEdgeWatch(offset int) (EdgeWatch, error) {
	req := uapi.LineRequest{
		Lines:           1,
		EventBufferSize: capture.Capacity,
	}
	req.Offsets[0] = uint32(offset)
	copy(req.Consumer[:len(req.Consumer)-1], Consumer)
	req.Config.Flags = uapi.LineFlagV2Input | uapi.LineFlagV2EdgeFalling

	if err := uapi.GetLine(c.dev.Fd(), &req); err != nil {
		return nil, fmt.Errorf("request edge watch line %d: %w", offset, err)
	}
	return newEventWatch(int(req.Fd)), nil
}

// Close releases the chip.
func (c *RealChip) Close() error {
	return errors.Join(c.chip.Close(), c.dev.Close())
}

type realOutput struct {
	line *gpiocdev.Line
}

func (o *realOutput) SetValue(value int) error {
	return o.line.SetValue(value)
}

func (o *realOutput) Close() error {
	return o.line.Close()
}

// eventWatch reads edge events from a line request fd.
// Not safe for concurrent use.
type eventWatch struct {
	fd     int
	seqno  uint32 // kernel sequence number of the last event read
	closed bool
}

func newEventWatch(fd int) *eventWatch {
	return &eventWatch{fd: fd}
}

// Wait blocks until the next event is readable or timeout expires.
func (w *eventWatch) Wait(timeout time.Duration) (capture.Edge, error) {
	if w.closed {
		return capture.Edge{}, ErrWatchClosed
	}

	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
	deadline := time.Now().Add(timeout)
	for {
		ts := unix.NsecToTimespec(max(int64(time.Until(deadline)), 0))
		n, err := unix.Ppoll(fds, &ts, nil)
		if errors.Is(err, unix.EINTR) {
			// The Go runtime preempts with signals; resume with what is left.
			continue
		}
		if err != nil {
			return capture.Edge{}, fmt.Errorf("poll line events: %w", err)
		}
		if n == 0 {
			return capture.Edge{}, capture.ErrWaitTimeout
		}
		break
	}
	if fds[0].Revents&unix.POLLIN == 0 {
		return capture.Edge{}, fmt.Errorf("poll line events: revents %#x", fds[0].Revents)
	}

	evt, err := uapi.ReadLineEvent(uintptr(w.fd))
	if err != nil {
		return capture.Edge{}, fmt.Errorf("read line event: %w", err)
	}
	// LineSeqno counts every event on the line from 1, so a gap means the
	// kernel buffer overflowed.
	if lost := evt.LineSeqno - w.seqno - 1; lost != 0 {
		w.seqno = evt.LineSeqno
		return capture.Edge{}, fmt.Errorf("%w: %d before seqno %d", ErrEventsLost, lost, evt.LineSeqno)
	}
	w.seqno = evt.LineSeqno
	return edgeFromEvent(evt), nil
}

// Close releases the line request.
func (w *eventWatch) Close() error {
	if w.closed {
		return ErrWatchClosed
	}
	w.closed = true
	if err := unix.Close(w.fd); err != nil {
		return fmt.Errorf("close edge watch: %w", err)
	}
	return nil
}

func edgeFromEvent(evt uapi.LineEvent) capture.Edge {
	e := capture.Edge{Timestamp: evt.Timestamp, Kind: capture.Falling}
	if evt.ID == uapi.LineEventRisingEdge {
		e.Kind = capture.Rising
	}
	return e
}
