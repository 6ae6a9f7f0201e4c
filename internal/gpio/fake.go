package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/dht-sensor/internal/capture"
)

// Step is one scripted result of EdgeWatch.Wait on a FakeChip.
type Step struct {
	Edge capture.Edge
	Err  error
}

// Edge returns a step yielding a falling edge at ts nanoseconds.
func Edge(ts uint64) Step {
	return Step{Edge: capture.Edge{Timestamp: ts, Kind: capture.Falling}}
}

// Timeout returns a step whose wait expires.
func Timeout() Step {
	return Step{Err: capture.ErrWaitTimeout}
}

// Fail returns a step whose wait fails with err.
func Fail(err error) Step {
	return Step{Err: err}
}

// FallingEdges returns n falling edges starting at start, step ns apart.
func FallingEdges(n int, start, step uint64) []Step {
	out := make([]Step, n)
	for i := range out {
		out[i] = Edge(start + uint64(i)*step)
	}
	return out
}

// Sensor pulse timings, in nanoseconds between consecutive falling edges.
const (
	preambleNs = 160_000
	zeroBitNs  = 78_000
	oneBitNs   = 120_000
)

// SensorResponse returns the 42 falling edges a DHT22 emits for data:
// the response edge, one edge at the start of each of the 40 bits and the
// trailing edge after the last bit.
func SensorResponse(data [5]byte, start uint64) []Step {
	out := make([]Step, 0, 42)
	ts := start
	out = append(out, Edge(ts))
	ts += preambleNs
	out = append(out, Edge(ts))
	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				ts += oneBitNs
			} else {
				ts += zeroBitNs
			}
			out = append(out, Edge(ts))
		}
	}
	return out
}

// Request records one line request granted or refused by a FakeChip.
type Request struct {
	Kind   string // "output" or "watch"
	Offset int
	Value  int // initial value, output requests only
	Err    error
}

// FakeChip is a test double for a GPIO chip with scripted edge events.
type FakeChip struct {
	// Lines is the number of valid offsets; requests beyond it fail.
	Lines int

	// Scripts holds the wait results for successive edge watches.
	// Each RequestEdgeWatch consumes the next script.
	Scripts [][]Step

	// Endless makes every wait past the end of a script yield a falling edge.
	// Otherwise the wait times out.
	Endless bool

	// OutputError, if set, is returned by RequestOutput.
	OutputError error

	// WatchError, if set, is returned by RequestEdgeWatch.
	WatchError error

	// Requests records every request in order.
	Requests []Request

	// Levels records every value driven on an output line, including
	// the initial value of each request.
	Levels []int

	// Waits counts calls to Wait across all watches.
	Waits int

	// MaxHeld is the largest number of requests held at once.
	MaxHeld int

	// Closed tracks if Close was called.
	Closed bool

	held    int
	output  *fakeOutput
	watch   *fakeWatch
	scripts int
}

// NewFakeChip creates a FakeChip exposing the given number of lines.
func NewFakeChip(lines int, scripts ...[]Step) *FakeChip {
	return &FakeChip{Lines: lines, Scripts: scripts}
}

// HeldOutput reports whether an output request is currently held.
func (f *FakeChip) HeldOutput() bool {
	return f.output != nil
}

// HeldWatch reports whether an edge watch is currently held.
func (f *FakeChip) HeldWatch() bool {
	return f.watch != nil
}

// Level returns the last value driven on the line, or -1 if none.
func (f *FakeChip) Level() int {
	if len(f.Levels) == 0 {
		return -1
	}
	return f.Levels[len(f.Levels)-1]
}

func (f *FakeChip) check(offset int) error {
	if f.Closed {
		return errors.New("chip closed")
	}
	if offset < 0 || offset >= f.Lines {
		return fmt.Errorf("invalid offset %d", offset)
	}
	if f.output != nil || f.watch != nil {
		return fmt.Errorf("line %d busy", offset)
	}
	return nil
}

func (f *FakeChip) acquire() {
	f.held++
	if f.held > f.MaxHeld {
		f.MaxHeld = f.held
	}
}

// RequestOutput grants an output request unless the line is busy or invalid.
func (f *FakeChip) RequestOutput(offset, value int) (Output, error) {
	err := f.OutputError
	if err == nil {
		err = f.check(offset)
	}
	f.Requests = append(f.Requests, Request{Kind: "output", Offset: offset, Value: value, Err: err})
	if err != nil {
		return nil, err
	}
	f.acquire()
	f.Levels = append(f.Levels, value)
	f.output = &fakeOutput{chip: f}
	return f.output, nil
}

// RequestEdgeWatch grants an edge watch running the next script.
func (f *FakeChip) RequestEdgeWatch(offset int) (EdgeWatch, error) {
	err := f.WatchError
	if err == nil {
		err = f.check(offset)
	}
	f.Requests = append(f.Requests, Request{Kind: "watch", Offset: offset, Err: err})
	if err != nil {
		return nil, err
	}
	var steps []Step
	if f.scripts < len(f.Scripts) {
		steps = f.Scripts[f.scripts]
	}
	f.scripts++
	f.acquire()
	f.watch = &fakeWatch{chip: f, steps: steps}
	return f.watch, nil
}

// Close marks the chip as closed.
func (f *FakeChip) Close() error {
	f.Closed = true
	return nil
}

type fakeOutput struct {
	chip   *FakeChip
	closed bool
}

func (o *fakeOutput) SetValue(value int) error {
	if o.closed {
		return errors.New("output released")
	}
	o.chip.Levels = append(o.chip.Levels, value)
	return nil
}

func (o *fakeOutput) Close() error {
	if o.closed {
		return errors.New("output already released")
	}
	o.closed = true
	o.chip.held--
	o.chip.output = nil
	return nil
}

type fakeWatch struct {
	chip   *FakeChip
	steps  []Step
	next   int
	last   uint64
	closed bool
}

func (w *fakeWatch) Wait(timeout time.Duration) (capture.Edge, error) {
	if w.closed {
		return capture.Edge{}, ErrWatchClosed
	}
	w.chip.Waits++
	if w.next < len(w.steps) {
		s := w.steps[w.next]
		w.next++
		if s.Err == nil {
			w.last = s.Edge.Timestamp
		}
		return s.Edge, s.Err
	}
	if w.chip.Endless {
		w.last += zeroBitNs
		return capture.Edge{Timestamp: w.last, Kind: capture.Falling}, nil
	}
	return capture.Edge{}, capture.ErrWaitTimeout
}

func (w *fakeWatch) Close() error {
	if w.closed {
		return errors.New("watch already released")
	}
	w.closed = true
	w.chip.held--
	w.chip.watch = nil
	return nil
}
