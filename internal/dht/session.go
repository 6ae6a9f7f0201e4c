// Package dht captures the raw response of a DHT one-wire sensor.
//
// A Session keeps the data line idle (output high) between reads. Each Read
// raises the thread to real-time priority, wakes the sensor, watches the line
// for falling edges and always puts the line and the priority back before
// returning. Decoding the edges is left to the caller.
//
// Read blocks for up to the wake delay plus capture.Capacity poll timeouts
// (about 91ms with the defaults) and cannot be cancelled. If the process is
// killed mid-read the deferred restores do not run; the kernel still releases
// the line when the process exits.
package dht

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/dht-sensor/internal/capture"
	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/linefault"
	"github.com/sweeney/dht-sensor/internal/sched"
)

var (
	// ErrOpen means the line could not be requested as an idle output.
	ErrOpen = linefault.ErrOpen

	// ErrWatch means the line could not be switched to edge watching.
	ErrWatch = linefault.ErrWatch

	// ErrNotOutput is returned when driving a line that is not an output.
	ErrNotOutput = errors.New("dht: line not in output mode")

	// ErrClosed is returned by any use of a closed Session.
	ErrClosed = errors.New("dht: session closed")
)

// Session reads one sensor on one line. Not safe for concurrent use;
// callers must serialize Read calls.
type Session struct {
	lines       *LineController
	waker       *Waker
	scheduler   sched.Scheduler
	pollTimeout time.Duration
	log         *zap.SugaredLogger
	buf         [capture.Capacity]capture.Edge
	closed      bool
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler sets the scheduler used to raise priority during a read.
func WithScheduler(s sched.Scheduler) Option {
	return func(sess *Session) { sess.scheduler = s }
}

// WithWakeDelay sets how long the wake pulse holds the line low.
func WithWakeDelay(d time.Duration) Option {
	return func(sess *Session) { sess.waker.Delay = d }
}

// WithPollTimeout sets the per-edge wait.
func WithPollTimeout(d time.Duration) Option {
	return func(sess *Session) { sess.pollTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(sess *Session) { sess.log = l }
}

// Open takes the line on chip and leaves it idle. Nothing is held if it fails.
func Open(chip gpio.Chip, offset int, opts ...Option) (*Session, error) {
	if chip == nil {
		return nil, fmt.Errorf("%w: no chip", ErrOpen)
	}
	s := &Session{
		lines:       NewLineController(chip, offset),
		waker:       NewWaker(DefaultWakeDelay),
		scheduler:   sched.System(),
		pollTimeout: capture.PollTimeout,
		log:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.lines.ToIdleOutputHigh(); err != nil {
		return nil, err
	}
	s.log.Debugf("dht: line %d idle", offset)
	return s, nil
}

// Mode returns the current line mode. Outside Read it is always ModeIdle
// unless re-arming the line failed.
func (s *Session) Mode() Mode {
	return s.lines.Mode()
}

// Read wakes the sensor and captures its response.
//
// On success it returns between 1 and capture.Capacity edges; fewer than a
// full frame means the response was cut short. Failures:
//   - capture.ErrEmptyTimeout: no response at all, no edges
//   - capture.ErrPollFailure: the wait failed, with the edges seen before it
//   - ErrWatch: the line could not be watched, no edges
//   - ErrOpen: the line could not be put back to idle (joined with any capture error)
//
// The returned slice is never reused by later reads.
func (s *Session) Read() (edges []capture.Edge, err error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.lines.Mode() != ModeIdle {
		// An earlier re-arm failed; try again before waking the sensor.
		if err := s.lines.ToIdleOutputHigh(); err != nil {
			return nil, err
		}
	}

	guard, gerr := sched.Elevate(s.scheduler)
	defer func() {
		if rerr := guard.Restore(); rerr != nil {
			s.log.Warnf("dht: %v", rerr)
		}
	}()
	if !guard.Elevated() {
		s.log.Debugf("dht: capturing at normal priority: %v", gerr)
	}

	defer func() {
		if ierr := s.lines.ToIdleOutputHigh(); ierr != nil {
			err = errors.Join(err, ierr)
		}
	}()

	if err := s.waker.Pulse(s.lines); err != nil {
		return nil, err
	}

	watch, err := s.lines.ToInputEdgeWatch()
	if err != nil {
		return nil, err
	}

	n, err := capture.Run(watch, s.buf[:], s.pollTimeout)
	edges = make([]capture.Edge, n)
	copy(edges, s.buf[:n])
	s.log.Debugf("dht: captured %d edges (elevated=%t, err=%v)", n, guard.Elevated(), err)
	return edges, err
}

// Close releases the line. The session cannot be used afterwards.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.lines.Release()
}
