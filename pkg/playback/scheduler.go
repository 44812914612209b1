// Package playback schedules decoded output audio for gapless playback
// against a monotonic output clock, with immediate flush for barge-in.
package playback

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Player starts actual audio emission for a scheduled unit.
type Player interface {
	// Play schedules samples to begin at start (output-clock seconds) and
	// invokes done exactly once when playback finishes naturally. The
	// returned stop function halts playback immediately; stopping a unit
	// that already finished must be a no-op.
	Play(samples []float32, start float64, done func()) (stop func())
}

// unit is one scheduled block of output audio.
type unit struct {
	id       uuid.UUID
	start    float64
	duration float64
	stop     func()
}

// Scheduler buffers decoded audio chunks and plays them back to back.
//
// Successive Enqueue calls never overlap and never leave a gap unless the
// output clock has already passed the cursor (silence underrun). Interrupt
// discards everything scheduled and resets the cursor so the next chunk
// starts fresh against the live clock.
type Scheduler struct {
	clock      Clock
	player     Player
	sampleRate int
	logger     *slog.Logger

	onIdle func()

	mu        sync.Mutex
	nextStart float64
	units     map[uuid.UUID]*unit
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithIdleFunc invokes fn whenever a natural completion leaves the
// scheduled-unit set empty, marking the moment output goes silent.
// Interrupt does not trigger it; the caller flushing playback already
// knows output has stopped.
func WithIdleFunc(fn func()) SchedulerOption {
	return func(s *Scheduler) {
		s.onIdle = fn
	}
}

// NewScheduler creates a scheduler for output audio at sampleRate.
func NewScheduler(clock Clock, player Player, sampleRate int, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		clock:      clock,
		player:     player,
		sampleRate: sampleRate,
		logger:     logger,
		units:      make(map[uuid.UUID]*unit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue schedules samples for playback and returns the start position
// on the output clock. The unit begins no earlier than the end of the
// previously enqueued unit.
func (s *Scheduler) Enqueue(samples []float32) float64 {
	duration := float64(len(samples)) / float64(s.sampleRate)
	now := s.clock.Now()

	s.mu.Lock()
	start := s.nextStart
	if now > start {
		start = now
	}
	s.nextStart = start + duration

	u := &unit{
		id:       uuid.New(),
		start:    start,
		duration: duration,
	}
	s.units[u.id] = u
	s.mu.Unlock()

	stop := s.player.Play(samples, start, func() {
		s.mu.Lock()
		_, present := s.units[u.id]
		delete(s.units, u.id)
		idle := present && len(s.units) == 0
		s.mu.Unlock()

		if idle && s.onIdle != nil {
			s.onIdle()
		}
	})

	s.mu.Lock()
	if _, ok := s.units[u.id]; ok {
		u.stop = stop
		s.mu.Unlock()
	} else {
		// Interrupted (or finished) while playback was being set up.
		s.mu.Unlock()
		stop()
	}

	s.logger.Debug("scheduled audio unit",
		"start", start,
		"duration", duration,
	)

	return start
}

// Interrupt stops every scheduled unit immediately, clears the set, and
// resets the cursor to zero so the next Enqueue starts relative to the
// live output clock. Safe to call repeatedly and with nothing scheduled.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stops := make([]func(), 0, len(s.units))
	for _, u := range s.units {
		if u.stop != nil {
			stops = append(stops, u.stop)
		}
	}
	flushed := len(s.units)
	s.units = make(map[uuid.UUID]*unit)
	s.nextStart = 0
	s.mu.Unlock()

	// Stop outside the lock; a unit may complete naturally while we do
	// this, and stopping a finished unit is tolerated.
	for _, stop := range stops {
		stop()
	}

	if flushed > 0 {
		s.logger.Debug("playback interrupted", "flushed", flushed)
	}
}

// Pending returns the number of units currently scheduled or playing.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units)
}

// NextStart returns the current playback cursor position.
func (s *Scheduler) NextStart() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
