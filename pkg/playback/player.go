package playback

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/holosonic/go-holodeck/pkg/audioio"
	"github.com/holosonic/go-holodeck/pkg/pcm"
)

// SinkPlayer emits scheduled units to an audioio.Sink, timing the write
// against the scheduler's clock so chunks reach the output back to back.
type SinkPlayer struct {
	clock      Clock
	sink       audioio.Sink
	sampleRate int
	logger     *slog.Logger
	tap        func(samples []float32)
}

// SinkPlayerOption configures a SinkPlayer.
type SinkPlayerOption func(*SinkPlayer)

// WithEmitTap invokes fn with a unit's samples when its emission
// actually begins, not when it is scheduled. Stopped units never reach
// the tap.
func WithEmitTap(fn func(samples []float32)) SinkPlayerOption {
	return func(p *SinkPlayer) {
		p.tap = fn
	}
}

// NewSinkPlayer creates a player that writes to sink at sampleRate.
func NewSinkPlayer(clock Clock, sink audioio.Sink, sampleRate int, logger *slog.Logger, opts ...SinkPlayerOption) *SinkPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	p := &SinkPlayer{
		clock:      clock,
		sink:       sink,
		sampleRate: sampleRate,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play schedules the unit's sink write at start and its completion at
// start+duration. The returned stop cancels both; stopping after natural
// completion is a no-op.
func (p *SinkPlayer) Play(samples []float32, start float64, done func()) (stop func()) {
	duration := float64(len(samples)) / float64(p.sampleRate)

	var stopped atomic.Bool

	delay := start - p.clock.Now()
	if delay < 0 {
		delay = 0
	}

	startTimer := time.AfterFunc(secondsToDuration(delay), func() {
		if stopped.Load() {
			return
		}
		chunk := audioio.Chunk{
			Samples:    pcm.Float32ToInt16(samples),
			SampleRate: p.sampleRate,
			Channels:   1,
		}
		if err := p.sink.Write(context.Background(), chunk); err != nil {
			p.logger.Debug("sink write failed", "error", err)
		}
		if p.tap != nil {
			p.tap(samples)
		}
	})

	doneTimer := time.AfterFunc(secondsToDuration(delay+duration), func() {
		if stopped.Load() {
			return
		}
		done()
	})

	return func() {
		if stopped.CompareAndSwap(false, true) {
			startTimer.Stop()
			doneTimer.Stop()
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

var _ Player = (*SinkPlayer)(nil)
