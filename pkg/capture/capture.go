// Package capture taps a live audio source and delivers fixed-size frames
// of float samples to a consumer callback for the life of a session.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/holosonic/go-holodeck/pkg/audioio"
	"github.com/holosonic/go-holodeck/pkg/pcm"
)

// FrameSize is the number of samples delivered per callback (mono).
const FrameSize = 4096

// Common errors.
var (
	ErrAlreadyStreaming = errors.New("capture: already streaming")
)

// FrameFunc receives one captured frame of float samples in [-1, 1].
// It runs on the capture goroutine and must not block.
type FrameFunc func(samples []float32)

// Pipeline slices a live input stream into FrameSize frames.
//
// Delivery is push-based at the source's cadence: there is no internal
// buffering beyond the frame being assembled and no backpressure channel.
// A slow consumer delays delivery, nothing more.
type Pipeline struct {
	source audioio.Source
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	onFrame FrameFunc
	stopped chan struct{}
}

// NewPipeline creates a capture pipeline over the given source.
func NewPipeline(source audioio.Source, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source: source,
		logger: logger,
	}
}

// StartStreaming starts the source and begins delivering frames to onFrame.
// It returns once streaming is underway; frames arrive on a background
// goroutine until Stop is called or the source ends.
func (p *Pipeline) StartStreaming(ctx context.Context, onFrame FrameFunc) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyStreaming
	}
	p.running = true
	p.onFrame = onFrame
	p.stopped = make(chan struct{})
	p.mu.Unlock()

	if err := p.source.Start(ctx); err != nil {
		p.mu.Lock()
		p.running = false
		p.onFrame = nil
		p.mu.Unlock()
		return err
	}

	go p.run()

	p.logger.Info("capture streaming started",
		"backend", p.source.Name(),
		"sample_rate", p.source.Config().SampleRate,
		"frame_size", FrameSize,
	)

	return nil
}

func (p *Pipeline) run() {
	defer close(p.stopped)

	frame := make([]float32, 0, FrameSize)

	for chunk := range p.source.Stream() {
		for _, s := range chunk.Samples {
			frame = append(frame, pcm.Int16ToFloat32(s))
			if len(frame) == FrameSize {
				p.deliver(frame)
				frame = frame[:0]
			}
		}
	}
	// Source ended: the partial frame is dropped, matching the
	// one-in-flight-block contract.
}

func (p *Pipeline) deliver(frame []float32) {
	p.mu.Lock()
	onFrame := p.onFrame
	p.mu.Unlock()

	if onFrame == nil {
		return
	}

	out := make([]float32, FrameSize)
	copy(out, frame)
	onFrame(out)
}

// Stop tears the pipeline down: the source is stopped and the callback
// cleared. Idempotent; safe to call before StartStreaming.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.onFrame = nil
	stopped := p.stopped
	p.mu.Unlock()

	err := p.source.Stop()
	if stopped != nil {
		<-stopped
	}

	p.logger.Info("capture streaming stopped")
	return err
}

// Running reports whether the pipeline is currently streaming.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
