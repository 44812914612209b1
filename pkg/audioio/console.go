package audioio

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// ConsoleSource is a Source fed by the browser console: the web layer
// pushes raw PCM16 frames received over the console websocket into it.
type ConsoleSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan Chunk
}

// NewConsoleSource creates a source that accepts pushed audio.
func NewConsoleSource(cfg Config, logger *slog.Logger) *ConsoleSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSource{
		cfg:      cfg,
		logger:   logger,
		streamCh: make(chan Chunk, 16),
	}
}

// Start marks the source as accepting pushed audio.
func (s *ConsoleSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	s.running = true
	s.streamCh = make(chan Chunk, 16)
	return nil
}

// Push delivers raw PCM16LE bytes from the console client. It reports
// whether the frame was accepted: frames pushed while the source is
// stopped are dropped, and so are frames that arrive while the buffer
// is full. The driver's cadence is the browser's, and this layer
// applies no backpressure.
func (s *ConsoleSource) Push(data []byte) bool {
	s.mu.Lock()
	if !s.running || s.closed {
		s.mu.Unlock()
		return false
	}
	ch := s.streamCh
	s.mu.Unlock()

	var chunk Chunk
	chunk.FromBytes(data, s.cfg.SampleRate, s.cfg.Channels)

	select {
	case ch <- chunk:
		return true
	default:
		// Consumer fell behind; drop rather than stall the websocket reader.
		s.logger.Debug("console source: buffer full, dropping frame")
		return false
	}
}

// Stop halts the source and closes the stream channel.
func (s *ConsoleSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	close(s.streamCh)
	return nil
}

// Read reads the next pushed chunk.
func (s *ConsoleSource) Read(ctx context.Context) (Chunk, error) {
	select {
	case <-ctx.Done():
		return Chunk{}, ctx.Err()
	case chunk, ok := <-s.streamCh:
		if !ok {
			return Chunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the audio chunk channel.
func (s *ConsoleSource) Stream() <-chan Chunk {
	return s.streamCh
}

// Config returns the audio configuration.
func (s *ConsoleSource) Config() Config {
	return s.cfg
}

// Name returns "console".
func (s *ConsoleSource) Name() string {
	return "console"
}

// Close releases resources.
func (s *ConsoleSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	return nil
}

var _ Source = (*ConsoleSource)(nil)

// Broadcaster delivers a binary payload to connected console clients.
// *hub.Hub satisfies this.
type Broadcaster interface {
	BroadcastBinary(data []byte)
}

// ConsoleSink is a Sink that broadcasts PCM16 frames to the browser
// console for playback. Clearing is signalled to clients out of band
// by the web layer; here it only resets local state.
type ConsoleSink struct {
	cfg    Config
	out    Broadcaster
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
}

// NewConsoleSink creates a sink that broadcasts audio to console clients.
func NewConsoleSink(cfg Config, out Broadcaster, logger *slog.Logger) *ConsoleSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleSink{
		cfg:    cfg,
		out:    out,
		logger: logger,
	}
}

// Start begins accepting audio.
func (s *ConsoleSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}

	s.running = true
	return nil
}

// Stop halts audio acceptance.
func (s *ConsoleSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	return nil
}

// Write broadcasts an audio chunk to console clients.
func (s *ConsoleSink) Write(ctx context.Context, chunk Chunk) error {
	s.mu.Lock()
	if s.closed || !s.running {
		s.mu.Unlock()
		return io.ErrClosedPipe
	}
	s.mu.Unlock()

	s.out.BroadcastBinary(chunk.Bytes())
	return nil
}

// Clear is a no-op at this layer; the web layer tells clients to flush.
func (s *ConsoleSink) Clear() error {
	return nil
}

// Config returns the audio configuration.
func (s *ConsoleSink) Config() Config {
	return s.cfg
}

// Name returns "console".
func (s *ConsoleSink) Name() string {
	return "console"
}

// Close releases resources.
func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	return nil
}

var _ Sink = (*ConsoleSink)(nil)
