package audioio

import (
	"context"
	"io"
)

// Chunk represents a block of audio data.
type Chunk struct {
	// Samples contains PCM16 audio samples (little-endian).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw bytes of the audio chunk.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

// FromBytes populates the chunk from raw PCM16 bytes.
// A trailing incomplete sample is dropped.
func (c *Chunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = make([]int16, len(data)/2)
	for i := range c.Samples {
		c.Samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
}

// Duration returns the duration of this audio chunk in seconds.
func (c *Chunk) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// Source captures audio from a microphone or other input.
type Source interface {
	// Start begins audio capture.
	Start(ctx context.Context) error

	// Stop halts audio capture. Safe to call multiple times.
	Stop() error

	// Read reads the next audio chunk, blocking if necessary.
	// Returns io.EOF when the source is stopped.
	Read(ctx context.Context) (Chunk, error)

	// Stream returns a channel that receives audio chunks.
	// The channel is closed when the source is stopped.
	Stream() <-chan Chunk

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "console", "mock").
	Name() string

	// Close releases all resources. The source cannot be restarted after.
	io.Closer
}

// Sink plays audio to a speaker or other output.
type Sink interface {
	// Start begins audio playback.
	Start(ctx context.Context) error

	// Stop halts audio playback. Safe to call multiple times.
	Stop() error

	// Write sends an audio chunk to the output.
	Write(ctx context.Context, chunk Chunk) error

	// Clear discards all buffered audio immediately.
	// Use this to interrupt playback (e.g., barge-in).
	Clear() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "console", "mock").
	Name() string

	// Close releases all resources. The sink cannot be restarted after.
	io.Closer
}
