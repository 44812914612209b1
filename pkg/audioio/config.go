// Package audioio provides the audio device layer for the console.
//
// The console has no local audio hardware of its own: microphone input is
// pushed in from the connected browser client, and playback is broadcast
// back out to it. A mock backend generates synthetic audio for tests and
// headless runs.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendConsole exchanges audio with the connected browser client.
	BackendConsole Backend = "console"
	// BackendMock uses a synthetic implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend `json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	// Capture runs at 16000, playback at 24000.
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels. Always 1 for the live API.
	Channels int `json:"channels"`

	// BufferDuration is the size of audio buffers.
	BufferDuration time.Duration `json:"buffer_duration"`
}

// DefaultCaptureConfig returns the capture-side defaults (16 kHz mono).
func DefaultCaptureConfig() Config {
	return Config{
		Backend:        BackendConsole,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// DefaultPlaybackConfig returns the playback-side defaults (24 kHz mono).
func DefaultPlaybackConfig() Config {
	return Config{
		Backend:        BackendConsole,
		SampleRate:     24000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of samples per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes (int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}
