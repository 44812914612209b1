package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/holosonic/go-holodeck/pkg/audioio"
)

func TestSinkPlayer_WritesAndCompletes(t *testing.T) {
	clock := NewSystemClock()
	cfg := audioio.DefaultPlaybackConfig()
	cfg.Backend = audioio.BackendMock
	sink := audioio.NewMockSink(cfg, nil)
	defer sink.Close()
	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	p := NewSinkPlayer(clock, sink, 24000, nil)

	doneCh := make(chan struct{})
	// 10ms of audio, scheduled for "now"
	p.Play(make([]float32, 240), clock.Now(), func() { close(doneCh) })

	select {
	case <-doneCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Playback did not complete")
	}

	if got := len(sink.Written()); got != 1 {
		t.Errorf("Expected 1 chunk written, got %d", got)
	}
}

func TestSinkPlayer_EmitTapFiresAtPlaybackTime(t *testing.T) {
	clock := NewSystemClock()
	cfg := audioio.DefaultPlaybackConfig()
	cfg.Backend = audioio.BackendMock
	sink := audioio.NewMockSink(cfg, nil)
	defer sink.Close()
	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var mu sync.Mutex
	var tapped [][]float32
	p := NewSinkPlayer(clock, sink, 24000, nil, WithEmitTap(func(s []float32) {
		mu.Lock()
		tapped = append(tapped, s)
		mu.Unlock()
	}))

	doneCh := make(chan struct{})
	p.Play(make([]float32, 240), clock.Now(), func() { close(doneCh) })

	select {
	case <-doneCh:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Playback did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(tapped) != 1 {
		t.Fatalf("Expected 1 tap, got %d", len(tapped))
	}
	if len(tapped[0]) != 240 {
		t.Errorf("Tap received %d samples, want 240", len(tapped[0]))
	}
}

func TestSinkPlayer_StoppedUnitNeverTaps(t *testing.T) {
	clock := NewSystemClock()
	cfg := audioio.DefaultPlaybackConfig()
	cfg.Backend = audioio.BackendMock
	sink := audioio.NewMockSink(cfg, nil)
	defer sink.Close()
	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var mu sync.Mutex
	taps := 0
	p := NewSinkPlayer(clock, sink, 24000, nil, WithEmitTap(func([]float32) {
		mu.Lock()
		taps++
		mu.Unlock()
	}))

	stop := p.Play(make([]float32, 2400), clock.Now()+0.1, func() {})
	stop()

	time.Sleep(250 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if taps != 0 {
		t.Errorf("Stopped unit reached the tap %d times", taps)
	}
}

func TestSinkPlayer_StopPreventsWrite(t *testing.T) {
	clock := NewSystemClock()
	cfg := audioio.DefaultPlaybackConfig()
	cfg.Backend = audioio.BackendMock
	sink := audioio.NewMockSink(cfg, nil)
	defer sink.Close()
	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	p := NewSinkPlayer(clock, sink, 24000, nil)

	completed := false
	// Scheduled 100ms out, stopped immediately.
	stop := p.Play(make([]float32, 2400), clock.Now()+0.1, func() { completed = true })
	stop()

	time.Sleep(250 * time.Millisecond)

	if got := len(sink.Written()); got != 0 {
		t.Errorf("Stopped unit must not be written, got %d chunks", got)
	}
	if completed {
		t.Error("Stopped unit must not complete naturally")
	}

	// Double stop is tolerated.
	stop()
}
