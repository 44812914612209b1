package audioio

import (
	"strings"
	"testing"
)

func TestNewSource_SelectsBackend(t *testing.T) {
	cfg := DefaultCaptureConfig()

	src, err := NewSource(cfg, nil)
	if err != nil {
		t.Fatalf("NewSource(console) failed: %v", err)
	}
	defer src.Close()
	if src.Name() != "console" {
		t.Errorf("Expected console source, got %q", src.Name())
	}

	cfg.Backend = BackendMock
	src2, err := NewSource(cfg, nil)
	if err != nil {
		t.Fatalf("NewSource(mock) failed: %v", err)
	}
	defer src2.Close()
	if src2.Name() != "mock" {
		t.Errorf("Expected mock source, got %q", src2.Name())
	}
}

func TestNewSink_SelectsBackend(t *testing.T) {
	cfg := DefaultPlaybackConfig()

	sink, err := NewSink(cfg, &captureBroadcaster{}, nil)
	if err != nil {
		t.Fatalf("NewSink(console) failed: %v", err)
	}
	defer sink.Close()
	if sink.Name() != "console" {
		t.Errorf("Expected console sink, got %q", sink.Name())
	}

	cfg.Backend = BackendMock
	sink2, err := NewSink(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewSink(mock) failed: %v", err)
	}
	defer sink2.Close()
	if sink2.Name() != "mock" {
		t.Errorf("Expected mock sink, got %q", sink2.Name())
	}
}

func TestNewSource_UnsupportedBackend(t *testing.T) {
	cfg := DefaultCaptureConfig()
	cfg.Backend = Backend("gramophone")

	if _, err := NewSource(cfg, nil); err == nil {
		t.Error("Expected error for unsupported backend")
	} else if !strings.Contains(err.Error(), "unsupported backend") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestNewSource_InvalidConfig(t *testing.T) {
	cfg := DefaultCaptureConfig()
	cfg.SampleRate = 0

	if _, err := NewSource(cfg, nil); err == nil {
		t.Error("Expected error for invalid config")
	} else if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestNewSink_ConsoleRequiresBroadcaster(t *testing.T) {
	if _, err := NewSink(DefaultPlaybackConfig(), nil, nil); err == nil {
		t.Error("Expected error for console sink without broadcaster")
	}
}
