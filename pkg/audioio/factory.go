package audioio

import (
	"fmt"
	"log/slog"
)

// NewSource creates an audio source for the configured backend.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("creating audio source",
		"backend", cfg.Backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch cfg.Backend {
	case BackendConsole:
		return NewConsoleSource(cfg, logger), nil
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// NewSink creates an audio sink for the configured backend. The console
// backend broadcasts playback through out; the mock backend ignores it.
func NewSink(cfg Config, out Broadcaster, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("creating audio sink",
		"backend", cfg.Backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch cfg.Backend {
	case BackendConsole:
		if out == nil {
			return nil, fmt.Errorf("console sink requires a broadcaster")
		}
		return NewConsoleSink(cfg, out, logger), nil
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// AvailableBackends returns the backends this build supports.
func AvailableBackends() []Backend {
	return []Backend{BackendConsole, BackendMock}
}
