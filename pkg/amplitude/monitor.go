package amplitude

import (
	"log/slog"
	"sync"
	"time"
)

// RefreshInterval is the sampling cadence, matched to a 60 Hz display.
const RefreshInterval = time.Second / 60

// AmplitudeFunc receives one loudness reading per display frame.
// It must not block.
type AmplitudeFunc func(amplitude float64)

// Monitor samples an Analyser at display-refresh cadence and reports the
// mean bin magnitude until cancelled.
type Monitor struct {
	analyser *Analyser
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewMonitor creates a monitor over the given analyser.
func NewMonitor(analyser *Analyser, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		analyser: analyser,
		interval: RefreshInterval,
		logger:   logger,
	}
}

// Start begins the recurring sampling loop. Calling Start while running
// is a no-op.
func (m *Monitor) Start(onAmplitude AmplitudeFunc) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				onAmplitude(m.analyser.MeanMagnitude())
			}
		}
	}()

	m.logger.Debug("amplitude monitor started", "interval", m.interval)
}

// Stop cancels the sampling loop. Immediate and idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	close(m.stopCh)

	m.logger.Debug("amplitude monitor stopped")
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
