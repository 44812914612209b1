// Package console is the application collaborator: it owns the web
// server, opens and tears down live sessions, and applies the effects
// of system commands issued by the model.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/holosonic/go-holodeck/internal/observability"
	"github.com/holosonic/go-holodeck/pkg/audioio"
	"github.com/holosonic/go-holodeck/pkg/command"
	"github.com/holosonic/go-holodeck/pkg/live"
	"github.com/holosonic/go-holodeck/pkg/web"
)

// Persona is the system instruction given to every session.
const Persona = `You are the voice of a holodeck control console. You are calm, precise, and a little theatrical, in the manner of a starship computer.

BEHAVIOR:
- Keep spoken responses short - one or two sentences.
- Acknowledge commands crisply before acting.
- Never mention that you are an AI or language model.

SYSTEM COMMANDS:
When the operator asks you to shut down, restart, or run a status check,
call the executeSystemCommand tool with the matching command value
(shutdown, restart, status_check). Call the tool silently and confirm
verbally in character. Do not invent other command values.`

// speakingThreshold is the amplitude above which the console reports
// the model as speaking.
const speakingThreshold = 0.01

// connectTimeout bounds the websocket dial and setup exchange.
const connectTimeout = 15 * time.Second

// Config carries everything the console needs to run.
type Config struct {
	APIKey string
	Model  string
	Voice  string
	Port   string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("console: api key is required")
	}
	if c.Model == "" {
		return errors.New("console: model is required")
	}
	if !live.ValidVoice(c.Voice) {
		return fmt.Errorf("console: unknown voice %q", c.Voice)
	}
	if c.Port == "" {
		return errors.New("console: port is required")
	}
	return nil
}

// All consoles in a process share one set of instruments; prometheus
// rejects duplicate registration on the default registry.
var (
	metricsOnce sync.Once
	metricsInst *observability.Metrics
)

func sharedMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		metricsInst = observability.NewMetrics("holodeck", nil)
	})
	return metricsInst
}

// Console orchestrates the web server and the live session.
type Console struct {
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
	server  *web.Server

	mu           sync.Mutex
	bridge       *live.Bridge
	pusher       framePusher
	voice        string
	sessionStart time.Time
	speaking     bool
}

// framePusher accepts raw PCM frames pushed from the console client and
// reports whether each frame was taken. The console audio backend
// satisfies it; backends that generate their own audio do not.
type framePusher interface {
	Push(data []byte) bool
}

// New creates the console and wires the web server callbacks.
func New(cfg Config, logger *slog.Logger) (*Console, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Console{
		cfg:     cfg,
		logger:  logger,
		metrics: sharedMetrics(),
	}
	c.server = web.NewServer(cfg.Port, live.Voices, c.metrics, logger)
	c.server.OnSessionConnect = c.StartSession
	c.server.OnSessionDisconnect = func() { c.StopSession("operator request") }
	c.server.OnMicFrame = c.pushMic

	return c, nil
}

// Run starts the web server and blocks until the context is cancelled,
// then tears everything down.
func (c *Console) Run(ctx context.Context) error {
	c.server.StartAsync()
	c.logger.Info("holodeck console ready", "port", c.cfg.Port, "model", c.cfg.Model)

	<-ctx.Done()

	c.StopSession("console shutdown")
	return c.server.Shutdown()
}

// StartSession opens a live session with the given voice, or the
// configured default when voice is empty.
func (c *Console) StartSession(voice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(voice)
}

func (c *Console) startLocked(voice string) error {
	if c.bridge != nil {
		return errors.New("console: session already active")
	}
	if voice == "" {
		voice = c.cfg.Voice
	}
	if !live.ValidVoice(voice) {
		return fmt.Errorf("console: unknown voice %q", voice)
	}

	source, err := audioio.NewSource(audioio.DefaultCaptureConfig(), c.logger)
	if err != nil {
		return err
	}
	sink, err := audioio.NewSink(audioio.DefaultPlaybackConfig(), c.server.AudioHub(), c.logger)
	if err != nil {
		return err
	}

	bridgeCfg := live.Config{
		APIKey:      c.cfg.APIKey,
		Model:       c.cfg.Model,
		Voice:       voice,
		Instruction: Persona,
	}

	bridge, err := live.NewBridge(bridgeCfg, source, sink, c.callbacks(voice), c.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := bridge.Connect(ctx); err != nil {
		c.metrics.SessionEvents.WithLabelValues("connect_failed").Inc()
		return err
	}

	c.bridge = bridge
	c.pusher, _ = source.(framePusher)
	c.voice = voice
	c.sessionStart = time.Now()
	c.speaking = false

	c.metrics.SessionEvents.WithLabelValues("connect").Inc()
	c.server.UpdateState(func(s *web.ConsoleState) {
		s.SessionState = string(live.StateConnecting)
		s.Model = c.cfg.Model
		s.Voice = voice
		s.LastError = ""
	})
	c.server.AddLog("session", "opening link, voice "+voice)
	return nil
}

// StopSession tears the live session down. Safe without a session.
func (c *Console) StopSession(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked(reason)
}

func (c *Console) stopLocked(reason string) {
	if c.bridge == nil {
		return
	}

	c.bridge.Disconnect()
	c.metrics.SessionActive.Set(0)
	c.metrics.SessionEvents.WithLabelValues("disconnect").Inc()
	c.metrics.ObserveSessionDuration(time.Since(c.sessionStart))

	c.bridge = nil
	c.pusher = nil
	c.speaking = false

	c.server.UpdateState(func(s *web.ConsoleState) {
		s.SessionState = "idle"
		s.Listening = false
		s.Speaking = false
		s.Amplitude = 0
	})
	c.server.AddLog("session", "link closed: "+reason)
	c.logger.Info("session stopped", "reason", reason)
}

func (c *Console) callbacks(voice string) live.Callbacks {
	return live.Callbacks{
		OnOpen: func() {
			c.metrics.SessionActive.Set(1)
			c.metrics.SessionEvents.WithLabelValues("open").Inc()
			c.server.UpdateState(func(s *web.ConsoleState) {
				s.SessionState = string(live.StateOpen)
				s.Listening = true
			})
			c.server.AddLog("session", "link open, listening")
		},
		OnClose: func(code int, reason string) {
			c.server.AddLog("session", fmt.Sprintf("remote closed link (%d)", code))
			go c.StopSession("remote close")
		},
		OnError: func(err error) {
			c.metrics.SessionEvents.WithLabelValues("error").Inc()
			c.server.UpdateState(func(s *web.ConsoleState) {
				s.SessionState = string(live.StateError)
				s.LastError = err.Error()
			})
			c.server.AddLog("error", err.Error())
			go c.StopSession("transport error")
		},
		OnAudioData:      c.onAmplitude,
		OnAudioScheduled: c.metrics.ChunksScheduled.Inc,
		OnInterrupted:    c.metrics.PlaybackFlushes.Inc,
		OnCommand:        c.applyCommand,
	}
}

// onAmplitude relays loudness to the visualizer and flips the speaking
// flag only when it crosses the threshold, so the status stream is not
// flooded at display rate.
func (c *Console) onAmplitude(amplitude float64) {
	c.server.BroadcastAmplitude(amplitude)

	speaking := amplitude > speakingThreshold
	c.mu.Lock()
	changed := speaking != c.speaking
	c.speaking = speaking
	c.mu.Unlock()

	if changed {
		c.server.UpdateState(func(s *web.ConsoleState) {
			s.Speaking = speaking
			s.Amplitude = amplitude
		})
	}
}

// pushMic forwards a mic frame into the session source. It counts only
// frames the source actually took; drops from a stopped source or a
// full buffer stay out of the streamed total.
func (c *Console) pushMic(data []byte) {
	c.mu.Lock()
	pusher := c.pusher
	c.mu.Unlock()

	if pusher == nil {
		return
	}
	if pusher.Push(data) {
		c.metrics.FramesStreamed.Inc()
	}
}

// applyCommand runs the effect of a routed system command. Effects that
// tear the session down run in their own goroutine so the session's
// read loop can unwind first.
func (c *Console) applyCommand(cmd command.Command) {
	c.metrics.CommandsRouted.WithLabelValues(string(cmd)).Inc()
	c.server.UpdateState(func(s *web.ConsoleState) {
		s.LastCommand = string(cmd)
	})
	c.server.AddLog("command", string(cmd))

	switch cmd {
	case command.Shutdown:
		go func() {
			c.server.AddLog("info", "powering down systems")
			c.StopSession("shutdown command")
		}()

	case command.Restart:
		go func() {
			c.mu.Lock()
			voice := c.voice
			c.stopLocked("restart command")
			c.mu.Unlock()

			c.server.ResetState()
			c.server.AddLog("info", "systems restarting")

			c.mu.Lock()
			err := c.startLocked(voice)
			c.mu.Unlock()
			if err != nil {
				c.server.AddLog("error", "restart failed: "+err.Error())
			}
		}()

	case command.StatusCheck:
		go c.runStatusCheck()
	}
}

// runStatusCheck emits a staged diagnostic readout to the console log.
func (c *Console) runStatusCheck() {
	steps := []struct {
		delay   time.Duration
		message string
	}{
		{0, "running diagnostics"},
		{400 * time.Millisecond, "audio path verified"},
		{800 * time.Millisecond, "session link stable"},
		{1200 * time.Millisecond, "all systems nominal"},
	}
	for _, step := range steps {
		time.Sleep(step.delay)
		c.server.AddLog("info", step.message)
	}
}

// Metrics exposes the console instruments.
func (c *Console) Metrics() *observability.Metrics {
	return c.metrics
}
