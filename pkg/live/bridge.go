// Package live owns the bidirectional session to the hosted
// conversational model. It streams encoded microphone frames upstream,
// routes inbound messages to playback or the command router, and keeps
// the console's amplitude signal fed.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/holosonic/go-holodeck/pkg/amplitude"
	"github.com/holosonic/go-holodeck/pkg/audioio"
	"github.com/holosonic/go-holodeck/pkg/capture"
	"github.com/holosonic/go-holodeck/pkg/command"
	"github.com/holosonic/go-holodeck/pkg/pcm"
	"github.com/holosonic/go-holodeck/pkg/playback"
)

// State is the lifecycle state of a session.
type State string

// Session lifecycle: Idle -> Connecting -> Open -> {Closed, Error}.
// Open re-enters itself on every message.
const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StateError      State = "error"
)

// Common errors returned by the bridge.
var (
	ErrNotConnected     = errors.New("live: session not open")
	ErrAlreadyConnected = errors.New("live: session already active")
)

// Callbacks are the collaborator hooks supplied at construction time.
// All are invoked synchronously from bridge handlers; do not block.
type Callbacks struct {
	// OnOpen fires when the remote session is ready.
	OnOpen func()

	// OnClose fires when the remote closes the session.
	OnClose func(code int, reason string)

	// OnError fires on transport errors. Resources are left for the
	// caller to tear down via Disconnect.
	OnError func(err error)

	// OnAudioData fires at display-refresh cadence with the current
	// output loudness.
	OnAudioData func(amplitude float64)

	// OnAudioScheduled fires once per inbound audio chunk handed to the
	// playback scheduler.
	OnAudioScheduled func()

	// OnInterrupted fires when a barge-in flushes playback.
	OnInterrupted func()

	// OnCommand fires when the remote routes a recognized system command.
	OnCommand func(cmd command.Command)
}

// Bridge is one logical connection to the remote conversational endpoint.
// It owns the capture pipeline, the playback scheduler, and the amplitude
// monitor for the life of the session; a new session means a new Bridge.
type Bridge struct {
	cfg       Config
	callbacks Callbacks
	logger    *slog.Logger

	source    audioio.Source
	sink      audioio.Sink
	capture   *capture.Pipeline
	scheduler *playback.Scheduler
	analyser  *amplitude.Analyser
	monitor   *amplitude.Monitor
	router    *command.Router

	ws   *websocket.Conn
	wsMu sync.Mutex

	mu    sync.RWMutex
	state State
}

// NewBridge creates a bridge over the given audio endpoints.
func NewBridge(cfg Config, source audioio.Source, sink audioio.Sink, callbacks Callbacks, logger *slog.Logger) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	clock := playback.NewSystemClock()
	analyser := amplitude.NewAnalyser(amplitude.DefaultFFTSize)

	// The analyser tracks the live output signal: it is fed when a unit
	// actually starts emitting and cleared when output goes silent.
	player := playback.NewSinkPlayer(clock, sink, pcm.OutputRate, logger,
		playback.WithEmitTap(analyser.Feed))
	scheduler := playback.NewScheduler(clock, player, pcm.OutputRate, logger,
		playback.WithIdleFunc(analyser.Reset))

	b := &Bridge{
		cfg:       cfg,
		callbacks: callbacks,
		logger:    logger,
		source:    source,
		sink:      sink,
		capture:   capture.NewPipeline(source, logger),
		scheduler: scheduler,
		analyser:  analyser,
		monitor:   amplitude.NewMonitor(analyser, logger),
		state:     StateIdle,
	}

	b.router = command.NewRouter(func(cmd command.Command) {
		if b.callbacks.OnCommand != nil {
			b.callbacks.OnCommand(cmd)
		}
	}, logger)

	return b, nil
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Connect acquires the audio path, opens the remote session, and sends
// the setup message. Capture begins once the remote signals readiness.
// Acquisition failures fail the call; nothing is retried.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return ErrAlreadyConnected
	}
	b.state = StateConnecting
	b.mu.Unlock()

	if err := b.sink.Start(ctx); err != nil {
		b.setState(StateError)
		return fmt.Errorf("live: acquire output: %w", err)
	}

	b.monitor.Start(func(a float64) {
		if b.callbacks.OnAudioData != nil {
			b.callbacks.OnAudioData(a)
		}
	})

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, b.sessionURL(), nil)
	if err != nil {
		b.teardown()
		b.setState(StateError)
		return fmt.Errorf("live: open session: %w", err)
	}

	b.wsMu.Lock()
	b.ws = ws
	b.wsMu.Unlock()

	if err := b.sendSetup(); err != nil {
		b.teardown()
		b.setState(StateError)
		return fmt.Errorf("live: configure session: %w", err)
	}

	go b.readLoop()

	b.logger.Info("live session connecting",
		"model", b.cfg.Model,
		"voice", b.cfg.Voice,
	)

	return nil
}

func (b *Bridge) sessionURL() string {
	url := b.cfg.Endpoint
	if url == "" {
		url = BidiURL
	}
	if b.cfg.APIKey != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "key=" + b.cfg.APIKey
	}
	return url
}

func (b *Bridge) sendSetup() error {
	msg := setupMessage{
		Setup: setupPayload{
			Model: b.cfg.Model,
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: speechConfig{
					VoiceConfig: voiceConfig{
						PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: b.cfg.Voice},
					},
				},
			},
			Tools: []toolDeclarations{
				{FunctionDeclarations: []map[string]any{command.Declaration()}},
			},
		},
	}
	if b.cfg.Instruction != "" {
		msg.Setup.SystemInstruction = &systemInstruction{
			Parts: []textPart{{Text: b.cfg.Instruction}},
		}
	}
	return b.sendJSON(msg)
}

// SendFrame encodes one captured frame and streams it to the remote
// session. Fire-and-continue: callers never wait on the network.
func (b *Bridge) SendFrame(samples []float32) error {
	if b.State() != StateOpen {
		return ErrNotConnected
	}
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []pcm.Blob{pcm.Encode(samples)},
		},
	}
	return b.sendJSON(msg)
}

// SendToolResponse returns a batch of acknowledgments to the session.
func (b *Bridge) SendToolResponse(acks []FunctionResponse) error {
	if len(acks) == 0 {
		return nil
	}
	return b.sendJSON(toolResponseMessage{
		ToolResponse: toolResponse{FunctionResponses: acks},
	})
}

func (b *Bridge) sendJSON(v any) error {
	b.wsMu.Lock()
	defer b.wsMu.Unlock()

	if b.ws == nil {
		return ErrNotConnected
	}
	return b.ws.WriteJSON(v)
}

func (b *Bridge) readLoop() {
	for {
		b.wsMu.Lock()
		ws := b.ws
		b.wsMu.Unlock()
		if ws == nil {
			return
		}

		_, data, err := ws.ReadMessage()
		if err != nil {
			b.handleReadError(err)
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Debug("unparseable server message", "error", err)
			continue
		}

		b.handleMessage(msg)
	}
}

func (b *Bridge) handleReadError(err error) {
	// Local teardown already closed the socket; nothing to report.
	if s := b.State(); s == StateClosed || s == StateIdle {
		return
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		b.setState(StateClosed)
		b.logger.Info("live session closed by remote",
			"code", closeErr.Code,
			"reason", closeErr.Text,
		)
		if b.callbacks.OnClose != nil {
			b.callbacks.OnClose(closeErr.Code, closeErr.Text)
		}
		return
	}

	b.setState(StateError)
	b.logger.Error("live session transport error", "error", err)
	if b.callbacks.OnError != nil {
		b.callbacks.OnError(err)
	}
}

// handleMessage dispatches one inbound message. Tool calls are processed
// and acknowledged first; an interruption flag flushes playback and
// short-circuits any audio payload carried in the same message.
func (b *Bridge) handleMessage(msg ServerMessage) {
	if msg.SetupComplete != nil {
		b.handleSetupComplete()
		return
	}

	if msg.ToolCall != nil {
		b.handleToolCall(msg.ToolCall)
	}

	if msg.ServerContent != nil {
		b.handleServerContent(msg.ServerContent)
	}
}

func (b *Bridge) handleSetupComplete() {
	b.mu.Lock()
	if b.state != StateConnecting {
		b.mu.Unlock()
		return
	}
	b.state = StateOpen
	b.mu.Unlock()

	// Capture outlives the dial context; it runs until Disconnect.
	if err := b.capture.StartStreaming(context.Background(), func(samples []float32) {
		if err := b.SendFrame(samples); err != nil {
			b.logger.Debug("dropping capture frame", "error", err)
		}
	}); err != nil {
		b.setState(StateError)
		b.logger.Error("capture start failed", "error", err)
		if b.callbacks.OnError != nil {
			b.callbacks.OnError(err)
		}
		return
	}

	b.logger.Info("live session open")
	if b.callbacks.OnOpen != nil {
		b.callbacks.OnOpen()
	}
}

func (b *Bridge) handleToolCall(tc *ToolCall) {
	var acks []FunctionResponse
	for _, fc := range tc.FunctionCalls {
		if _, ok := b.router.Route(fc.Name, fc.Args); ok {
			acks = append(acks, FunctionResponse{
				ID:       fc.ID,
				Name:     fc.Name,
				Response: map[string]any{"result": "ok"},
			})
		}
		// Unrecognized names get no ack and no error: the remote may
		// carry tools outside this console's declared surface.
	}

	if err := b.SendToolResponse(acks); err != nil {
		b.logger.Debug("tool response send failed", "error", err)
	}
}

func (b *Bridge) handleServerContent(sc *ServerContent) {
	if sc.Interrupted {
		// Barge-in: flush everything scheduled and ignore the rest of
		// this message, audio payload included.
		b.scheduler.Interrupt()
		b.analyser.Reset()
		b.logger.Debug("playback flushed on interruption")
		if b.callbacks.OnInterrupted != nil {
			b.callbacks.OnInterrupted()
		}
		return
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			b.schedulePart(part)
		}
	}

	if sc.TurnComplete {
		b.logger.Debug("model turn complete")
	}
}

func (b *Bridge) schedulePart(part Part) {
	if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MIMEType, "audio/pcm") {
		return
	}

	raw, err := pcm.Decode(part.InlineData.Data)
	if err != nil {
		// Malformed payload degrades to a dropped chunk, never a failure.
		b.logger.Debug("dropping malformed audio payload", "error", err)
		return
	}

	samples := pcm.BytesToFloat32(raw)
	if len(samples) == 0 {
		return
	}

	b.scheduler.Enqueue(samples)
	if b.callbacks.OnAudioScheduled != nil {
		b.callbacks.OnAudioScheduled()
	}
}

// Disconnect tears down local resources: capture, monitor, scheduled
// playback, the output sink, and the socket. Idempotent and callable
// from any state, including before Connect completed; only the teardown
// actions still applicable are performed. Local teardown is the
// authoritative end-of-session signal; the socket close is best-effort.
func (b *Bridge) Disconnect() {
	b.mu.Lock()
	alreadyDown := b.state == StateClosed || b.state == StateIdle
	b.state = StateClosed
	b.mu.Unlock()

	if err := b.capture.Stop(); err != nil {
		b.logger.Debug("capture stop", "error", err)
	}
	b.teardown()

	if !alreadyDown {
		b.logger.Info("live session disconnected")
	}
}

func (b *Bridge) teardown() {
	b.monitor.Stop()
	b.scheduler.Interrupt()
	b.analyser.Reset()

	if err := b.sink.Clear(); err != nil {
		b.logger.Debug("sink clear", "error", err)
	}
	if err := b.sink.Stop(); err != nil {
		b.logger.Debug("sink stop", "error", err)
	}

	b.wsMu.Lock()
	if b.ws != nil {
		b.ws.Close()
		b.ws = nil
	}
	b.wsMu.Unlock()
}

// Scheduler exposes the playback scheduler for observability.
func (b *Bridge) Scheduler() *playback.Scheduler {
	return b.scheduler
}
