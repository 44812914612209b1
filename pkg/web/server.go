// Package web serves the holodeck console: the static browser UI plus
// the websocket streams that make the browser act as microphone and
// speaker for the live session.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/holosonic/go-holodeck/internal/observability"
	"github.com/holosonic/go-holodeck/pkg/hub"
)

// ConsoleState is the status snapshot pushed to every console client.
type ConsoleState struct {
	SessionState string  `json:"session_state"`
	Model        string  `json:"model"`
	Voice        string  `json:"voice"`
	Listening    bool    `json:"listening"`
	Speaking     bool    `json:"speaking"`
	Amplitude    float64 `json:"amplitude"`
	LastCommand  string  `json:"last_command"`
	LastError    string  `json:"last_error"`
}

// LogEntry is one console log line.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, command, session, error
	Message string `json:"message"`
}

// Server is the console web server.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	state   ConsoleState
	stateMu sync.RWMutex

	// Log buffer (last 500 entries).
	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub    *hub.Hub
	logHub       *hub.Hub
	audioHub     *hub.Hub
	amplitudeHub *hub.Hub
	micHub       *hub.Hub

	voices  []string
	metrics *observability.Metrics

	// Session control callbacks, wired by the collaborator.
	OnSessionConnect    func(voice string) error
	OnSessionDisconnect func()

	// OnMicFrame receives raw PCM pushed by the browser microphone.
	OnMicFrame func(data []byte)
}

// NewServer creates the console server.
func NewServer(port string, voices []string, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		port:         port,
		logger:       logger,
		logs:         make([]LogEntry, 0, 500),
		statusHub:    hub.New("status", logger),
		logHub:       hub.New("logs", logger),
		audioHub:     hub.New("audio", logger),
		amplitudeHub: hub.New("amplitude", logger),
		micHub:       hub.New("mic", logger),
		voices:       voices,
		metrics:      metrics,
	}
	s.state.SessionState = "idle"

	app := fiber.New(fiber.Config{
		AppName:               "Holodeck Console",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/voices", s.handleVoices)
	api.Get("/logs", s.handleGetLogs)
	api.Post("/session/connect", s.handleConnect)
	api.Post("/session/disconnect", s.handleDisconnect)

	app.Get("/metrics", adaptor.HTTPHandler(observability.MetricsHandler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/audio", websocket.New(s.handleAudioWS))
	app.Get("/ws/amplitude", websocket.New(s.handleAmplitudeWS))
	app.Get("/ws/mic", websocket.New(s.handleMicWS))

	s.app = app
	return s
}

// Start runs all hubs and listens. Blocks until Shutdown.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.audioHub.Run()
	go s.amplitudeHub.Run()
	go s.micHub.Run()

	s.logger.Info("console listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("console server stopped", "error", err)
		}
	}()
}

// Shutdown stops the server and all hubs.
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.logHub.Stop()
	s.audioHub.Stop()
	s.amplitudeHub.Stop()
	s.micHub.Stop()
	return s.app.Shutdown()
}

// App exposes the underlying fiber app, mainly for request testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// AudioHub returns the outbound PCM hub. It satisfies the playback
// sink's broadcaster so scheduled audio reaches the browser speaker.
func (s *Server) AudioHub() *hub.Hub {
	return s.audioHub
}

// UpdateState mutates the console state and broadcasts the new snapshot.
func (s *Server) UpdateState(update func(*ConsoleState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// ResetState restores the pristine console state and broadcasts it.
func (s *Server) ResetState() {
	s.stateMu.Lock()
	s.state = ConsoleState{SessionState: "idle"}
	state := s.state
	s.stateMu.Unlock()

	s.logsMu.Lock()
	s.logs = s.logs[:0]
	s.logsMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// BroadcastAmplitude pushes one loudness reading to amplitude clients.
func (s *Server) BroadcastAmplitude(amplitude float64) {
	s.amplitudeHub.BroadcastJSON(fiber.Map{"amplitude": amplitude})
}

// AddLog records a console log line and broadcasts it.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}
