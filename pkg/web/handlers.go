package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/holosonic/go-holodeck/pkg/hub"
)

// handleStatus returns the current console state snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleVoices returns the selectable voice catalog.
func (s *Server) handleVoices(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"voices": s.voices})
}

// handleGetLogs returns buffered console log lines.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// ConnectRequest selects a voice for the new session.
type ConnectRequest struct {
	Voice string `json:"voice"`
}

// handleConnect opens a live session on behalf of the browser.
func (s *Server) handleConnect(c *fiber.Ctx) error {
	if s.OnSessionConnect == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "session control not configured",
		})
	}

	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		req.Voice = ""
	}

	if err := s.OnSessionConnect(req.Voice); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "connecting"})
}

// handleDisconnect tears the live session down.
func (s *Server) handleDisconnect(c *fiber.Ctx) error {
	if s.OnSessionDisconnect != nil {
		s.OnSessionDisconnect()
	}
	return c.JSON(fiber.Map{"status": "disconnected"})
}

func (s *Server) trackClients(stream string) func() {
	if s.metrics == nil {
		return func() {}
	}
	gauge := s.metrics.ConsoleClients.WithLabelValues(stream)
	gauge.Inc()
	return gauge.Dec
}

// handleStatusWS streams state snapshots. New clients get the current
// state immediately so the panel never starts blank.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	done := s.trackClients("status")
	defer done()

	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleLogsWS streams console log lines, replaying the buffer first.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	done := s.trackClients("logs")
	defer done()

	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}

// handleAudioWS streams scheduled playback PCM to the browser speaker.
func (s *Server) handleAudioWS(c *websocket.Conn) {
	done := s.trackClients("audio")
	defer done()

	hub.NewClient(s.audioHub, c).Run()
}

// handleAmplitudeWS streams loudness readings for the visualizer.
func (s *Server) handleAmplitudeWS(c *websocket.Conn) {
	done := s.trackClients("amplitude")
	defer done()

	hub.NewClient(s.amplitudeHub, c).Run()
}

// handleMicWS receives raw PCM frames from the browser microphone and
// forwards them into the capture source.
func (s *Server) handleMicWS(c *websocket.Conn) {
	done := s.trackClients("mic")
	defer done()

	hub.NewClient(s.micHub, c, hub.WithBinaryHandler(func(data []byte) {
		if s.OnMicFrame != nil {
			s.OnMicFrame(data)
		}
	})).Run()
}
