package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holosonic/go-holodeck/internal/observability"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	return NewServer("0", []string{"Orus", "Puck"}, metrics, nil)
}

func TestHandleStatusSnapshot(t *testing.T) {
	s := newTestServer(t)
	s.UpdateState(func(st *ConsoleState) {
		st.SessionState = "open"
		st.Voice = "Puck"
		st.Listening = true
	})

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var state ConsoleState
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.SessionState != "open" || state.Voice != "Puck" || !state.Listening {
		t.Errorf("state = %+v", state)
	}
}

func TestHandleVoices(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/voices", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	var body struct {
		Voices []string `json:"voices"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Voices) != 2 || body.Voices[0] != "Orus" {
		t.Errorf("voices = %v", body.Voices)
	}
}

func TestHandleConnectWiresCallback(t *testing.T) {
	s := newTestServer(t)

	var gotVoice string
	s.OnSessionConnect = func(voice string) error {
		gotVoice = voice
		return nil
	}

	req := httptest.NewRequest("POST", "/api/session/connect", strings.NewReader(`{"voice":"Puck"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if gotVoice != "Puck" {
		t.Errorf("voice passed to callback = %q", gotVoice)
	}
}

func TestHandleConnectErrors(t *testing.T) {
	s := newTestServer(t)

	// No callback wired.
	req := httptest.NewRequest("POST", "/api/session/connect", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("status without callback = %d, want 503", resp.StatusCode)
	}

	// Callback fails.
	s.OnSessionConnect = func(string) error { return errors.New("no link") }
	req = httptest.NewRequest("POST", "/api/session/connect", nil)
	resp, err = s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 502 {
		t.Errorf("status on failure = %d, want 502", resp.StatusCode)
	}
}

func TestHandleDisconnect(t *testing.T) {
	s := newTestServer(t)

	called := false
	s.OnSessionDisconnect = func() { called = true }

	req := httptest.NewRequest("POST", "/api/session/disconnect", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !called {
		t.Error("disconnect callback not invoked")
	}
}

func TestLogBufferTrims(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 600; i++ {
		s.AddLog("info", "line")
	}

	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	if len(s.logs) != 500 {
		t.Errorf("log buffer = %d entries, want 500", len(s.logs))
	}
}

func TestResetStateClearsEverything(t *testing.T) {
	s := newTestServer(t)
	s.UpdateState(func(st *ConsoleState) {
		st.SessionState = "open"
		st.LastCommand = "restart"
	})
	s.AddLog("info", "line")

	s.ResetState()

	s.stateMu.RLock()
	state := s.state
	s.stateMu.RUnlock()
	if state.SessionState != "idle" || state.LastCommand != "" {
		t.Errorf("state after reset = %+v", state)
	}

	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	if len(s.logs) != 0 {
		t.Errorf("logs after reset = %d entries, want 0", len(s.logs))
	}
}
