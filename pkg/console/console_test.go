package console

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holosonic/go-holodeck/pkg/command"
	"github.com/holosonic/go-holodeck/pkg/web"
)

func validConfig() Config {
	return Config{
		APIKey: "test-key",
		Model:  "models/test-live",
		Voice:  "Orus",
		Port:   "0",
	}
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing key", func(c *Config) { c.APIKey = "" }, "api key"},
		{"missing model", func(c *Config) { c.Model = "" }, "model"},
		{"unknown voice", func(c *Config) { c.Voice = "HAL" }, "voice"},
		{"missing port", func(c *Config) { c.Port = "" }, "port"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Voice = "HAL"
	if _, err := New(cfg, nil); err == nil {
		t.Error("New() with unknown voice succeeded")
	}
}

func TestStopSessionWithoutSession(t *testing.T) {
	c, err := New(validConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Nothing is running; both must be harmless.
	c.StopSession("test")
	c.StopSession("test")
}

func TestPushMicWithoutSession(t *testing.T) {
	c, err := New(validConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Mic frames arriving with no session are dropped.
	c.pushMic(make([]byte, 8192))
}

// recordingPusher scripts Push acceptance per frame.
type recordingPusher struct {
	accept bool
	calls  int
}

func (p *recordingPusher) Push(data []byte) bool {
	p.calls++
	return p.accept
}

func TestPushMicCountsOnlyAcceptedFrames(t *testing.T) {
	c, err := New(validConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	pusher := &recordingPusher{}
	c.mu.Lock()
	c.pusher = pusher
	c.mu.Unlock()

	before := testutil.ToFloat64(c.metrics.FramesStreamed)

	pusher.accept = false
	c.pushMic(make([]byte, 8192))
	if got := testutil.ToFloat64(c.metrics.FramesStreamed); got != before {
		t.Errorf("dropped frame counted: FramesStreamed = %v, want %v", got, before)
	}

	pusher.accept = true
	c.pushMic(make([]byte, 8192))
	if got := testutil.ToFloat64(c.metrics.FramesStreamed); got != before+1 {
		t.Errorf("FramesStreamed = %v, want %v", got, before+1)
	}

	if pusher.calls != 2 {
		t.Errorf("Push calls = %d, want 2", pusher.calls)
	}
}

func TestStartSessionRejectsUnknownVoice(t *testing.T) {
	c, err := New(validConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.StartSession("HAL"); err == nil {
		t.Error("StartSession with unknown voice succeeded")
	}
}

func TestApplyCommandUpdatesState(t *testing.T) {
	c, err := New(validConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c.applyCommand(command.StatusCheck)

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := c.server.App().Test(req)
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	var state web.ConsoleState
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.LastCommand != string(command.StatusCheck) {
		t.Errorf("last command = %q, want %q", state.LastCommand, command.StatusCheck)
	}
}
