package live

import (
	"errors"
	"fmt"
)

// BidiURL is the Gemini Live API websocket endpoint.
const BidiURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// DefaultModel is the live model used when none is configured.
const DefaultModel = "models/gemini-2.5-flash-native-audio-preview-09-2025"

// Voices is the fixed set of synthesis voices the session accepts.
var Voices = []string{"Puck", "Charon", "Kore", "Fenrir", "Aoede", "Leda", "Orus", "Zephyr"}

// Config holds the parameters for one live session.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the live model name, e.g. "models/gemini-2.5-flash-native-audio-preview-09-2025".
	Model string

	// Voice selects the synthesis voice. Must be one of Voices.
	Voice string

	// Instruction is the persona/behavior system instruction.
	Instruction string

	// Endpoint overrides the websocket URL. Used by tests; empty selects
	// BidiURL.
	Endpoint string
}

// DefaultConfig returns a Config with the default model and voice.
func DefaultConfig() Config {
	return Config{
		Model: DefaultModel,
		Voice: "Orus",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" && c.Endpoint == "" {
		return errors.New("live: API key required")
	}
	if c.Model == "" {
		return errors.New("live: model required")
	}
	if !ValidVoice(c.Voice) {
		return fmt.Errorf("live: unknown voice %q", c.Voice)
	}
	return nil
}

// ValidVoice reports whether name is in the voice catalog.
func ValidVoice(name string) bool {
	for _, v := range Voices {
		if v == name {
			return true
		}
	}
	return false
}
