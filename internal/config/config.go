// Package config provides configuration helpers for go-holodeck commands.
package config

import (
	"fmt"
	"os"
)

// Defaults for the console server and live session.
const (
	DefaultConsolePort = "8080"
	DefaultModel       = "models/gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice       = "Orus"
	DefaultLogLevel    = "info"
)

// APIKeyRequired returns the Gemini API key from GEMINI_API_KEY.
// Exits with a usage message if not set.
func APIKeyRequired() string {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: GEMINI_API_KEY=... go run ./cmd/holodeck")
		os.Exit(1)
	}
	return key
}

// ConsolePort returns the console HTTP port from CONSOLE_PORT or the default.
func ConsolePort() string {
	if port := os.Getenv("CONSOLE_PORT"); port != "" {
		return port
	}
	return DefaultConsolePort
}

// Model returns the live model name from HOLODECK_MODEL or the default.
func Model() string {
	if model := os.Getenv("HOLODECK_MODEL"); model != "" {
		return model
	}
	return DefaultModel
}

// Voice returns the synthesis voice from HOLODECK_VOICE or the default.
func Voice() string {
	if voice := os.Getenv("HOLODECK_VOICE"); voice != "" {
		return voice
	}
	return DefaultVoice
}

// LogLevel returns the log level from LOG_LEVEL or the default.
func LogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return DefaultLogLevel
}
