// Holodeck console - a browser voice console for the Gemini Live API.
// The Go process owns the session, playback scheduling, and command
// routing; the browser supplies the microphone and speaker.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/holosonic/go-holodeck/internal/config"
	"github.com/holosonic/go-holodeck/internal/log"
	"github.com/holosonic/go-holodeck/pkg/console"
)

func main() {
	cfg := parseFlags()

	app, err := console.New(cfg, log.L())
	if err != nil {
		log.Error("configuration error", "error", err)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("console stopped", "error", err)
	}
}

// parseFlags builds the console configuration from flags with
// environment fallbacks.
func parseFlags() console.Config {
	port := flag.String("port", config.ConsolePort(), "Console HTTP port")
	model := flag.String("model", config.Model(), "Live model name")
	voice := flag.String("voice", config.Voice(), "Synthesis voice")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	return console.Config{
		APIKey: config.APIKeyRequired(),
		Model:  *model,
		Voice:  *voice,
		Port:   *port,
	}
}
