// Package command bridges remote-issued function calls into local system
// commands.
package command

import (
	"log/slog"
)

// ToolName is the single tool declared to the remote model.
const ToolName = "executeSystemCommand"

// Command is a recognized system command.
type Command string

// The closed set of system commands the console understands.
const (
	Shutdown    Command = "shutdown"
	Restart     Command = "restart"
	StatusCheck Command = "status_check"
)

// Valid reports whether c is one of the recognized literals.
func (c Command) Valid() bool {
	switch c {
	case Shutdown, Restart, StatusCheck:
		return true
	}
	return false
}

// Handler executes the effect of a routed command. The router never runs
// the effect itself; that belongs to the application.
type Handler func(cmd Command)

// Router maps remote tool-call requests onto system commands.
type Router struct {
	handler Handler
	logger  *slog.Logger
}

// NewRouter creates a router that delivers recognized commands to handler.
func NewRouter(handler Handler, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// Route inspects one tool-call request. If name is the declared tool and
// args carries a recognized command literal, the handler is invoked
// exactly once and the command is returned. Anything else is ignored
// without error: the remote may call tools outside this console's surface.
func (r *Router) Route(name string, args map[string]any) (Command, bool) {
	if name != ToolName {
		r.logger.Debug("ignoring unrecognized tool call", "name", name)
		return "", false
	}

	raw, _ := args["command"].(string)
	cmd := Command(raw)
	if !cmd.Valid() {
		r.logger.Debug("ignoring malformed command argument", "command", raw)
		return "", false
	}

	r.logger.Info("system command routed", "command", cmd)
	if r.handler != nil {
		r.handler(cmd)
	}
	return cmd, true
}

// Declaration returns the function declaration advertised in the live
// session setup message.
func Declaration() map[string]any {
	return map[string]any{
		"name":        ToolName,
		"description": "Executes a system command on the console. Use shutdown to power down, restart to reboot the display, status_check to run diagnostics.",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type": "string",
					"enum": []string{string(Shutdown), string(Restart), string(StatusCheck)},
				},
			},
			"required": []string{"command"},
		},
	}
}
