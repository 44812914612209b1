package command

import "testing"

func TestRoute_RecognizedCommand(t *testing.T) {
	calls := 0
	var got Command
	r := NewRouter(func(cmd Command) {
		calls++
		got = cmd
	}, nil)

	cmd, ok := r.Route(ToolName, map[string]any{"command": "restart"})
	if !ok {
		t.Fatal("Expected command to be routed")
	}
	if cmd != Restart {
		t.Errorf("Expected restart, got %q", cmd)
	}
	if calls != 1 {
		t.Errorf("Handler invoked %d times, want 1", calls)
	}
	if got != Restart {
		t.Errorf("Handler received %q, want restart", got)
	}
}

func TestRoute_UnknownToolIgnored(t *testing.T) {
	calls := 0
	r := NewRouter(func(Command) { calls++ }, nil)

	if _, ok := r.Route("unknownTool", map[string]any{"command": "restart"}); ok {
		t.Error("Unknown tool must not route")
	}
	if calls != 0 {
		t.Errorf("Handler invoked %d times, want 0", calls)
	}
}

func TestRoute_InvalidCommandIgnored(t *testing.T) {
	calls := 0
	r := NewRouter(func(Command) { calls++ }, nil)

	if _, ok := r.Route(ToolName, map[string]any{"command": "invalid"}); ok {
		t.Error("Invalid command must not route")
	}
	if calls != 0 {
		t.Errorf("Handler invoked %d times, want 0", calls)
	}
}

func TestRoute_MalformedArgsIgnored(t *testing.T) {
	calls := 0
	r := NewRouter(func(Command) { calls++ }, nil)

	cases := []map[string]any{
		nil,
		{},
		{"command": 42},
		{"command": nil},
		{"other": "restart"},
	}
	for i, args := range cases {
		if _, ok := r.Route(ToolName, args); ok {
			t.Errorf("Case %d: malformed args must not route", i)
		}
	}
	if calls != 0 {
		t.Errorf("Handler invoked %d times, want 0", calls)
	}
}

func TestRoute_AllLiterals(t *testing.T) {
	for _, want := range []Command{Shutdown, Restart, StatusCheck} {
		r := NewRouter(nil, nil) // nil handler tolerated
		cmd, ok := r.Route(ToolName, map[string]any{"command": string(want)})
		if !ok || cmd != want {
			t.Errorf("Expected %q routed, got %q (ok=%v)", want, cmd, ok)
		}
	}
}

func TestDeclaration_Shape(t *testing.T) {
	decl := Declaration()
	if decl["name"] != ToolName {
		t.Errorf("Declaration name %v, want %s", decl["name"], ToolName)
	}
	params, ok := decl["parameters"].(map[string]any)
	if !ok {
		t.Fatal("Declaration missing parameters object")
	}
	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatal("Declaration missing properties")
	}
	if _, ok := props["command"]; !ok {
		t.Error("Declaration missing command property")
	}
}
