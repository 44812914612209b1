package live

import (
	"github.com/holosonic/go-holodeck/pkg/pcm"
)

// Wire types for the Gemini Live BidiGenerateContent websocket protocol.
// Client messages use one top-level key per kind; server messages arrive
// as a union and are dispatched on whichever field is present.

// setupMessage configures the session after the socket opens.
type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model             string             `json:"model"`
	GenerationConfig  generationConfig   `json:"generation_config"`
	SystemInstruction *systemInstruction `json:"system_instruction,omitempty"`
	Tools             []toolDeclarations `json:"tools,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"response_modalities"`
	SpeechConfig       speechConfig `json:"speech_config"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voice_config"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuilt_voice_config"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voice_name"`
}

type systemInstruction struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type toolDeclarations struct {
	FunctionDeclarations []map[string]any `json:"function_declarations"`
}

// realtimeInputMessage carries one encoded microphone frame upstream.
type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtime_input"`
}

type realtimeInput struct {
	MediaChunks []pcm.Blob `json:"media_chunks"`
}

// toolResponseMessage returns a batch of function-call acknowledgments.
type toolResponseMessage struct {
	ToolResponse toolResponse `json:"tool_response"`
}

type toolResponse struct {
	FunctionResponses []FunctionResponse `json:"function_responses"`
}

// FunctionResponse is a synthetic acknowledgment for one tool call.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ServerMessage is the inbound union. Exactly one of the pointer fields
// is normally set; a serverContent message may carry tool calls, an
// interruption flag, and audio parts in any combination.
type ServerMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	ToolCall      *ToolCall      `json:"toolCall,omitempty"`
}

// ServerContent is a slice of the model's turn.
type ServerContent struct {
	Interrupted  bool       `json:"interrupted,omitempty"`
	TurnComplete bool       `json:"turnComplete,omitempty"`
	ModelTurn    *ModelTurn `json:"modelTurn,omitempty"`
}

// ModelTurn holds the content parts of the model's response.
type ModelTurn struct {
	Parts []Part `json:"parts"`
}

// Part is one content part: text, inlined audio, or neither.
type Part struct {
	Text       string    `json:"text,omitempty"`
	InlineData *pcm.Blob `json:"inlineData,omitempty"`
}

// ToolCall carries one or more function-call requests.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// FunctionCall is a single remote-issued request.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}
