// Package hub provides a channel-based websocket fan-out used for the
// console's outbound streams: PCM audio goes out as binary frames,
// amplitude readings and status events as JSON.
package hub

// MessageType indicates the websocket message format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded event (amplitude, status, log lines).
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (PCM audio chunks).
	BinaryMessage
)

// Message is one unit to broadcast to every connected client.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps raw binary data.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
