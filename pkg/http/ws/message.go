package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeRefresh = "refresh"

	// Server -> Client
	TypeListState    = "list_state"
	TypeStatusUpdate = "status_update"
	TypeError        = "error"

	// Both directions
	TypePing = "ping"
	TypePong = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a message of the given type.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Server Messages (outgoing)

type ListStatePayload struct {
	Slug      string      `json:"slug"`
	Loading   bool        `json:"loading"`
	Status    string      `json:"status"`
	Questions interface{} `json:"questions"`
}

type StatusUpdatePayload struct {
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
