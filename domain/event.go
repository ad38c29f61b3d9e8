package domain

// EventType tags one frame of the client-facing push stream.
type EventType string

const (
	EventThinking  EventType = "thinking"
	EventToken     EventType = "token"
	EventHeartbeat EventType = "heartbeat"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// StreamEvent is one frame delivered to the client. Token events carry an
// incremental fragment in Content; Done carries the source and latency.
type StreamEvent struct {
	Type           EventType `json:"-"`
	Message        string    `json:"message,omitempty"`
	Content        string    `json:"content,omitempty"`
	Status         string    `json:"status,omitempty"`
	Source         string    `json:"source,omitempty"`
	Intent         string    `json:"intent,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms,omitempty"`
	Partial        bool      `json:"partial,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Thinking is the immediate acknowledgement frame sent before any blocking work.
func Thinking() StreamEvent {
	return StreamEvent{Type: EventThinking, Message: "Processing your request..."}
}

// Token wraps one incremental text fragment.
func Token(content string) StreamEvent {
	return StreamEvent{Type: EventToken, Content: content}
}

// Heartbeat keeps intermediaries from timing out long remote relays.
func Heartbeat() StreamEvent {
	return StreamEvent{Type: EventHeartbeat, Status: "alive"}
}
