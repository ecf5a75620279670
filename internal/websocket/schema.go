package websocket

// Actions (client to server).

type Action string

const (
	ActionPing  Action = "ping"
	ActionState Action = "state"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// Events (server to client).

type Event string

const (
	EventError Event = "error"
	EventClock Event = "clock"
	EventPong  Event = "pong"
)

// ClockResponse carries the authoritative session clock. Pushed on every
// tick and on demand via the state action.
type ClockResponse struct {
	Event            Event   `json:"event"`
	SessionID        string  `json:"session_id"`
	Status           string  `json:"status"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Expired          bool    `json:"expired"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
