package rpcpool

import "time"

// EventType classifies pool state transitions worth alerting on.
type EventType string

const (
	EventEndpointDown      EventType = "endpoint_down"
	EventEndpointRecovered EventType = "endpoint_recovered"
	EventCircuitReset      EventType = "circuit_reset"
)

// Event is pushed to the registered handler (Telegram alerter in the
// default wiring) whenever endpoint health flips or a circuit resets.
type Event struct {
	Type   EventType `json:"type"`
	Chain  string    `json:"chain"`
	URL    string    `json:"url,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}
