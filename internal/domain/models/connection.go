package models

// ConnectionState is the per-symbol stream state.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateFailed       ConnectionState = "failed"
	StateError        ConnectionState = "error"
)

// StreamStatus describes one tracked subscription.
type StreamStatus struct {
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	State    ConnectionState `json:"state"`
	Attempts int             `json:"attempts"`
}
