package watchtogether

// ConnectionState represents the current state of the room connection.
type ConnectionState int

const (
	// StateDisconnected means no connection has been opened yet.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the handshake is in progress.
	StateConnecting

	// StateOpen means the connection is established and ready to send.
	StateOpen

	// StateClosing is the transient sub-state during Close.
	StateClosing

	// StateReconnecting means the client lost the connection unexpectedly
	// and is retrying with backoff.
	StateReconnecting

	// StateClosed is terminal. A fresh client must be constructed to open
	// a new connection.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // optional error that caused the change
}
