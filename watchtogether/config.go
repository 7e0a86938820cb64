package watchtogether

import "time"

// Config controls how the SDK connects to the watch-together backend.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://localhost:8080/OpusCine/watchTogether".
	// The room key is appended as a query parameter on Open.
	URL string

	// RESTBaseURL is the base URL of the site API used for identity
	// resolution, e.g. "http://localhost:8080/OpusCine".
	RESTBaseURL string

	// StaticRoot is the base URL for static assets; avatar images resolve
	// to <StaticRoot>/profiles/<avatarRef>.jpg.
	StaticRoot string

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// AutoReconnect enables bounded retry with backoff after an unexpected
	// closure. A user-initiated Close never reconnects.
	AutoReconnect     bool
	ReconnectInterval time.Duration
	MaxReconnectDelay time.Duration
	MaxReconnectTries int

	// PresenceTTL is how long an entry notification stays on the render
	// surface before it is removed. The log itself retains the entry.
	PresenceTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		AutoReconnect:     true,
		ReconnectInterval: 2 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		MaxReconnectTries: 5,
		PresenceTTL:       3 * time.Second,
	}
}
