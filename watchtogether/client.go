package watchtogether

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether/internal"

	"github.com/coder/websocket"
)

// Client owns the persistent room connection: dialing, the connection state
// machine, guarded sends and the inbound frame stream.
//
// A client serves one room connection. Once it reaches StateClosed it stays
// there; construct a new client to open again.
type Client struct {
	cfg    Config
	logger Logger

	frames  chan string
	writeCh chan string

	mu         sync.Mutex
	state      ConnectionState
	conn       *internal.Conn
	roomURL    string
	cancel     context.CancelFunc
	userClosed bool

	onState       func(StateEvent)
	onReconnected func()
}

// NewClient constructs a room connection client with the provided config.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		logger:  noopLogger{},
		state:   StateDisconnected,
		frames:  make(chan string, 32),
		writeCh: make(chan string, 16),
	}
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// OnStateChanged registers a callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.onState = fn }

// OnReconnected registers a callback fired after an automatic reconnect
// restores the connection. The session uses it to re-announce entry.
func (c *Client) OnReconnected(fn func()) { c.onReconnected = fn }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Frames returns the inbound frame stream. Exactly one stream per client;
// frames preserve transport arrival order. The channel closes when the
// connection reaches Closed.
func (c *Client) Frames() <-chan string { return c.frames }

// Open establishes the persistent connection to the room-scoped endpoint
// derived from roomKey and starts the internal loops.
func (c *Client) Open(ctx context.Context, roomKey string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return NewError(ErrorConnectFailed, "open on a used client")
	}
	c.mu.Unlock()

	if c.cfg.URL == "" {
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	target, err := roomEndpoint(c.cfg.URL, roomKey)
	if err != nil {
		return WrapError(ErrorInvalidConfig, "bad endpoint URL", err)
	}
	c.mu.Lock()
	c.roomURL = target
	c.mu.Unlock()
	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx, target)
	if err != nil {
		c.setState(StateClosed, err)
		close(c.frames)
		return WrapError(ErrorConnectFailed, "handshake failed", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()
	c.setState(StateOpen, nil)

	go c.run(runCtx)
	go c.writeLoop(runCtx)
	return nil
}

// Send writes one frame. The connection must be Open; any other state
// returns ErrorNotConnected rather than racing the handshake or dropping
// the frame silently.
func (c *Client) Send(ctx context.Context, frame string) error {
	c.mu.Lock()
	open := c.state == StateOpen
	c.mu.Unlock()
	if !open {
		return NewError(ErrorNotConnected, "connection is not open")
	}
	select {
	case c.writeCh <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close initiates graceful shutdown. Idempotent: repeat calls are no-ops
// and the connection stays Closed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosing || c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	old := c.state
	c.state = StateClosing
	c.userClosed = true
	conn := c.conn
	cancel := c.cancel
	c.mu.Unlock()
	c.fireState(old, StateClosing, nil)

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		err = conn.Close(websocket.StatusNormalClosure, "client close")
	}
	c.setState(StateClosed, nil)
	if conn == nil {
		// never opened, so no run loop owns the frame channel
		close(c.frames)
	}
	return err
}

func (c *Client) dial(ctx context.Context, target string) (*internal.Conn, error) {
	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(dialCtx, target, nil)
	if err != nil {
		return nil, err
	}
	return internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout), nil
}

// run supervises the read side: it pumps frames until the connection drops,
// then either stops (user close) or drives the reconnect policy.
func (c *Client) run(ctx context.Context) {
	defer close(c.frames)
	for {
		err := c.readPump(ctx)
		if c.userInitiated(ctx) {
			return
		}
		if !c.cfg.AutoReconnect {
			c.setState(StateClosed, err)
			return
		}
		if rerr := c.reconnect(ctx, err); rerr != nil {
			if c.userInitiated(ctx) {
				return
			}
			c.setState(StateClosed, rerr)
			return
		}
		if c.onReconnected != nil {
			c.onReconnected()
		}
	}
}

func (c *Client) readPump(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	for {
		frame, err := conn.ReadText(ctx)
		if err != nil {
			return err
		}
		select {
		case c.frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// userInitiated reports whether the connection is going away because the
// user closed it, as opposed to a transport failure.
func (c *Client) userInitiated(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userClosed
}

// reconnect retries the handshake with exponential backoff, at most
// MaxReconnectTries attempts.
func (c *Client) reconnect(ctx context.Context, cause error) error {
	c.setState(StateReconnecting, cause)
	c.mu.Lock()
	target := c.roomURL
	c.mu.Unlock()

	tries := c.cfg.MaxReconnectTries
	if tries <= 0 {
		tries = 1
	}
	for attempt := 1; attempt <= tries; attempt++ {
		delay := c.backoffDelay(attempt)
		c.logger.Info("reconnecting", map[string]any{"attempt": attempt, "delay": delay.String()})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		conn, err := c.dial(ctx, target)
		if err != nil {
			c.logger.Warn("reconnect attempt failed", map[string]any{"attempt": attempt, "error": err.Error()})
			continue
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(StateOpen, nil)
		return nil
	}
	return NewError(ErrorConnectFailed, "reconnect attempts exhausted")
}

// backoffDelay doubles the base interval per attempt, capped at the
// configured maximum.
func (c *Client) backoffDelay(attempt int) time.Duration {
	d := c.cfg.ReconnectInterval * time.Duration(1<<uint(attempt-1))
	if c.cfg.MaxReconnectDelay > 0 && d > c.cfg.MaxReconnectDelay {
		d = c.cfg.MaxReconnectDelay
	}
	return d
}

func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case frame := <-c.writeCh:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteText(ctx, frame); err != nil {
				c.logger.Warn("write failed", map[string]any{"error": err.Error()})
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) setState(s ConnectionState, err error) {
	c.mu.Lock()
	old := c.state
	if old == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.fireState(old, s, err)
}

func (c *Client) fireState(old, next ConnectionState, err error) {
	if c.onState != nil {
		c.onState(StateEvent{OldState: old, NewState: next, Error: err})
	}
}

// roomEndpoint derives the per-room connection target from the configured
// endpoint and the room key.
func roomEndpoint(base, roomKey string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("room", roomKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
