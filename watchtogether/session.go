package watchtogether

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether/rest"
)

// identityResolver is the slice of the REST client the session needs.
type identityResolver interface {
	ResolveIdentity(ctx context.Context) (*rest.Participant, error)
}

// roomConn is the slice of the room connection the session needs.
type roomConn interface {
	Open(ctx context.Context, roomKey string) error
	Send(ctx context.Context, frame string) error
	Frames() <-chan string
	Close() error
	State() ConnectionState
	OnReconnected(fn func())
	OnStateChanged(fn func(StateEvent))
}

// Session is the lifecycle controller for one watch-together room: it
// resolves identity, opens the room connection, announces entry, relays
// user sends and feeds inbound frames into the chat log.
type Session struct {
	cfg    Config
	codec  Codec
	logger Logger

	resolver   identityResolver
	conn       roomConn
	log        *ChatLog
	dispatcher Dispatcher

	mu          sync.Mutex
	participant *rest.Participant
	started     bool
	left        bool

	done chan struct{}
}

// NewSession constructs a session. surface may be nil for headless use;
// events are still observable through the On* callbacks.
func NewSession(cfg Config, surface RenderSurface) *Session {
	return &Session{
		cfg:      cfg,
		codec:    NewCodec(),
		logger:   noopLogger{},
		resolver: rest.NewClient(cfg.RESTBaseURL),
		conn:     NewClient(cfg),
		log:      NewChatLog(surface, cfg.PresenceTTL),
		done:     make(chan struct{}),
	}
}

// SetLogger overrides logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.logger = l
	if c, ok := s.conn.(*Client); ok {
		c.SetLogger(l)
	}
}

// OnMessage registers a callback for inbound chat messages.
func (s *Session) OnMessage(fn func(ChatMessage)) { s.dispatcher.SetOnMessage(fn) }

// OnEntry registers a callback for entry notifications.
func (s *Session) OnEntry(fn func(EntryNotification)) { s.dispatcher.SetOnEntry(fn) }

// OnError registers a callback for per-frame and send errors.
func (s *Session) OnError(fn func(error)) { s.dispatcher.SetOnError(fn) }

// OnStateChanged registers a callback for connection state transitions.
func (s *Session) OnStateChanged(fn func(StateEvent)) { s.conn.OnStateChanged(fn) }

// Participant returns the cached identity, or nil before Start succeeds.
func (s *Session) Participant() *rest.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participant
}

// Log returns the session's chat log.
func (s *Session) Log() *ChatLog { return s.log }

// State returns the room connection state.
func (s *Session) State() ConnectionState { return s.conn.State() }

// Done is closed when the inbound event loop ends, i.e. the connection is
// gone for good.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start resolves identity, opens the room connection keyed by roomKey,
// announces entry and begins consuming inbound frames.
//
// An unauthorized identity response aborts with ErrorAuthRequired before
// any connection attempt is made.
func (s *Session) Start(ctx context.Context, roomKey string) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return NewError(ErrorInvalidConfig, "session already started")
	}
	s.started = true
	s.mu.Unlock()

	p, err := s.resolveParticipant(ctx)
	if err != nil {
		return err
	}

	entry := s.codec.EncodeEntry(*p)
	s.conn.OnReconnected(func() {
		if err := s.conn.Send(context.Background(), entry); err != nil {
			s.dispatcher.fireError(err)
		}
	})

	if err := s.conn.Open(ctx, roomKey); err != nil {
		return err
	}
	if err := s.conn.Send(ctx, entry); err != nil {
		return err
	}

	go s.readEvents()
	return nil
}

func (s *Session) resolveParticipant(ctx context.Context) (*rest.Participant, error) {
	s.mu.Lock()
	if p := s.participant; p != nil {
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	p, err := s.resolver.ResolveIdentity(ctx)
	if err != nil {
		if errors.Is(err, rest.ErrUnauthorized) {
			return nil, WrapError(ErrorAuthRequired, "login required for watch-together", err)
		}
		return nil, WrapError(ErrorUnreachable, "identity endpoint unreachable", err)
	}
	s.mu.Lock()
	s.participant = p
	s.mu.Unlock()
	return p, nil
}

// readEvents is the straight-line inbound loop: decode, append, dispatch.
// A malformed frame is logged and dropped; it never reaches the log and
// never stops the loop.
func (s *Session) readEvents() {
	defer close(s.done)
	for frame := range s.conn.Frames() {
		ev, err := s.codec.Decode(frame)
		if err != nil {
			s.logger.Warn("dropping malformed frame", map[string]any{"frame": frame, "error": err.Error()})
			s.dispatcher.fireError(err)
			continue
		}
		switch ev := ev.(type) {
		case EntryNotification:
			s.log.AppendNotice(ev)
		case ChatMessage:
			s.log.AppendMessage(ev, s.codec.FormatTimestamp(ev.SentAt), s.isOwn(ev.SenderNickname))
		}
		s.dispatcher.Dispatch(ev)
	}
}

func (s *Session) isOwn(nickname string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participant != nil && s.participant.Nickname == nickname
}

// SendMessage relays a user chat message. Input that is empty after
// trimming is a no-op with zero sends. The sender's own message is appended
// optimistically; the server does not echo chat back to its origin.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	s.mu.Lock()
	p := s.participant
	left := s.left
	s.mu.Unlock()
	if left {
		return NewError(ErrorNotConnected, "session left the room")
	}
	if p == nil {
		return NewError(ErrorNotConnected, "session not started")
	}
	if err := s.conn.Send(ctx, s.codec.EncodeChat(trimmed)); err != nil {
		return err
	}
	msg := ChatMessage{
		Text:            trimmed,
		SentAt:          s.codec.WireNow(),
		SenderNickname:  p.Nickname,
		SenderAvatarRef: p.AvatarRef,
	}
	s.log.AppendMessage(msg, s.codec.FormatTimestamp(msg.SentAt), true)
	return nil
}

// SendEmoji relays an emoji reaction; on the wire it is a plain chat frame.
func (s *Session) SendEmoji(ctx context.Context, emoji string) error {
	return s.SendMessage(ctx, emoji)
}

// Leave closes the room connection. Idempotent. No sends are accepted
// afterwards.
func (s *Session) Leave() error {
	s.mu.Lock()
	s.left = true
	s.mu.Unlock()
	return s.conn.Close()
}
