package watchtogether

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether/rest"
)

type fakeResolver struct {
	p     *rest.Participant
	err   error
	calls int
}

func (f *fakeResolver) ResolveIdentity(ctx context.Context) (*rest.Participant, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.p, nil
}

type fakeConn struct {
	mu        sync.Mutex
	opens     int
	sends     []string
	state     ConnectionState
	frames    chan string
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{state: StateDisconnected, frames: make(chan string, 16)}
}

func (f *fakeConn) Open(ctx context.Context, roomKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.state = StateOpen
	return nil
}

func (f *fakeConn) Send(ctx context.Context, frame string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOpen {
		return NewError(ErrorNotConnected, "connection is not open")
	}
	f.sends = append(f.sends, frame)
	return nil
}

func (f *fakeConn) Frames() <-chan string { return f.frames }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.state = StateClosed
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.frames) })
	return nil
}

func (f *fakeConn) State() ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeConn) OnReconnected(func()) {}

func (f *fakeConn) OnStateChanged(func(StateEvent)) {}

func (f *fakeConn) sentFrames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sends))
	copy(out, f.sends)
	return out
}

func newTestSession(fr *fakeResolver, fc *fakeConn) *Session {
	s := NewSession(DefaultConfig(), nil)
	s.resolver = fr
	s.conn = fc
	return s
}

func participant() *rest.Participant {
	return &rest.Participant{Nickname: "민수", AvatarRef: "profile2"}
}

func TestStartUnauthorizedNeverConnects(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{err: rest.ErrUnauthorized}, fc)

	err := s.Start(context.Background(), "movie-1")
	if !IsAuthRequired(err) {
		t.Fatalf("expected auth_required, got %v", err)
	}
	if fc.opens != 0 {
		t.Fatalf("opens = %d, want 0 connect attempts", fc.opens)
	}
}

func TestStartUnreachableIdentity(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{err: errors.New("dial tcp: refused")}, fc)

	err := s.Start(context.Background(), "movie-1")
	if CodeOf(err) != ErrorUnreachable {
		t.Fatalf("expected unreachable, got %v", err)
	}
	if fc.opens != 0 {
		t.Fatalf("opens = %d, want 0", fc.opens)
	}
}

func TestStartAnnouncesEntry(t *testing.T) {
	fc := newFakeConn()
	fr := &fakeResolver{p: participant()}
	s := newTestSession(fr, fc)

	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Leave()

	sends := fc.sentFrames()
	if len(sends) != 1 || sends[0] != "entry_민수님이 입장하셨습니다." {
		t.Fatalf("unexpected announcement: %q", sends)
	}
	if fr.calls != 1 {
		t.Fatalf("identity resolved %d times, want 1", fr.calls)
	}
}

func TestSendMessageEmptyIsNoop(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)
	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Leave()

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := s.SendMessage(context.Background(), text); err != nil {
			t.Fatalf("SendMessage(%q): %v", text, err)
		}
	}
	if got := len(fc.sentFrames()); got != 1 {
		t.Fatalf("sends = %d, want entry announcement only", got)
	}
	if s.Log().Len() != 0 {
		t.Fatalf("log has %d entries, want 0", s.Log().Len())
	}
}

func TestSendMessageOptimisticAppend(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)
	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Leave()

	if err := s.SendMessage(context.Background(), "  재밌다  "); err != nil {
		t.Fatalf("send: %v", err)
	}

	sends := fc.sentFrames()
	if sends[len(sends)-1] != "재밌다" {
		t.Fatalf("wire frame = %q, want bare trimmed text", sends[len(sends)-1])
	}
	entries := s.Log().Entries()
	if len(entries) != 1 {
		t.Fatalf("log len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Kind != KindMessage || !e.Own || e.Message.Text != "재밌다" {
		t.Fatalf("unexpected optimistic entry: %+v", e)
	}
	if e.Message.SenderNickname != "민수" {
		t.Fatalf("sender = %q", e.Message.SenderNickname)
	}
}

func TestInboundOrderTracksDelivery(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)
	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fc.frames <- "first_2030-01-01 10:00_지은/p1"
	fc.frames <- "second_2020-01-01 09:00_지은/p1"
	fc.frames <- "third_2025-06-06 08:00_지은/p1"
	s.Leave()
	waitDone(t, s)

	entries := s.Log().Entries()
	if len(entries) != 3 {
		t.Fatalf("log len = %d, want 3", len(entries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Message.Text != want {
			t.Fatalf("entry %d = %q, want %q", i, entries[i].Message.Text, want)
		}
		if entries[i].Own {
			t.Fatalf("entry %d flagged own for another sender", i)
		}
	}
}

func TestMalformedFrameDroppedNotAppended(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)

	var decodeErr error
	s.OnError(func(err error) { decodeErr = err })

	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fc.frames <- "justtext"
	fc.frames <- "ok_2025-07-08 13:25_지은/p1"
	s.Leave()
	waitDone(t, s)

	entries := s.Log().Entries()
	if len(entries) != 1 || entries[0].Message.Text != "ok" {
		t.Fatalf("malformed frame corrupted the log: %+v", entries)
	}
	if CodeOf(decodeErr) != ErrorMalformedFrame {
		t.Fatalf("expected malformed frame error callback, got %v", decodeErr)
	}
}

func TestEntryNotificationAppendsPresence(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)

	var joined EntryNotification
	s.OnEntry(func(n EntryNotification) { joined = n })

	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fc.frames <- "entry_지은님이 입장하셨습니다._지은/profile7"
	s.Leave()
	waitDone(t, s)

	entries := s.Log().Entries()
	if len(entries) != 1 || entries[0].Kind != KindPresence {
		t.Fatalf("expected one presence entry: %+v", entries)
	}
	if joined.ActorNickname != "지은" {
		t.Fatalf("entry callback actor = %q", joined.ActorNickname)
	}
}

func TestOwnMessageClassification(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)
	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fc.frames <- "mine_2025-07-08 13:25_민수/profile2"
	fc.frames <- "theirs_2025-07-08 13:26_지은/profile7"
	s.Leave()
	waitDone(t, s)

	entries := s.Log().Entries()
	if len(entries) != 2 {
		t.Fatalf("log len = %d", len(entries))
	}
	if !entries[0].Own || entries[1].Own {
		t.Fatalf("own classification wrong: %+v", entries)
	}
}

func TestLeaveStopsSends(t *testing.T) {
	fc := newFakeConn()
	s := newTestSession(&fakeResolver{p: participant()}, fc)
	if err := s.Start(context.Background(), "movie-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := s.Leave(); err != nil {
		t.Fatalf("second leave: %v", err)
	}

	err := s.SendMessage(context.Background(), "too late")
	if CodeOf(err) != ErrorNotConnected {
		t.Fatalf("expected not_connected after leave, got %v", err)
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("event loop did not finish")
	}
}
