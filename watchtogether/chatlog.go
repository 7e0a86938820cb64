package watchtogether

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogEntryKind discriminates chat log entries.
type LogEntryKind int

const (
	// KindMessage is a chat (or emoji) message.
	KindMessage LogEntryKind = iota
	// KindPresence is a transient entry notification.
	KindPresence
)

// LogEntry is one element of the ordered chat log. Entries are immutable
// after insertion and are never evicted for the session lifetime.
type LogEntry struct {
	ID          string
	Kind        LogEntryKind
	RenderedAt  time.Time
	DisplayTime string // formatted timestamp, messages only
	Own         bool   // sender is the local participant; presentation only
	Message     ChatMessage
	Notice      EntryNotification
}

// RenderSurface is the collaborator that displays the log. The SDK drives
// it; it never feeds back into the log.
type RenderSurface interface {
	ShowMessage(LogEntry)
	ShowNotice(LogEntry)
	// RemoveNotice retracts a previously shown notice once its display
	// window elapses.
	RemoveNotice(id string)
	ScrollToLatest()
}

// NoopSurface discards all rendering, for headless consumers that read the
// log through callbacks instead.
type NoopSurface struct{}

func (NoopSurface) ShowMessage(LogEntry) {}
func (NoopSurface) ShowNotice(LogEntry)  {}
func (NoopSurface) RemoveNotice(string)  {}
func (NoopSurface) ScrollToLatest()      {}

// ChatLog is the append-only view model of chat history plus presence
// notifications. Appends follow transport arrival order.
type ChatLog struct {
	mu      sync.Mutex
	entries []LogEntry

	surface     RenderSurface
	presenceTTL time.Duration
	schedule    func(time.Duration, func())
}

func NewChatLog(surface RenderSurface, presenceTTL time.Duration) *ChatLog {
	if surface == nil {
		surface = NoopSurface{}
	}
	return &ChatLog{
		surface:     surface,
		presenceTTL: presenceTTL,
		schedule:    func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// AppendMessage inserts a chat message at the tail, renders it and scrolls
// the surface to the newest entry.
func (l *ChatLog) AppendMessage(msg ChatMessage, displayTime string, own bool) LogEntry {
	e := LogEntry{
		ID:          uuid.NewString(),
		Kind:        KindMessage,
		RenderedAt:  time.Now(),
		DisplayTime: displayTime,
		Own:         own,
		Message:     msg,
	}
	l.append(e)
	l.surface.ShowMessage(e)
	l.surface.ScrollToLatest()
	return e
}

// AppendNotice inserts a presence notification. The rendered notice is
// removed from the surface after the display window; the log keeps the
// entry.
func (l *ChatLog) AppendNotice(n EntryNotification) LogEntry {
	e := LogEntry{
		ID:         uuid.NewString(),
		Kind:       KindPresence,
		RenderedAt: time.Now(),
		Notice:     n,
	}
	l.append(e)
	l.surface.ShowNotice(e)
	if l.presenceTTL > 0 {
		id := e.ID
		l.schedule(l.presenceTTL, func() { l.surface.RemoveNotice(id) })
	}
	return e
}

func (l *ChatLog) append(e LogEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of the log in arrival order.
func (l *ChatLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ChatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
