package watchtogether

const (
	// frameDelim separates the positional segments of a wire frame.
	frameDelim = "_"

	// entryDiscriminator is the leading segment of an entry notification.
	entryDiscriminator = "entry"

	// entrySuffix is the join sentence appended to the nickname in an
	// entry announcement.
	entrySuffix = "님이 입장하셨습니다."

	// wireTimeLayout is the timestamp form the server attaches to chat
	// broadcasts.
	wireTimeLayout = "2006-01-02 15:04"
)

// WireEvent is a decoded inbound frame. The concrete type is the
// discriminant: EntryNotification or ChatMessage.
type WireEvent interface {
	isWireEvent()
}

// EntryNotification announces that a participant joined the room.
type EntryNotification struct {
	RawText        string // human-readable join sentence
	ActorNickname  string
	ActorAvatarRef string
}

// ChatMessage is a chat or emoji message broadcast by the server.
type ChatMessage struct {
	Text            string
	SentAt          string // wire form "YYYY-MM-DD HH:mm"
	SenderNickname  string
	SenderAvatarRef string
}

func (EntryNotification) isWireEvent() {}
func (ChatMessage) isWireEvent()       {}
