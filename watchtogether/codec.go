package watchtogether

import (
	"fmt"
	"strings"
	"time"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether/rest"
)

// Codec translates between wire frames and typed events.
//
// The wire format is positional UTF-8 text, segments joined by "_".
// Outbound chat is sent bare; the server attaches the timestamp and the
// combined nickname/avatar segment before broadcasting.
type Codec struct {
	now func() time.Time
}

// NewCodec returns a codec using the system clock.
func NewCodec() Codec {
	return Codec{now: time.Now}
}

// EncodeEntry produces the entry announcement frame for actor.
func (c Codec) EncodeEntry(actor rest.Participant) string {
	return entryDiscriminator + frameDelim + actor.Nickname + entrySuffix
}

// EncodeChat produces the outbound chat frame: the text verbatim.
func (c Codec) EncodeChat(text string) string {
	return text
}

// Decode parses one inbound frame.
//
// The first segment selects the variant: "entry" yields an
// EntryNotification, anything else a ChatMessage. Segments beyond the third
// are ignored. Fewer than three segments, or a sender segment without a
// "/", is a malformed frame.
func (c Codec) Decode(frame string) (WireEvent, error) {
	segs := strings.Split(frame, frameDelim)
	if len(segs) < 3 {
		return nil, NewError(ErrorMalformedFrame, fmt.Sprintf("frame has %d segments, want at least 3", len(segs)))
	}
	nick, avatar, ok := splitSender(segs[2])
	if !ok {
		return nil, NewError(ErrorMalformedFrame, "sender segment has no avatar separator")
	}
	if segs[0] == entryDiscriminator {
		return EntryNotification{
			RawText:        segs[1],
			ActorNickname:  nick,
			ActorAvatarRef: avatar,
		}, nil
	}
	return ChatMessage{
		Text:            segs[0],
		SentAt:          segs[1],
		SenderNickname:  nick,
		SenderAvatarRef: avatar,
	}, nil
}

// splitSender splits the combined "nickname/avatarRef" segment on the first
// slash, so avatar refs may themselves contain slashes.
func splitSender(s string) (nick, avatar string, ok bool) {
	i := strings.Index(s, "/")
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// FormatTimestamp renders a wire timestamp for display. Values falling on
// the current calendar day (local time) use the short 12-hour form, e.g.
// "오후 1시 25분"; anything else keeps the 24-hour wire form. Unparseable
// input is returned unchanged.
func (c Codec) FormatTimestamp(raw string) string {
	t, err := time.ParseInLocation(wireTimeLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return raw
	}
	now := c.now()
	if t.Year() != now.Year() || t.YearDay() != now.YearDay() {
		return t.Format(wireTimeLayout)
	}
	meridiem := "오전"
	if t.Hour() >= 12 {
		meridiem = "오후"
	}
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%s %d시 %02d분", meridiem, h, t.Minute())
}

// WireNow formats the current clock in the wire timestamp form. Used for
// the optimistic local append of the sender's own message.
func (c Codec) WireNow() string {
	return c.now().Format(wireTimeLayout)
}
