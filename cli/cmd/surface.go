package cmd

import (
	"fmt"
	"io"

	"github.com/opuscine/watchtogether-sdk-go/watchtogether"
)

// consoleSurface renders the chat log as plain lines. A terminal cannot
// unrender, so RemoveNotice and ScrollToLatest are no-ops.
type consoleSurface struct {
	out io.Writer
}

func (s consoleSurface) ShowMessage(e watchtogether.LogEntry) {
	marker := ""
	if e.Own {
		marker = " (you)"
	}
	fmt.Fprintf(s.out, "[%s] %s%s: %s\n", e.DisplayTime, e.Message.SenderNickname, marker, e.Message.Text)
}

func (s consoleSurface) ShowNotice(e watchtogether.LogEntry) {
	fmt.Fprintf(s.out, ">>> %s\n", e.Notice.RawText)
}

func (s consoleSurface) RemoveNotice(string) {}

func (s consoleSurface) ScrollToLatest() {}
