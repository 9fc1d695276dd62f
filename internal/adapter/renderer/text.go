// Package renderer writes organized conversations.
package renderer

import (
	"fmt"
	"io"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// TextRenderer renders a conversation as plain text or markdown.
type TextRenderer struct {
	Markdown bool
}

func (r *TextRenderer) Render(w io.Writer, conv *domain.Conversation) error {
	for _, line := range r.header(conv) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for i := range conv.Messages {
		line := r.formatMessage(&conv.Messages[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) header(conv *domain.Conversation) []string {
	var notes []string
	if conv.Summary != "" {
		notes = append(notes, conv.Summary)
	}
	if conv.Diagnostic != "" {
		notes = append(notes, "fallback: "+conv.Diagnostic)
	}

	lines := make([]string, 0, len(notes)+1)
	for _, n := range notes {
		if r.Markdown {
			lines = append(lines, fmt.Sprintf("*%s*", n))
		} else {
			lines = append(lines, "*** "+n)
		}
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	return lines
}

func (r *TextRenderer) formatMessage(msg *domain.DisplayRecord) string {
	sender := msg.Sender
	if r.Markdown {
		sender = "**" + sender + "**"
	}

	switch msg.Kind {
	case domain.AudioTranscriptMessage:
		return fmt.Sprintf("[%s] %s: [Voice message] %s", msg.Timestamp, sender, msg.Content)

	case domain.AudioMessage:
		content := msg.Content
		if content == "" {
			content = msg.OriginalFile
		}
		return fmt.Sprintf("[%s] %s: [Voice message] %s (%s)", msg.Timestamp, sender, content, msg.OriginalFile)

	case domain.ImageMessage:
		return fmt.Sprintf("[%s] %s: [Image] %s", msg.Timestamp, sender, msg.OriginalFile)

	case domain.VideoMessage:
		return fmt.Sprintf("[%s] %s: [Video] %s", msg.Timestamp, sender, msg.OriginalFile)

	case domain.FileMessage:
		return fmt.Sprintf("[%s] %s: [File] %s", msg.Timestamp, sender, msg.OriginalFile)

	default:
		return fmt.Sprintf("[%s] %s: %s", msg.Timestamp, sender, msg.Content)
	}
}
