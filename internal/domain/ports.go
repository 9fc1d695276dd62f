package domain

import (
	"context"
	"io"
)

// ArchiveExtractor unpacks a WhatsApp export.
type ArchiveExtractor interface {
	Extract(exportPath string) (*Archive, error)
}

// ChatParser turns a raw transcript into ordered records.
type ChatParser interface {
	Parse(rawText string) []MessageRecord
}

// Transcriber transcribes an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Organizer turns parsed records plus transcripts into display records.
type Organizer interface {
	Organize(ctx context.Context, records []MessageRecord, transcripts map[string]string) (*Conversation, error)
}

// ChatRenderer renders a conversation to an output writer.
type ChatRenderer interface {
	Render(w io.Writer, conv *Conversation) error
}
