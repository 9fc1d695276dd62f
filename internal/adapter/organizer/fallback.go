// Package organizer turns parsed records and transcripts into a
// display-ready conversation.
package organizer

import (
	"context"
	"fmt"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// UntranscribedAudio is the content of an audio message with no transcript.
const UntranscribedAudio = "[untranscribed audio]"

// EmptySummary is the summary of a conversation with no messages.
const EmptySummary = "no messages to organize"

// Merge folds transcripts into the records without reordering them.
func Merge(records []domain.MessageRecord, transcripts map[string]string) []domain.DisplayRecord {
	out := make([]domain.DisplayRecord, 0, len(records))
	for _, rec := range records {
		d := domain.DisplayRecord{
			Timestamp: rec.Timestamp,
			Sender:    rec.Sender,
			Content:   rec.Content,
			Kind:      rec.Kind,
		}
		if rec.Kind.HasAttachment() {
			d.OriginalFile = rec.AttachmentFilename
		}
		if rec.Kind == domain.AudioMessage {
			if text, ok := transcripts[rec.AttachmentFilename]; ok && text != "" {
				d.Kind = domain.AudioTranscriptMessage
				d.Content = text
				d.Transcription = text
			} else {
				d.Content = UntranscribedAudio
				d.Transcription = UntranscribedAudio
			}
		}
		out = append(out, d)
	}
	return out
}

// Fallback organizes locally, without a model.
type Fallback struct{}

func (Fallback) Organize(_ context.Context, records []domain.MessageRecord, transcripts map[string]string) (*domain.Conversation, error) {
	if len(records) == 0 {
		return &domain.Conversation{
			Messages: []domain.DisplayRecord{},
			Summary:  EmptySummary,
			Fallback: true,
		}, nil
	}

	return &domain.Conversation{
		Messages: Merge(records, transcripts),
		Summary:  fmt.Sprintf("organized without AI: %d messages, %d transcripts", len(records), len(transcripts)),
		Fallback: true,
	}, nil
}
