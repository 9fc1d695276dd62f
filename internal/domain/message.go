package domain

import "time"

// MessageKind classifies a parsed message by its attachment.
type MessageKind string

const (
	TextMessage  MessageKind = "text"
	AudioMessage MessageKind = "audio"
	ImageMessage MessageKind = "image"
	VideoMessage MessageKind = "video"
	FileMessage  MessageKind = "file"

	// AudioTranscriptMessage only appears in organized output, for audio
	// messages whose transcript was merged into the content.
	AudioTranscriptMessage MessageKind = "audio_transcript"
)

// HasAttachment reports whether the kind refers to an attached file.
func (k MessageKind) HasAttachment() bool {
	switch k {
	case AudioMessage, ImageMessage, VideoMessage, FileMessage, AudioTranscriptMessage:
		return true
	}
	return false
}

// MessageRecord is one message of a parsed transcript.
//
// Timestamp is the exporter's text, kept verbatim. Sender and Content have
// no-break spaces folded to plain spaces. AttachmentFilename is set if and
// only if Kind is not TextMessage.
type MessageRecord struct {
	Timestamp          string      `json:"timestamp" yaml:"timestamp"`
	Sender             string      `json:"sender" yaml:"sender"`
	Content            string      `json:"content" yaml:"content"`
	Kind               MessageKind `json:"kind" yaml:"kind"`
	AttachmentFilename string      `json:"attachmentFilename,omitempty" yaml:"attachmentFilename,omitempty"`
}

// DisplayRecord is a message after organization: audio content may be
// replaced by its transcript.
type DisplayRecord struct {
	Timestamp     string      `json:"timestamp" yaml:"timestamp"`
	Sender        string      `json:"sender" yaml:"sender"`
	Content       string      `json:"content" yaml:"content"`
	Kind          MessageKind `json:"kind" yaml:"kind"`
	OriginalFile  string      `json:"originalFile,omitempty" yaml:"originalFile,omitempty"`
	Transcription string      `json:"transcription,omitempty" yaml:"transcription,omitempty"`
}

// TimestampParser turns a record timestamp into an instant.
type TimestampParser func(string) (time.Time, error)
