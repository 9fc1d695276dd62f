package domain

import (
	"os"
	"time"
)

// Chat is the parsed form of one exported conversation.
type Chat struct {
	Messages []MessageRecord
	Manifest []string
}

// Filter returns a new Chat containing only messages within the given time range.
// nil values for from/to mean no lower/upper bound. Messages whose timestamp
// cannot be parsed are kept. The manifest is rebuilt by the caller.
func (c *Chat) Filter(from, to *time.Time, parse TimestampParser) *Chat {
	filtered := &Chat{}
	for _, msg := range c.Messages {
		ts, err := parse(msg.Timestamp)
		if err != nil {
			filtered.Messages = append(filtered.Messages, msg)
			continue
		}
		if from != nil && ts.Before(*from) {
			continue
		}
		if to != nil && ts.After(*to) {
			continue
		}
		filtered.Messages = append(filtered.Messages, msg)
	}
	return filtered
}

// KindOf returns the kind of the first message referencing filename.
func (c *Chat) KindOf(filename string) (MessageKind, bool) {
	for _, msg := range c.Messages {
		if msg.AttachmentFilename == filename {
			return msg.Kind, true
		}
	}
	return "", false
}

// Conversation is the organized, display-ready result of a run.
type Conversation struct {
	Messages []DisplayRecord `json:"messages" yaml:"messages"`
	Summary  string          `json:"summary" yaml:"summary"`
	Fallback bool            `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	// Diagnostic explains why fallback content was produced.
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// Archive is an unpacked chat export.
type Archive struct {
	Dir          string
	ChatFileName string
	Transcript   string
	// Media maps base filename to extracted path.
	Media      map[string]string
	TotalFiles int
}

// Cleanup removes the extracted files.
func (a *Archive) Cleanup() error {
	if a == nil || a.Dir == "" {
		return nil
	}
	return os.RemoveAll(a.Dir)
}
