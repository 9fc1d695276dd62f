// Package parser turns the text of a WhatsApp chat export into ordered,
// typed message records. It does no I/O and never fails: lines it cannot
// place are dropped and timestamps it cannot read keep their position.
package parser

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// WhatsAppParser parses WhatsApp chat transcripts.
type WhatsAppParser struct {
	attachments *AttachmentClassifier
	log         zerolog.Logger
}

// Option configures a WhatsAppParser.
type Option func(*WhatsAppParser)

// WithClock sets the clock and random source used for synthesized
// attachment names.
func WithClock(now func() time.Time, r *rand.Rand) Option {
	return func(p *WhatsAppParser) {
		p.attachments = NewAttachmentClassifier(now, r)
	}
}

// WithLogger sets the logger for parse diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(p *WhatsAppParser) {
		p.log = log
	}
}

func New(opts ...Option) *WhatsAppParser {
	p := &WhatsAppParser{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.attachments == nil {
		p.attachments = NewAttachmentClassifier(nil, nil)
	}
	p.log = p.log.With().Str("component", "parser").Logger()
	return p
}

// Parse returns the messages of rawText sorted chronologically.
func (p *WhatsAppParser) Parse(rawText string) []domain.MessageRecord {
	records := make([]domain.MessageRecord, 0)
	if rawText == "" {
		return records
	}

	text := norm.NFC.String(rawText)
	split := strings.Split(text, "\n")
	lines := make([]RawLine, len(split))
	for i, s := range split {
		lines[i] = RawLine{Index: i, Text: s}
	}

	var discarded, suppressed int

	classify := func(line string) (MessageHeader, bool) {
		h, pattern, ok := classifyLine(line)
		if ok && (pattern == "generic-dash" || pattern == "generic-bracket") {
			p.log.Debug().Str("pattern", pattern).Str("timestamp", h.Timestamp).Msg("header matched by fallback pattern")
		}
		return h, ok
	}

	emit := func(m AssembledMessage) {
		if IsSystemMessage(m.Sender, m.Body) {
			suppressed++
			p.log.Debug().Int("line", m.Line).Str("body", truncate(m.Body, 50)).Msg("skipping system message")
			return
		}
		kind, filename := p.attachments.Classify(m.Body)
		records = append(records, domain.MessageRecord{
			Timestamp:          m.Timestamp,
			Sender:             m.Sender,
			Content:            strings.TrimSpace(stripMarks(m.Body)),
			Kind:               kind,
			AttachmentFilename: filename,
		})
	}

	discard := func(l RawLine) {
		discarded++
		p.log.Debug().Int("line", l.Index).Str("text", truncate(l.Text, 100)).Msg("no message open, line dropped")
	}

	newAssembler(classify, emit, discard).run(lines)

	p.log.Debug().
		Int("lines", len(lines)).
		Int("messages", len(records)).
		Int("system", suppressed).
		Int("dropped", discarded).
		Msg("transcript parsed")

	return SortChronologically(records)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
