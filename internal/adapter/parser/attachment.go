package parser

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// Marker phrase newer exporters append to inline attachments:
//
//	PTT-20250923-WA0124.opus (archivo adjunto)
const inlineMarker = "archivo adjunto"

// Legacy exporters wrap attachments in a bracket:
//
//	<adjunto: 00000008-AUDIO-2025-07-28-10-17-40.opus>
const bracketMarker = "<adjunto:"

var bracketRe = regexp.MustCompile(`(?i)<adjunto:\s*([^>]+)>`)

// inlineRule matches a prefixed filename token of one media kind.
type inlineRule struct {
	kind   domain.MessageKind
	prefix string
	exts   []string // presence check, case-sensitive like the exporter
	token  *regexp.Regexp
	stem   string
	ext    string
}

var inlineRules = []inlineRule{
	{
		kind:   domain.AudioMessage,
		prefix: "PTT-",
		exts:   []string{".opus"},
		token:  regexp.MustCompile(`(?i)(PTT-[^.]+\.opus)`),
		stem:   "audio",
		ext:    "opus",
	},
	{
		kind:   domain.ImageMessage,
		prefix: "IMG-",
		exts:   []string{".jpg", ".jpeg", ".png"},
		token:  regexp.MustCompile(`(?i)(IMG-[^.]+\.(?:jpeg|jpg|png|gif|webp))`),
		stem:   "image",
		ext:    "jpg",
	},
	{
		kind:   domain.VideoMessage,
		prefix: "VID-",
		exts:   []string{".mp4", ".mov", ".avi"},
		token:  regexp.MustCompile(`(?i)(VID-[^.]+\.(?:mp4|mov|avi|mkv|webm))`),
		stem:   "video",
		ext:    "mp4",
	},
}

// bracketRule matches a legacy bracket carrying a media keyword.
type bracketRule struct {
	kind    domain.MessageKind
	keyword string
	stem    string
	ext     string
}

var bracketRules = []bracketRule{
	{domain.AudioMessage, "AUDIO", "audio", "opus"},
	{domain.ImageMessage, "PHOTO", "photo", "jpg"},
	{domain.VideoMessage, "VIDEO", "video", "mp4"},
}

// omittedRule matches exports made without media, where only a phrase
// is left in place of the attachment.
type omittedRule struct {
	kind    domain.MessageKind
	phrases *regexp.Regexp
	ext     string
}

var omittedRules = []omittedRule{
	{domain.AudioMessage, regexp.MustCompile(`(?i)audio\s+omitido|voice\s+message|nota de voz`), "opus"},
	{domain.ImageMessage, regexp.MustCompile(`(?i)imagen\s+omitida|image\s+omitted|foto omitida`), "jpg"},
	{domain.VideoMessage, regexp.MustCompile(`(?i)v[ií]deo\s+omitido|video\s+omitted`), "mp4"},
}

var (
	documentExts = []string{".zip", ".pdf", ".doc", ".txt"}
	// A run of text up to a document extension, delimited by marks or line breaks.
	documentRe          = regexp.MustCompile(`(?i)([^\x{200e}\n]+\.(?:zip|pdf|docx|doc|txt|xlsx|pptx|ppt))`)
	bracketDocumentExts = []string{".pdf", ".doc", ".txt"}
)

// AttachmentClassifier derives the attachment kind and filename of an
// assembled message body. Names it has to make up are built from the
// injected clock and random source, so they are unique in practice but
// not guaranteed: two synthesized names in the same millisecond without a
// random part collide.
type AttachmentClassifier struct {
	now  func() time.Time
	rand *rand.Rand
}

// NewAttachmentClassifier returns a classifier using the given clock and
// random source. nil values fall back to the wall clock and a random seed.
func NewAttachmentClassifier(now func() time.Time, r *rand.Rand) *AttachmentClassifier {
	if now == nil {
		now = time.Now
	}
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &AttachmentClassifier{now: now, rand: r}
}

// Classify returns the kind of body and, for anything but text, the
// attachment filename. The rules are tried in order and the first match
// wins: inline prefixed tokens, legacy brackets, omitted-media phrases,
// then generic documents.
func (c *AttachmentClassifier) Classify(body string) (domain.MessageKind, string) {
	hasInline := strings.Contains(body, inlineMarker)
	hasBracket := strings.Contains(body, bracketMarker)

	if hasInline {
		for _, r := range inlineRules {
			if !strings.Contains(body, r.prefix) || !containsAny(body, r.exts) {
				continue
			}
			if m := r.token.FindStringSubmatch(body); m != nil {
				return r.kind, cleanFilename(m[1])
			}
			return r.kind, c.randomName(r.stem, r.ext)
		}
	}

	if hasBracket {
		for _, r := range bracketRules {
			if !strings.Contains(body, r.keyword) {
				continue
			}
			if name, ok := bracketFilename(body); ok {
				return r.kind, name
			}
			return r.kind, c.randomName(r.stem, r.ext)
		}
	}

	for _, r := range omittedRules {
		if r.phrases.MatchString(body) {
			return r.kind, fmt.Sprintf("%s_omitido_%d.%s", r.kind, c.millis(), r.ext)
		}
	}

	if hasInline && containsAny(body, documentExts) {
		if m := documentRe.FindStringSubmatch(body); m != nil {
			if name := cleanFilename(m[1]); name != "" {
				return domain.FileMessage, name
			}
		}
		return domain.FileMessage, fmt.Sprintf("document_%d.pdf", c.millis())
	}

	// Only reached without AUDIO, PHOTO or VIDEO keywords, those were
	// claimed by the bracket rules above.
	if hasBracket {
		if name, ok := bracketFilename(body); ok {
			return domain.FileMessage, name
		}
		if containsAny(body, bracketDocumentExts) {
			return domain.FileMessage, fmt.Sprintf("document_%d.pdf", c.millis())
		}
		return domain.FileMessage, fmt.Sprintf("file_%d", c.millis())
	}

	return domain.TextMessage, ""
}

func (c *AttachmentClassifier) millis() int64 {
	return c.now().UnixMilli()
}

// randomName is used when a recognized marker carries no usable filename.
func (c *AttachmentClassifier) randomName(stem, ext string) string {
	suffix := strconv.FormatUint(c.rand.Uint64(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("%s_%d_%s.%s", stem, c.millis(), suffix, ext)
}

func bracketFilename(body string) (string, bool) {
	m := bracketRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	name := cleanFilename(m[1])
	return name, name != ""
}

func cleanFilename(s string) string {
	return strings.TrimSpace(stripMarks(s))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
