package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MessageHeader is the part of a line that opens a new message.
type MessageHeader struct {
	Timestamp string
	Sender    string
	Body      string
}

type headerPattern struct {
	name string
	re   *regexp.Regexp
	// notice patterns capture no sender: the line is an exporter notice
	// that still closes the previous message.
	notice bool
}

// Header formats, most specific first. The generic patterns are catch-alls
// that would also match most of the specific shapes, so the order decides
// how an ambiguous line is split. Every pattern captures timestamp, sender and
// first body fragment, and the sender can never contain a colon.
var headerPatterns = []headerPattern{
	// 23/9/2025, 10:15 a. m. - Sender: Text
	{"dash-meridiem-4y", regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}/\d{4},\s\d{1,2}:\d{2}\s[ap]\.\s?m\.)\s-\s([^:]+):\s(.+)$`), false},
	// 23/9/25, 10:15 a. m. - Sender: Text
	{"dash-meridiem", regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}/\d{2,4},\s\d{1,2}:\d{2}\s[ap]\.\s?m\.)\s-\s([^:]+):\s(.+)$`), false},
	// [25/7/25, 12:41:11 a. m.] Sender: Text
	{"bracket-meridiem", regexp.MustCompile(`(?i)^\[(\d{1,2}/\d{1,2}/\d{2,4},\s\d{1,2}:\d{2}:\d{2}\s[ap]\.\s?m\.)\]\s([^:]+):\s(.+)$`), false},
	// 23/9/25, 10:15 - Sender: Text
	{"dash-24h", regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4},\s\d{1,2}:\d{2})\s-\s([^:]+):\s(.+)$`), false},
	// 23/9/2025, 10:15 - Sender: Text
	// Shadowed by dash-24h; kept so the table follows the exporter history.
	{"dash-24h-4y", regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4},\s\d{1,2}:\d{2})\s-\s([^:]+):\s(.+)$`), false},
	// [23/9/25 10:15:00] Sender: Text
	{"bracket-24h", regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}\s\d{1,2}:\d{2}:\d{2})\]\s([^:]+):\s(.+)$`), false},
	// 23/9/25 10:15 - Sender: Text
	{"dash-24h-nocomma", regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}\s\d{1,2}:\d{2})\s-\s([^:]+):\s(.+)$`), false},
	// 23/9/25, 10:15 PM - Sender: Text
	{"dash-ampm", regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}/\d{2,4},\s\d{1,2}:\d{2}\s[AP]M)\s-\s([^:]+):\s(.+)$`), false},
	// anything - Sender: Text
	{"generic-dash", regexp.MustCompile(`^(.+?)\s-\s([^:]+):\s(.+)$`), false},
	// [anything] Sender: Text
	{"generic-bracket", regexp.MustCompile(`^\[(.+?)\]\s([^:]+):\s(.+)$`), false},
	// 23/9/25, 10:15 a. m. - Sender:
	// The first fragment is empty and the text follows on the next lines.
	{"dash-empty-body", regexp.MustCompile(`(?i)^(` + noticeTimestamp + `)\s-\s([^:]+):()$`), false},
	// [25/7/25, 12:41:11 a. m.] Sender:
	{"bracket-empty-body", regexp.MustCompile(`(?i)^\[(` + noticeTimestamp + `)\]\s([^:]+):()$`), false},
	// 23/9/25, 10:15 a. m. - Juan salió del grupo
	{"notice-dash", regexp.MustCompile(`(?i)^(` + noticeTimestamp + `)\s-\s(.+)$`), true},
	// [25/7/25, 12:41:11 a. m.] Juan salió del grupo
	{"notice-bracket", regexp.MustCompile(`(?i)^\[(` + noticeTimestamp + `)\]\s(.+)$`), true},
}

const noticeTimestamp = `\d{1,2}/\d{1,2}/\d{2,4},?\s\d{1,2}:\d{2}(?::\d{2})?(?:\s?[ap]\.\s?m\.|\s?[ap]m)?`

// ClassifyLine reports whether line opens a new message. The line is
// expected to be trimmed and non-empty. Exporter notices carrying a
// timestamp but no sender open a message with an empty Sender.
func ClassifyLine(line string) (MessageHeader, bool) {
	h, _, ok := classifyLine(line)
	return h, ok
}

// classifyLine also returns the name of the matching pattern for logging.
// Patterns match on a copy with no-break spaces folded; the timestamp is
// sliced from the original line so it stays verbatim.
func classifyLine(line string) (MessageHeader, string, bool) {
	line = trimLeadingMarks(line)
	folded, offsets := foldSpaces(line)
	for _, p := range headerPatterns {
		m := p.re.FindStringSubmatchIndex(folded)
		if m == nil {
			continue
		}
		h := MessageHeader{
			Timestamp: strings.TrimSpace(line[offsets[m[2]]:offsets[m[3]]]),
		}
		if p.notice {
			h.Body = trimLeadingMarks(folded[m[4]:m[5]])
		} else {
			h.Sender = strings.TrimSpace(folded[m[4]:m[5]])
			h.Body = trimLeadingMarks(folded[m[6]:m[7]])
		}
		return h, p.name, true
	}
	return MessageHeader{}, "", false
}

// isMark reports bidi and zero-width characters the exporter sprinkles
// around headers and attachment names.
func isMark(r rune) bool {
	switch {
	case r == '\u200e' || r == '\u200f': // LTR / RTL mark
		return true
	case r >= '\u200b' && r <= '\u200d': // zero-width spaces
		return true
	case r >= '\u202a' && r <= '\u202e': // bidi embedding
		return true
	case r == '\ufeff': // BOM
		return true
	}
	return false
}

func trimLeadingMarks(s string) string {
	return strings.TrimLeftFunc(s, isMark)
}

// stripMarks removes every mark from s.
func stripMarks(s string) string {
	return strings.Map(func(r rune) rune {
		if isMark(r) {
			return -1
		}
		return r
	}, s)
}

// normalizeSpaces folds the no-break spaces newer exporters put before the
// meridiem marker into plain spaces.
func normalizeSpaces(s string) string {
	folded, _ := foldSpaces(s)
	return folded
}

// foldSpaces is normalizeSpaces that also returns, for every byte of the
// result plus its end, the matching byte offset in s.
func foldSpaces(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		if r == '\u00a0' || r == '\u202f' {
			b.WriteByte(' ')
			offsets = append(offsets, i)
		} else {
			b.WriteString(s[i : i+w])
			for k := range w {
				offsets = append(offsets, i+k)
			}
		}
		i += w
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}
