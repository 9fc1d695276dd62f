package parser

import "strings"

// RawLine is one line of the transcript with its 0-based position.
type RawLine struct {
	Index int
	Text  string
}

// AssembledMessage is a header plus all continuation lines that follow it.
type AssembledMessage struct {
	Timestamp string
	Sender    string
	Body      string
	// Line is the index of the header line.
	Line int
}

type assemblerState int

const (
	scanning assemblerState = iota
	consuming
)

// assembler groups lines into messages. In scanning no message is open
// and lines that are not headers are dropped; in consuming every line
// that is not a header belongs to the open message. A message is flushed
// when the next header arrives or the input ends.
type assembler struct {
	classify func(string) (MessageHeader, bool)
	// emit receives every completed message, in input order.
	emit func(AssembledMessage)
	// discard receives lines dropped while scanning.
	discard func(RawLine)

	state   assemblerState
	current AssembledMessage
	body    strings.Builder
}

func newAssembler(classify func(string) (MessageHeader, bool), emit func(AssembledMessage), discard func(RawLine)) *assembler {
	if discard == nil {
		discard = func(RawLine) {}
	}
	return &assembler{classify: classify, emit: emit, discard: discard}
}

// run feeds all lines and flushes the final message.
func (a *assembler) run(lines []RawLine) {
	for cursor := 0; cursor < len(lines); cursor++ {
		a.feed(lines[cursor])
	}
	a.flush()
}

func (a *assembler) feed(line RawLine) {
	text := strings.TrimSpace(line.Text)
	if strings.TrimFunc(text, isMark) == "" {
		return
	}

	if h, ok := a.classify(text); ok {
		a.flush()
		a.current = AssembledMessage{
			Timestamp: h.Timestamp,
			Sender:    h.Sender,
			Line:      line.Index,
		}
		a.body.Reset()
		a.body.WriteString(h.Body)
		a.state = consuming
		return
	}

	switch a.state {
	case scanning:
		a.discard(line)
	case consuming:
		a.body.WriteByte('\n')
		a.body.WriteString(text)
	}
}

func (a *assembler) flush() {
	if a.state != consuming {
		return
	}
	a.current.Body = a.body.String()
	a.emit(a.current)
	a.state = scanning
	a.body.Reset()
}
