package progress

import (
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

// Bar tracks transcription progress on the terminal.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	mu      sync.Mutex
	enabled bool
}

// New creates a progress bar writing to stderr if logLevel is "info" and
// there is something to track.
func New(total int, logLevel string) *Bar {
	return newBar(total, logLevel, os.Stderr)
}

func newBar(total int, logLevel string, w io.Writer) *Bar {
	bar := &Bar{
		total:   total,
		enabled: logLevel == "info" && total > 0,
	}

	if bar.enabled {
		pb, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Transcribing voice messages").
			WithWriter(w).
			Start()
		if err != nil {
			bar.enabled = false
			return bar
		}
		bar.pb = pb
	}

	return bar
}

// Done advances the bar by one finished file.
func (b *Bar) Done(filename string) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	displayName := filename
	if len(displayName) > 40 {
		displayName = displayName[:37] + "..."
	}
	b.pb.UpdateTitle("Transcribed: " + displayName)
	b.pb.Increment()
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}
	_, _ = b.pb.Stop()
}
