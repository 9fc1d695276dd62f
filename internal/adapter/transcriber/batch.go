package transcriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// DefaultTimeout bounds a single transcription call.
const DefaultTimeout = 90 * time.Second

// Job is one audio attachment to transcribe.
type Job struct {
	Filename string
	Path     string
}

// Batch transcribes a set of audio attachments. It never fails: every job
// ends up with either a transcript or a bracketed placeholder.
type Batch struct {
	// Transcriber may be nil when no API key is configured.
	Transcriber domain.Transcriber
	Timeout     time.Duration
	Concurrency int
	// OnDone is called once per finished job, from the worker goroutine.
	OnDone func(filename string)
	Log    zerolog.Logger
}

// Run transcribes all jobs and returns filename to transcript.
func (b *Batch) Run(ctx context.Context, jobs []Job) map[string]string {
	results := make(map[string]string, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := b.Concurrency
	if limit < 1 {
		limit = 1
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(limit)

	for _, job := range jobs {
		g.Go(func() error {
			text := b.transcribe(ctx, job, timeout)
			mu.Lock()
			results[job.Filename] = text
			mu.Unlock()
			if b.OnDone != nil {
				b.OnDone(job.Filename)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (b *Batch) transcribe(ctx context.Context, job Job, timeout time.Duration) string {
	if b.Transcriber == nil {
		return errorPlaceholder(job.Filename, ErrNotConfigured)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := b.Transcriber.Transcribe(callCtx, job.Path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			b.Log.Warn().Str("file", job.Filename).Dur("timeout", timeout).Msg("transcription timed out")
			return fmt.Sprintf("[Timeout transcribing %s]", job.Filename)
		}
		b.Log.Warn().Err(err).Str("file", job.Filename).Msg("transcription failed")
		return errorPlaceholder(job.Filename, err)
	}

	b.Log.Debug().
		Str("file", job.Filename).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("transcribed")
	return text
}

func errorPlaceholder(filename string, err error) string {
	return fmt.Sprintf("[Error transcribing %s: %s]", filename, err.Error())
}
