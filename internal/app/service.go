package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lobocrea/wsptranscriber/internal/adapter/archive"
	"github.com/lobocrea/wsptranscriber/internal/adapter/organizer"
	"github.com/lobocrea/wsptranscriber/internal/adapter/parser"
	"github.com/lobocrea/wsptranscriber/internal/adapter/transcriber"
	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// Progress reports transcription progress.
type Progress interface {
	Done(filename string)
	Stop()
}

// Options tunes a ChatService.
type Options struct {
	TranscribeTimeout time.Duration
	Concurrency       int
	// NewProgress, if set, is called with the number of audio files before
	// transcription starts.
	NewProgress func(total int) Progress
}

// ChatService orchestrates the chat processing pipeline.
type ChatService struct {
	extractor   domain.ArchiveExtractor
	parser      domain.ChatParser
	transcriber domain.Transcriber
	organizer   domain.Organizer
	renderer    domain.ChatRenderer
	opts        Options
	log         zerolog.Logger
}

// NewChatService wires the pipeline. transcriber and org may be nil when
// no API key is configured; the run then degrades to placeholders and the
// local organizer.
func NewChatService(
	extractor domain.ArchiveExtractor,
	parser domain.ChatParser,
	transcriber domain.Transcriber,
	org domain.Organizer,
	renderer domain.ChatRenderer,
	opts Options,
	log zerolog.Logger,
) *ChatService {
	return &ChatService{
		extractor:   extractor,
		parser:      parser,
		transcriber: transcriber,
		organizer:   org,
		renderer:    renderer,
		opts:        opts,
		log:         log,
	}
}

// Process runs the full pipeline: extract → parse → filter → transcribe →
// organize → render.
func (s *ChatService) Process(ctx context.Context, exportPath string, from, to *time.Time, w io.Writer) error {
	log := s.log.With().Str("run_id", uuid.NewString()).Logger()
	start := time.Now()

	arc, err := s.extractor.Extract(exportPath)
	if err != nil {
		return fmt.Errorf("extracting export: %w", err)
	}
	defer func() {
		if err := arc.Cleanup(); err != nil {
			log.Warn().Err(err).Str("dir", arc.Dir).Msg("cleanup failed")
		}
	}()

	chat := &domain.Chat{Messages: s.parser.Parse(arc.Transcript)}

	// Apply time filter before transcription to avoid unnecessary API calls
	if from != nil || to != nil {
		chat = chat.Filter(from, to, parser.ParseTimestamp)
	}
	chat.Manifest = parser.ExtractAttachmentManifest(chat.Messages)

	log.Info().
		Str("chat_file", arc.ChatFileName).
		Int("messages", len(chat.Messages)).
		Int("attachments", len(chat.Manifest)).
		Msg("chat parsed")

	transcripts := s.transcribe(ctx, log, chat, arc)
	conv := s.organize(ctx, log, chat.Messages, transcripts)

	if err := s.renderer.Render(w, conv); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	log.Info().
		Int("transcripts", len(transcripts)).
		Bool("fallback", conv.Fallback).
		Dur("elapsed", time.Since(start)).
		Msg("done")
	return nil
}

// audioJobs returns the audio attachments of the manifest that were found
// in the archive and have an audio file type.
func audioJobs(chat *domain.Chat, arc *domain.Archive) (jobs []transcriber.Job, missing []string) {
	for _, name := range chat.Manifest {
		if kind, _ := chat.KindOf(name); kind != domain.AudioMessage || !archive.IsAudioFile(name) {
			continue
		}
		path, ok := arc.Media[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		jobs = append(jobs, transcriber.Job{Filename: name, Path: path})
	}
	return jobs, missing
}

func (s *ChatService) transcribe(ctx context.Context, log zerolog.Logger, chat *domain.Chat, arc *domain.Archive) map[string]string {
	jobs, missing := audioJobs(chat, arc)
	for _, name := range missing {
		log.Warn().Str("file", name).Msg("audio attachment not in archive")
	}
	if len(jobs) == 0 {
		return map[string]string{}
	}

	batch := &transcriber.Batch{
		Transcriber: s.transcriber,
		Timeout:     s.opts.TranscribeTimeout,
		Concurrency: s.opts.Concurrency,
		Log:         log,
	}
	if s.opts.NewProgress != nil {
		bar := s.opts.NewProgress(len(jobs))
		defer bar.Stop()
		batch.OnDone = bar.Done
	}

	return batch.Run(ctx, jobs)
}

// organize never fails: without a remote organizer, or when it errors, the
// local one is used and the reason is kept as a diagnostic.
func (s *ChatService) organize(ctx context.Context, log zerolog.Logger, records []domain.MessageRecord, transcripts map[string]string) *domain.Conversation {
	var diagnostic string
	if s.organizer == nil {
		diagnostic = "organize: " + organizer.ErrNotConfigured.Error()
	} else {
		conv, err := s.organizer.Organize(ctx, records, transcripts)
		if err == nil {
			return conv
		}
		log.Warn().Err(err).Msg("organizer failed, using local fallback")
		diagnostic = "organize: " + err.Error()
	}

	conv, _ := organizer.Fallback{}.Organize(ctx, records, transcripts)
	conv.Diagnostic = diagnostic
	return conv
}

// Manifest writes the attachments referenced by the chat, each marked
// present or missing in the archive, with its MIME type.
func (s *ChatService) Manifest(exportPath string, w io.Writer) error {
	arc, err := s.extractor.Extract(exportPath)
	if err != nil {
		return fmt.Errorf("extracting export: %w", err)
	}
	defer func() { _ = arc.Cleanup() }()

	chat := &domain.Chat{Messages: s.parser.Parse(arc.Transcript)}
	chat.Manifest = parser.ExtractAttachmentManifest(chat.Messages)

	for _, name := range chat.Manifest {
		status := "missing"
		if _, ok := arc.Media[name]; ok {
			status = "present"
		}
		kind, _ := chat.KindOf(name)
		if _, err := fmt.Fprintf(w, "%-7s  %-5s  %s  %s\n", status, kind, name, archive.MimeType(name)); err != nil {
			return err
		}
	}
	return nil
}
