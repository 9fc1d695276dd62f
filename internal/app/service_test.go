package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobocrea/wsptranscriber/internal/adapter/parser"
	"github.com/lobocrea/wsptranscriber/internal/adapter/renderer"
	"github.com/lobocrea/wsptranscriber/internal/adapter/transcriber"
	"github.com/lobocrea/wsptranscriber/internal/domain"
)

const transcript = "1/2/24, 10:00 a. m. - Ana: hola\n" +
	"1/2/24, 10:01 a. m. - Ana: \u200ePTT-20240201-WA0001.opus (archivo adjunto)\n" +
	"1/2/24, 10:02 a. m. - Luis: \u200ePTT-20240201-WA0002.opus (archivo adjunto)\n" +
	"3/2/24, 9:00 a. m. - Luis: IMG-20240203-WA0003.jpg (archivo adjunto)\n"

type fakeExtractor struct {
	arc *domain.Archive
	err error
}

func (f *fakeExtractor) Extract(string) (*domain.Archive, error) {
	return f.arc, f.err
}

type fakeTranscriber struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return "transcript of " + filepath.Base(path), nil
}

type fakeOrganizer struct {
	conv *domain.Conversation
	err  error
	got  map[string]string
}

func (f *fakeOrganizer) Organize(_ context.Context, _ []domain.MessageRecord, transcripts map[string]string) (*domain.Conversation, error) {
	f.got = transcripts
	return f.conv, f.err
}

type fakeProgress struct {
	total int
	done  []string
	stop  bool
}

func (p *fakeProgress) Done(name string) { p.done = append(p.done, name) }
func (p *fakeProgress) Stop()            { p.stop = true }

// newArchive builds an extracted archive where only the first voice note
// exists on disk.
func newArchive(t *testing.T) *domain.Archive {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "export")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	audio := filepath.Join(dir, "PTT-20240201-WA0001.opus")
	image := filepath.Join(dir, "IMG-20240203-WA0003.jpg")
	require.NoError(t, os.WriteFile(audio, []byte("OggS"), 0o600))
	require.NoError(t, os.WriteFile(image, []byte("jpg"), 0o600))

	return &domain.Archive{
		Dir:          dir,
		ChatFileName: "_chat.txt",
		Transcript:   transcript,
		Media: map[string]string{
			"PTT-20240201-WA0001.opus": audio,
			"IMG-20240203-WA0003.jpg":  image,
		},
		TotalFiles: 3,
	}
}

func TestProcess_FallbackWithoutOrganizer(t *testing.T) {
	arc := newArchive(t)
	tr := &fakeTranscriber{}
	bar := &fakeProgress{}
	svc := NewChatService(&fakeExtractor{arc: arc}, parser.New(), tr, nil, &renderer.TextRenderer{}, Options{
		NewProgress: func(total int) Progress {
			bar.total = total
			return bar
		},
	}, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.Process(context.Background(), "export.zip", nil, nil, &buf))

	assert.Equal(t, []string{arc.Media["PTT-20240201-WA0001.opus"]}, tr.paths)
	assert.Equal(t, 1, bar.total)
	assert.Equal(t, []string{"PTT-20240201-WA0001.opus"}, bar.done)
	assert.True(t, bar.stop)

	want := "*** organized without AI: 4 messages, 1 transcripts\n" +
		"*** fallback: organize: OpenAI API key is not configured\n" +
		"\n" +
		"[1/2/24, 10:00 a. m.] Ana: hola\n" +
		"[1/2/24, 10:01 a. m.] Ana: [Voice message] transcript of PTT-20240201-WA0001.opus\n" +
		"[1/2/24, 10:02 a. m.] Luis: [Voice message] [untranscribed audio] (PTT-20240201-WA0002.opus)\n" +
		"[3/2/24, 9:00 a. m.] Luis: [Image] IMG-20240203-WA0003.jpg\n"
	assert.Equal(t, want, buf.String())

	_, err := os.Stat(arc.Dir)
	assert.True(t, os.IsNotExist(err), "archive should be cleaned up")
}

func TestProcess_Organizer(t *testing.T) {
	org := &fakeOrganizer{conv: &domain.Conversation{
		Summary:  "from model",
		Messages: []domain.DisplayRecord{{Timestamp: "t", Sender: "Ana", Content: "hola", Kind: domain.TextMessage}},
	}}
	svc := NewChatService(&fakeExtractor{arc: newArchive(t)}, parser.New(), &fakeTranscriber{}, org, renderer.JSONRenderer{}, Options{}, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.Process(context.Background(), "export.zip", nil, nil, &buf))

	assert.Equal(t, map[string]string{
		"PTT-20240201-WA0001.opus": "transcript of PTT-20240201-WA0001.opus",
	}, org.got)
	assert.Contains(t, buf.String(), `"summary": "from model"`)
	assert.NotContains(t, buf.String(), "diagnostic")
}

func TestProcess_OrganizerFailure(t *testing.T) {
	org := &fakeOrganizer{err: errors.New("quota exceeded")}
	svc := NewChatService(&fakeExtractor{arc: newArchive(t)}, parser.New(), &fakeTranscriber{}, org, renderer.JSONRenderer{}, Options{}, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.Process(context.Background(), "export.zip", nil, nil, &buf))

	assert.Contains(t, buf.String(), `"fallback": true`)
	assert.Contains(t, buf.String(), `"diagnostic": "organize: quota exceeded"`)
}

func TestProcess_NoTranscriber(t *testing.T) {
	svc := NewChatService(&fakeExtractor{arc: newArchive(t)}, parser.New(), nil, nil, &renderer.TextRenderer{}, Options{}, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.Process(context.Background(), "export.zip", nil, nil, &buf))

	assert.Contains(t, buf.String(), "[Voice message] [Error transcribing PTT-20240201-WA0001.opus: OpenAI API key is not configured]")
}

func TestProcess_TimeFilter(t *testing.T) {
	tr := &fakeTranscriber{}
	svc := NewChatService(&fakeExtractor{arc: newArchive(t)}, parser.New(), tr, nil, &renderer.TextRenderer{}, Options{}, zerolog.Nop())

	from := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, svc.Process(context.Background(), "export.zip", &from, nil, &buf))

	assert.Empty(t, tr.paths, "filtered audio must not be transcribed")
	assert.Contains(t, buf.String(), "[Image] IMG-20240203-WA0003.jpg")
	assert.NotContains(t, buf.String(), "Ana: hola")
}

func TestProcess_ExtractError(t *testing.T) {
	svc := NewChatService(&fakeExtractor{err: errors.New("not a zip")}, parser.New(), nil, nil, &renderer.TextRenderer{}, Options{}, zerolog.Nop())

	err := svc.Process(context.Background(), "export.zip", nil, nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a zip")
}

func TestManifest(t *testing.T) {
	svc := NewChatService(&fakeExtractor{arc: newArchive(t)}, parser.New(), nil, nil, &renderer.TextRenderer{}, Options{}, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.Manifest("export.zip", &buf))

	want := "present  audio  PTT-20240201-WA0001.opus  audio/opus\n" +
		"missing  audio  PTT-20240201-WA0002.opus  audio/opus\n" +
		"present  image  IMG-20240203-WA0003.jpg  image/jpeg\n"
	assert.Equal(t, want, buf.String())
}

func TestAudioJobs(t *testing.T) {
	chat := &domain.Chat{
		Messages: []domain.MessageRecord{
			{Kind: domain.AudioMessage, AttachmentFilename: "PTT-1.opus"},
			{Kind: domain.AudioMessage, AttachmentFilename: "00000008-AUDIO-2025-07-28.pdf"},
			{Kind: domain.AudioMessage, AttachmentFilename: "PTT-2.opus"},
			{Kind: domain.ImageMessage, AttachmentFilename: "IMG-1.jpg"},
		},
	}
	chat.Manifest = parser.ExtractAttachmentManifest(chat.Messages)
	arc := &domain.Archive{Media: map[string]string{
		"PTT-1.opus":                    "/x/PTT-1.opus",
		"00000008-AUDIO-2025-07-28.pdf": "/x/00000008-AUDIO-2025-07-28.pdf",
		"IMG-1.jpg":                     "/x/IMG-1.jpg",
	}}

	jobs, missing := audioJobs(chat, arc)

	assert.Equal(t, []transcriber.Job{{Filename: "PTT-1.opus", Path: "/x/PTT-1.opus"}}, jobs)
	assert.Equal(t, []string{"PTT-2.opus"}, missing)
}
