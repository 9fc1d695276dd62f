// Package transcriber turns WhatsApp voice notes into text.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("OpenAI API key is not configured")

// OpenAITranscriber transcribes audio files using the OpenAI Whisper API.
type OpenAITranscriber struct {
	client   openai.Client
	model    string
	language string
}

// NewOpenAITranscriber builds a transcriber. An empty model defaults to
// whisper-1; an empty language lets the API detect it.
func NewOpenAITranscriber(apiKey, baseURL, model, language string, opts ...option.RequestOption) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAITranscriber{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		language: language,
	}, nil
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("reading audio file %s: %w", audioPath, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("audio file %s is empty", filepath.Base(audioPath))
	}

	// Whisper doesn't accept .opus directly, but WhatsApp .opus files are
	// actually OGG/Opus containers. Symlink with .ogg extension so the API
	// accepts the file.
	actualPath := audioPath
	if strings.ToLower(filepath.Ext(audioPath)) == ".opus" {
		oggPath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".ogg"
		if err := os.Symlink(audioPath, oggPath); err == nil {
			actualPath = oggPath
			defer os.Remove(oggPath)
		}
	}

	f, err := os.Open(actualPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file %s: %w", actualPath, err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  f,
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	transcription, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribing %s: %w", filepath.Base(audioPath), err)
	}

	return strings.TrimSpace(transcription.Text), nil
}
