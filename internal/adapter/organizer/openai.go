package organizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("OpenAI API key is not configured")

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second

	// promptLimit is how many messages are sent to the model.
	promptLimit = 20
	maxRetries  = 3
	baseDelay   = time.Second
	maxDelay    = 30 * time.Second
)

const systemPrompt = `You organize WhatsApp conversations. Keep the exact chronological order of the messages you are given and never reorder them.
Rules:
- "audio_transcript" messages: use the transcript as the content.
- "audio" messages: keep them marked as audio without transcript.
- "image", "video", "file" and "text" messages: keep the content as it is.
- Never change timestamps or sender names.
- Always keep "originalFile" when present and "transcription" for audio.
Answer with valid JSON only, shaped as:
{"messages":[{"timestamp":"","sender":"","content":"","kind":"","originalFile":"","transcription":""}],"summary":""}`

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// OpenAIOrganizer organizes a conversation with a chat completion model.
type OpenAIOrganizer struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger

	baseDelay time.Duration
	maxDelay  time.Duration
}

func NewOpenAIOrganizer(apiKey, baseURL, model string, timeout time.Duration, log zerolog.Logger, opts ...option.RequestOption) (*OpenAIOrganizer, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Retries are handled here so that the backoff policy is ours.
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAIOrganizer{
		client:    openai.NewClient(reqOpts...),
		model:     model,
		timeout:   timeout,
		log:       log.With().Str("component", "organizer").Logger(),
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
	}, nil
}

type modelResponse struct {
	Messages []domain.DisplayRecord `json:"messages"`
	Summary  string                 `json:"summary"`
}

func (o *OpenAIOrganizer) Organize(ctx context.Context, records []domain.MessageRecord, transcripts map[string]string) (*domain.Conversation, error) {
	if len(records) == 0 {
		return &domain.Conversation{Messages: []domain.DisplayRecord{}, Summary: EmptySummary}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	merged := Merge(records, transcripts)
	sent := merged
	if len(sent) > promptLimit {
		sent = sent[:promptLimit]
	}

	prompt, err := userPrompt(sent, len(merged), len(transcripts))
	if err != nil {
		return nil, err
	}

	var content string
	err = o.retry(ctx, func() error {
		completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(prompt),
			},
			Model: openai.ChatModel(o.model),
		})
		if err != nil {
			return err
		}
		if len(completion.Choices) == 0 {
			return errors.New("empty completion")
		}
		content = completion.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("organizing with %s: %w", o.model, err)
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &resp); err != nil {
		o.log.Debug().Str("response", truncate(content, 500)).Msg("unparseable model response")
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	got := resp.Messages
	if len(got) > len(sent) {
		got = got[:len(sent)]
	}
	messages := make([]domain.DisplayRecord, 0, len(merged))
	messages = append(messages, got...)
	messages = append(messages, merged[len(got):]...)

	summary := resp.Summary
	if summary == "" {
		summary = fmt.Sprintf("%d messages, %d transcripts", len(records), len(transcripts))
	}

	o.log.Info().
		Int("messages", len(messages)).
		Int("from_model", len(got)).
		Msg("conversation organized")

	return &domain.Conversation{Messages: messages, Summary: summary}, nil
}

func userPrompt(sent []domain.DisplayRecord, total, transcripts int) (string, error) {
	data, err := json.MarshalIndent(sent, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding messages: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Messages:\n%s\n", data)
	if total > len(sent) {
		fmt.Fprintf(&b, "... and %d more messages\n", total-len(sent))
	}
	fmt.Fprintf(&b, "The conversation has %d transcribed audio messages.\n", transcripts)
	return b.String(), nil
}

// retry runs fn, retrying retryable errors with exponential backoff.
func (o *OpenAIOrganizer) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxRetries || !isRetryable(err) {
			return err
		}

		delay := min(o.baseDelay<<attempt, o.maxDelay)
		o.log.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func isRetryable(err error) bool {
	msg := err.Error()
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return true
		}
		// The full API error text carries the request URL.
		msg = apiErr.Message
	}
	msg = strings.ToLower(msg)
	for _, s := range []string{"503", "overloaded", "rate limit", "quota"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// extractJSON strips an optional code fence around the model's answer.
func extractJSON(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
