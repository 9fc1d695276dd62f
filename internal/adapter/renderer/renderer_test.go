package renderer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

func sampleConversation() *domain.Conversation {
	return &domain.Conversation{
		Summary: "3 messages",
		Messages: []domain.DisplayRecord{
			{Timestamp: "1/2/24, 10:00 a. m.", Sender: "Ana", Content: "hola", Kind: domain.TextMessage},
			{Timestamp: "1/2/24, 10:01 a. m.", Sender: "Ana", Content: "nos vemos", Kind: domain.AudioTranscriptMessage, OriginalFile: "PTT-1.opus", Transcription: "nos vemos"},
			{Timestamp: "1/2/24, 10:02 a. m.", Sender: "Luis", Content: "[untranscribed audio]", Kind: domain.AudioMessage, OriginalFile: "PTT-2.opus"},
			{Timestamp: "1/2/24, 10:03 a. m.", Sender: "Luis", Content: "IMG-1.jpg", Kind: domain.ImageMessage, OriginalFile: "IMG-1.jpg"},
			{Timestamp: "1/2/24, 10:04 a. m.", Sender: "Luis", Kind: domain.VideoMessage, OriginalFile: "VID-1.mp4"},
			{Timestamp: "1/2/24, 10:05 a. m.", Sender: "Ana", Kind: domain.FileMessage, OriginalFile: "plan.pdf"},
		},
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextRenderer{}).Render(&buf, sampleConversation()))

	want := "*** 3 messages\n" +
		"\n" +
		"[1/2/24, 10:00 a. m.] Ana: hola\n" +
		"[1/2/24, 10:01 a. m.] Ana: [Voice message] nos vemos\n" +
		"[1/2/24, 10:02 a. m.] Luis: [Voice message] [untranscribed audio] (PTT-2.opus)\n" +
		"[1/2/24, 10:03 a. m.] Luis: [Image] IMG-1.jpg\n" +
		"[1/2/24, 10:04 a. m.] Luis: [Video] VID-1.mp4\n" +
		"[1/2/24, 10:05 a. m.] Ana: [File] plan.pdf\n"
	assert.Equal(t, want, buf.String())
}

func TestTextRenderer_Markdown(t *testing.T) {
	conv := sampleConversation()
	conv.Diagnostic = "organize: quota exceeded"
	conv.Messages = conv.Messages[:1]

	var buf bytes.Buffer
	require.NoError(t, (&TextRenderer{Markdown: true}).Render(&buf, conv))

	want := "*3 messages*\n" +
		"*fallback: organize: quota exceeded*\n" +
		"\n" +
		"[1/2/24, 10:00 a. m.] **Ana**: hola\n"
	assert.Equal(t, want, buf.String())
}

func TestTextRenderer_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextRenderer{}).Render(&buf, &domain.Conversation{}))
	assert.Empty(t, buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, sampleConversation()))

	var got domain.Conversation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleConversation(), got)
	assert.Contains(t, buf.String(), `"kind": "audio_transcript"`)
	assert.NotContains(t, buf.String(), `"fallback"`)
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAMLRenderer{}.Render(&buf, sampleConversation()))

	var got domain.Conversation
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleConversation(), got)
	assert.Contains(t, buf.String(), "summary: 3 messages")
}

func TestForFormat(t *testing.T) {
	for _, f := range []string{"", "text", "markdown", "json", "yaml"} {
		r, err := ForFormat(f)
		require.NoError(t, err, f)
		assert.NotNil(t, r)
	}

	_, err := ForFormat("xml")
	require.Error(t, err)
}
