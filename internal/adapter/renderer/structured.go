package renderer

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lobocrea/wsptranscriber/internal/domain"
)

// JSONRenderer writes the conversation as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, conv *domain.Conversation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(conv); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// YAMLRenderer writes the conversation as YAML.
type YAMLRenderer struct{}

func (YAMLRenderer) Render(w io.Writer, conv *domain.Conversation) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(conv); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// ForFormat returns the renderer for text, markdown, json or yaml.
func ForFormat(format string) (domain.ChatRenderer, error) {
	switch format {
	case "text", "":
		return &TextRenderer{}, nil
	case "markdown":
		return &TextRenderer{Markdown: true}, nil
	case "json":
		return JSONRenderer{}, nil
	case "yaml":
		return YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, markdown, json or yaml)", format)
	}
}
