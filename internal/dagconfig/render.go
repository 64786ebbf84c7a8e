package dagconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Format selects the textual rendering of a Document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps user input to a Format; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use json or yaml)", s)
	}
}

// Render serializes doc in the given format.
func Render(doc Document, f Format) (string, error) {
	switch f {
	case FormatYAML:
		return RenderYAML(doc)
	default:
		return RenderJSON(doc)
	}
}

// RenderJSON pretty-prints doc with 2-space indentation and sorted keys.
// Non-ASCII text is kept as-is.
func RenderJSON(doc Document) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return "", fmt.Errorf("render json: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// RenderYAML renders doc as a YAML mapping.
func RenderYAML(doc Document) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return "", fmt.Errorf("render yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("render yaml: %w", err)
	}
	return buf.String(), nil
}
