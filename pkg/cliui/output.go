package cliui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output flags.
const (
	OutputPretty = "pretty"
	OutputJSON   = "json"
	OutputYAML   = "yaml"
)

// ErrUnknownOutput is returned by ParseOutput.
var ErrUnknownOutput = errors.New("unknown output format")

// ParseOutput normalizes an --output value. Empty means pretty.
func ParseOutput(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", OutputPretty:
		return OutputPretty, nil
	case OutputJSON, OutputYAML:
		return f, nil
	case "yml":
		return OutputYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (pretty, json, yaml)", ErrUnknownOutput, s)
	}
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, format)
	}
}
