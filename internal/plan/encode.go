package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for a BuildPlan
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
	FormatText Format = "text"
)

// Formats lists the supported output formats
var Formats = []Format{FormatJSON, FormatYAML, FormatCBOR, FormatText}

// ParseFormat converts a user-supplied name into a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected one of: json, yaml, cbor, text)", s)
	}
}

// FormatForPath picks an output format from a file extension, falling back to JSON
func FormatForPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".cbor"):
		return FormatCBOR
	case strings.HasSuffix(lower, ".txt"):
		return FormatText
	default:
		return FormatJSON
	}
}

// Marshal encodes a plan into the given format. Text output is never styled.
func Marshal(p *models.BuildPlan, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan as json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan as yaml: %w", err)
		}
		return data, nil
	case FormatCBOR:
		data, err := MarshalCBOR(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan as cbor: %w", err)
		}
		return data, nil
	case FormatText:
		return []byte(RenderText(p, false)), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// Encode writes a plan to w. Text output is styled when w is a terminal.
func Encode(w io.Writer, p *models.BuildPlan, format Format) error {
	var data []byte
	if format == FormatText {
		data = []byte(RenderText(p, isTerminal(w)))
	} else {
		var err error
		data, err = Marshal(p, format)
		if err != nil {
			return err
		}
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

// Decode parses a plan previously produced by Marshal. Text output cannot be decoded.
func Decode(data []byte, format Format) (*models.BuildPlan, error) {
	var p models.BuildPlan
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &p)
	case FormatYAML:
		err = yaml.Unmarshal(data, &p)
	case FormatCBOR:
		err = UnmarshalCBOR(data, &p)
	default:
		return nil, fmt.Errorf("cannot decode plan from %q output", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s plan: %w", format, err)
	}
	return &p, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
