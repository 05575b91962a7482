// Package document loads declarative build documents into the raw
// key/value form consumed by the resolver.
//
// Every syntax is plugged into koanf as a parser, so loading a YAML, JSONC,
// HCL or Gradle Kotlin DSL file goes through the same koanf.Load call and
// yields the same nested map shape.
package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/timitprog-hue/buildplan/internal/models"
)

// Format is a declarative document syntax
type Format string

const (
	// FormatAuto picks the format from the file extension
	FormatAuto   Format = ""
	FormatYAML   Format = "yaml"
	FormatJSONC  Format = "jsonc"
	FormatHCL    Format = "hcl"
	FormatGradle Format = "gradle"
)

// Formats lists the explicit formats
var Formats = []Format{FormatYAML, FormatJSONC, FormatHCL, FormatGradle}

// ParseFormat converts a user-supplied name into a Format. An empty name means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json", "jsonc":
		return FormatJSONC, nil
	case "hcl":
		return FormatHCL, nil
	case "gradle", "kts":
		return FormatGradle, nil
	default:
		return "", fmt.Errorf("unsupported document format %q (expected one of: yaml, jsonc, hcl, gradle)", s)
	}
}

// DetectFormat picks a format from the file extension
func DetectFormat(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gradle.kts"), strings.HasSuffix(lower, ".kts"):
		return FormatGradle, nil
	}

	switch filepath.Ext(lower) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSONC, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("cannot detect document format of %q (use .yaml, .json, .jsonc, .hcl or .gradle.kts, or set the format explicitly)", path)
	}
}

// ParserFor returns the koanf parser for a format
func ParserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatYAML:
		return yaml.Parser(), nil
	case FormatJSONC:
		return JSONCParser(), nil
	case FormatHCL:
		return HCLParser(), nil
	case FormatGradle:
		return GradleParser(), nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

// Load reads and parses the document at path. FormatAuto detects the
// format from the extension.
func Load(path string, format Format) (models.Document, error) {
	if format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	doc, err := load(file.Provider(path), format)
	if err != nil {
		return nil, fmt.Errorf("failed to load build config from %q: %w", path, err)
	}
	return doc, nil
}

// Parse parses an in-memory document. FormatAuto is not accepted.
func Parse(data []byte, format Format) (models.Document, error) {
	doc, err := load(bytesProvider(data), format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s build config: %w", format, err)
	}
	return doc, nil
}

func load(provider koanf.Provider, format Format) (models.Document, error) {
	parser, err := ParserFor(format)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(provider, parser); err != nil {
		return nil, err
	}
	return models.Document(k.Raw()), nil
}

// bytesProvider is a koanf.Provider over an in-memory buffer
type bytesProvider []byte

// ReadBytes returns the raw bytes for parsing
func (b bytesProvider) ReadBytes() ([]byte, error) {
	return b, nil
}

// Read is not supported; the provider only serves raw bytes
func (b bytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("bytes provider does not support Read()")
}
