package config

import (
	"fmt"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadToolchainFile loads and validates a toolchain file using Koanf.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Unknown top-level keys
//   - Validation failure (negative defaults, unparseable Java version)
func LoadToolchainFile(filepath string) (*ToolchainFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load toolchain config from %q: %w", filepath, err)
	}

	var unknown []string
	for _, key := range k.MapKeys("") {
		if !toolchainFileKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("toolchain config %q: %w", filepath,
			NewConfigError("unknown key %q", unknown[0]))
	}

	config := ToolchainFile{SDKRoot: k.String("sdkRoot")}
	if err := k.UnmarshalWithConf("defaults", &config.Defaults, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse toolchain config from %q: %w", filepath, err)
	}

	// Cut re-roots the tree at properties; All flattens it with the
	// delimiter, so nested maps and dotted keys end up identical.
	config.Properties = make(map[string]string)
	for name, v := range k.Cut("properties").All() {
		config.Properties[name] = fmt.Sprint(v)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("toolchain config validation failed for %q: %w", filepath, err)
	}

	return &config, nil
}
