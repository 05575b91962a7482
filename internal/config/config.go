package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/resolver"
)

// ToolchainFile is the on-disk description of the build toolchain:
//
//	sdkRoot: /opt/android-sdk
//	defaults:
//	  minSdkVersion: 21
//	  javaVersion: "17"
//	properties:
//	  flutter:
//	    minSdkVersion: 21
//	    targetSdkVersion: 35
//
// Nested property maps and dotted keys are equivalent.
type ToolchainFile struct {
	// SDKRoot is the platform SDK installation directory
	SDKRoot string `yaml:"sdkRoot"`

	// Defaults replace settings a document leaves out
	Defaults ToolchainDefaults `yaml:"defaults"`

	// Properties are flattened to dotted names after loading
	Properties map[string]string `yaml:"properties"`
}

// ToolchainDefaults holds the toolchain-level defaults
type ToolchainDefaults struct {
	MinSdkVersion int    `yaml:"minSdkVersion"`
	JavaVersion   string `yaml:"javaVersion"`
}

// toolchainFileKeys are the top-level keys a toolchain file may contain
var toolchainFileKeys = map[string]bool{
	"sdkRoot":    true,
	"defaults":   true,
	"properties": true,
}

// Validate checks that the toolchain configuration is usable
func (f *ToolchainFile) Validate() error {
	if f.Defaults.MinSdkVersion < 0 {
		return NewConfigError("defaults.minSdkVersion must not be negative, got %d", f.Defaults.MinSdkVersion)
	}

	if f.Defaults.JavaVersion != "" {
		if _, err := resolver.ParseJavaVersion(f.Defaults.JavaVersion); err != nil {
			return NewConfigError("defaults.javaVersion: %v", err)
		}
	}

	for name := range f.Properties {
		if strings.TrimSpace(name) == "" {
			return NewConfigError("property names must not be empty")
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
			return NewConfigError("property %q is not a valid dotted name", name)
		}
	}

	return nil
}

// Toolchain converts the file into the value passed to the resolver
func (f *ToolchainFile) Toolchain() models.Toolchain {
	props := make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return models.Toolchain{
		SDKRoot:              f.SDKRoot,
		Properties:           props,
		DefaultMinSdkVersion: f.Defaults.MinSdkVersion,
		DefaultJavaVersion:   f.Defaults.JavaVersion,
	}
}

// PropertyNames returns the property names in sorted order
func (f *ToolchainFile) PropertyNames() []string {
	names := make([]string, 0, len(f.Properties))
	for name := range f.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolchainOptions are the toolchain sources the CLI combines, in
// increasing precedence: environment fallback, file, flags.
type ToolchainOptions struct {
	// File is an optional toolchain file path
	File string

	// SDKRoot overrides the SDK root from the file
	SDKRoot string

	// Properties override file properties with the same name
	Properties map[string]string

	// EnvSDKRoot is used when neither the flags nor the file set an SDK root
	EnvSDKRoot string
}

// BuildToolchain merges the configured sources into a validated Toolchain
func BuildToolchain(opts ToolchainOptions) (models.Toolchain, error) {
	f := &ToolchainFile{Properties: map[string]string{}}
	if opts.File != "" {
		loaded, err := LoadToolchainFile(opts.File)
		if err != nil {
			return models.Toolchain{}, err
		}
		f = loaded
	}

	if opts.SDKRoot != "" {
		f.SDKRoot = opts.SDKRoot
	}
	if f.SDKRoot == "" {
		f.SDKRoot = opts.EnvSDKRoot
	}
	for k, v := range opts.Properties {
		f.Properties[k] = v
	}

	if err := f.Validate(); err != nil {
		return models.Toolchain{}, err
	}
	return f.Toolchain(), nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{message: fmt.Sprintf(format, args...)}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
