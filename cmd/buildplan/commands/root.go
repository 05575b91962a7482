package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/timitprog-hue/buildplan/internal/config"
	"github.com/timitprog-hue/buildplan/internal/logging"
	"github.com/timitprog-hue/buildplan/internal/models"
)

const Version = "0.1.0"

var (
	logLevelFlags []string // Supports multiple --log-level flags

	toolchainFile       string
	toolchainSDKRoot    string
	toolchainProperties map[string]string
)

var rootCmd = &cobra.Command{
	Use:   "buildplan",
	Short: "buildplan - resolve declarative build settings into a build plan",
	Long: `buildplan reads a module's declarative build settings (YAML, JSONC, HCL or
a Gradle Kotlin DSL script), validates them, applies defaults and emits the
resolved build plan a packager consumes.`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return usageError(setupLog(logLevelFlags))
	},
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	code := ExitCode(err)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if code == ExitUsage {
			fmt.Fprintln(stderr, "Run 'buildplan --help' for usage.")
		}
	}
	return code
}

func init() {
	// Global flags available to all subcommands
	// Supports per-package log levels: --log-level debug --log-level config.watcher=debug
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level",
		[]string{"info"},
		"Log level for packages. Use 'default=level' for default, or 'package.name=level' for per-package.\n"+
			"Examples: --log-level debug (all), --log-level config.watcher=debug --log-level cli=warn")
	rootCmd.PersistentFlags().AddFlagSet(toolchainFlagSet())

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// toolchainFlagSet holds the flags describing the toolchain documents are
// resolved against. They are shared by every resolving subcommand.
func toolchainFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("toolchain", pflag.ContinueOnError)
	fs.StringVar(&toolchainFile, "toolchain", "",
		"Path to a toolchain YAML file (sdkRoot, defaults, properties)")
	fs.StringVar(&toolchainSDKRoot, "sdk-root", "",
		"Platform SDK root (default: $ANDROID_HOME, then $ANDROID_SDK_ROOT)")
	fs.StringToStringVar(&toolchainProperties, "property", map[string]string{},
		"Toolchain property referenced by documents, e.g. --property flutter.minSdkVersion=21 (repeatable)")
	return fs
}

// loadToolchain combines the toolchain file, flags and SDK environment
// variables. This is the only place the process environment feeds into
// resolution.
func loadToolchain() (models.Toolchain, error) {
	return config.BuildToolchain(config.ToolchainOptions{
		File:       toolchainFile,
		SDKRoot:    toolchainSDKRoot,
		Properties: toolchainProperties,
		EnvSDKRoot: sdkRootFromEnv(os.Getenv),
	})
}

// sdkRootFromEnv returns the first non-empty SDK root variable
func sdkRootFromEnv(getenv func(string) string) string {
	for _, key := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// exactArgs wraps cobra.ExactArgs so argument count mistakes exit as usage errors
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.ExactArgs(n)(cmd, args))
	}
}

// minArgs wraps cobra.MinimumNArgs so argument count mistakes exit as usage errors
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.MinimumNArgs(n)(cmd, args))
	}
}

// setupLog initializes the logging system with parsed log level flags
// Priority: CLI flags > Environment variables > Initialize default
func setupLog(flags []string) error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(flags, os.Environ())
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// parseLogLevelFlags parses CLI flags and environment variables
// Priority: CLI flags > Environment variables
//
// CLI format: ["debug"], ["default=info", "config.watcher=debug"], or ["info"]
// Env vars: LOG_LEVEL_CONFIG_WATCHER=debug (package name uppercased, dots to underscores)
//
// Returns: (defaultLevel, packageLevels map, error)
func parseLogLevelFlags(flags []string, environ []string) (string, map[string]string, error) {
	result := make(map[string]string)

	for _, envPair := range environ {
		if !strings.HasPrefix(envPair, "LOG_LEVEL_") {
			continue
		}
		parts := strings.SplitN(envPair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		result[convertEnvKeyToPackageName(parts[0])] = parts[1]
	}

	for _, flag := range flags {
		if !strings.Contains(flag, "=") {
			result["default"] = flag
			continue
		}
		parts := strings.SplitN(flag, "=", 2)
		result[parts[0]] = parts[1]
	}

	defaultLevel := "info"
	if level, exists := result["default"]; exists {
		defaultLevel = level
		delete(result, "default")
	}

	if err := validateLogLevel(defaultLevel); err != nil {
		return "", nil, err
	}

	for pkg, level := range result {
		if err := validateLogLevel(level); err != nil {
			return "", nil, fmt.Errorf("invalid log level for package %q: %v", pkg, err)
		}
	}

	return defaultLevel, result, nil
}

// convertEnvKeyToPackageName converts LOG_LEVEL_CONFIG_WATCHER -> config.watcher
func convertEnvKeyToPackageName(envKey string) string {
	name := strings.TrimPrefix(envKey, "LOG_LEVEL_")
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

// validateLogLevel checks if a level string is valid
func validateLogLevel(level string) error {
	if _, err := logging.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	return nil
}
