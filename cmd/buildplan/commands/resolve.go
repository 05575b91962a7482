package commands

import (
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/timitprog-hue/buildplan/internal/document"
	"github.com/timitprog-hue/buildplan/internal/logging"
	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/plan"
	"github.com/timitprog-hue/buildplan/internal/resolver"
)

var (
	resolveInputFormat  string
	resolveOutputFormat string
	resolveOutFile      string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a build document into a build plan",
	Long: `Resolve reads a build document, validates it against the toolchain and
prints the resolved build plan.

Exit codes: 0 success, 1 I/O or parse failure, 2 usage error,
3 validation error, 4 range error.`,
	Example: `  buildplan resolve app/build.yaml
  buildplan resolve android/app/build.gradle.kts --property flutter.minSdkVersion=21 -o text
  buildplan resolve build.hcl --out-file plan.cbor`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := newResolveOptions(cmd)
		if err != nil {
			return err
		}
		tc, err := loadToolchain()
		if err != nil {
			return err
		}
		return runResolve(args[0], tc, opts, cmd.OutOrStdout())
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveInputFormat, "format", "",
		"Document format: yaml, jsonc, hcl or gradle (default: detected from the file extension)")
	resolveCmd.Flags().StringVarP(&resolveOutputFormat, "output", "o", string(plan.FormatJSON),
		"Plan output format: json, yaml, cbor or text")
	resolveCmd.Flags().StringVar(&resolveOutFile, "out-file", "",
		"Write the plan atomically to this file instead of stdout (format follows the extension unless --output is set)")
}

// resolveOptions are the parsed flags of the resolve command
type resolveOptions struct {
	InputFormat  document.Format
	OutputFormat plan.Format
	OutFile      string
}

func newResolveOptions(cmd *cobra.Command) (resolveOptions, error) {
	inputFormat, err := document.ParseFormat(resolveInputFormat)
	if err != nil {
		return resolveOptions{}, usageError(err)
	}

	outputFormat, err := plan.ParseFormat(resolveOutputFormat)
	if err != nil {
		return resolveOptions{}, usageError(err)
	}
	if resolveOutFile != "" && !cmd.Flags().Changed("output") {
		outputFormat = plan.FormatForPath(resolveOutFile)
	}

	return resolveOptions{
		InputFormat:  inputFormat,
		OutputFormat: outputFormat,
		OutFile:      resolveOutFile,
	}, nil
}

// runResolve loads, resolves and emits one document
func runResolve(path string, tc models.Toolchain, opts resolveOptions, out io.Writer) error {
	logger := logging.GetLogger("cli.resolve").WithFields(
		logging.Field("invocation_id", uuid.NewString()),
		logging.Field("path", path),
	)

	doc, err := document.Load(path, opts.InputFormat)
	if err != nil {
		return err
	}
	logger.DebugWithFields("document loaded", logging.Field("keys", len(doc)))

	p, err := resolver.Resolve(doc, tc)
	if err != nil {
		logger.DebugWithFields("resolution failed", logging.Field("error", err))
		return err
	}

	if opts.OutFile != "" {
		if err := plan.WriteFile(opts.OutFile, p, opts.OutputFormat); err != nil {
			return err
		}
		logger.InfoWithFields("plan written",
			logging.Field("out_file", opts.OutFile),
			logging.Field("format", opts.OutputFormat),
			logging.Field("digest", p.Digest),
		)
		return nil
	}

	if err := plan.Encode(out, p, opts.OutputFormat); err != nil {
		return err
	}
	logger.DebugWithFields("plan printed", logging.Field("digest", p.Digest))
	return nil
}
