package commands

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/timitprog-hue/buildplan/internal/document"
	"github.com/timitprog-hue/buildplan/internal/logging"
	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/resolver"
)

var (
	validateInputFormat string
	validateJobs        int
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>...",
	Short: "Check that build documents resolve",
	Long: `Validate resolves every given document concurrently and prints one line
per document. The exit code is that of the first failing document in
argument order, or 0 when all documents resolve.`,
	Args: minArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := document.ParseFormat(validateInputFormat)
		if err != nil {
			return usageError(err)
		}
		if validateJobs < 1 {
			return usageError(fmt.Errorf("--jobs must be at least 1, got %d", validateJobs))
		}
		tc, err := loadToolchain()
		if err != nil {
			return err
		}
		return runValidate(cmd.Context(), args, format, tc, validateJobs, cmd.OutOrStdout())
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateInputFormat, "format", "",
		"Document format for all paths (default: detected per file extension)")
	validateCmd.Flags().IntVarP(&validateJobs, "jobs", "j", runtime.NumCPU(),
		"Maximum number of documents resolved concurrently")
}

// validateResult is the outcome for one document
type validateResult struct {
	Path   string
	Digest string
	Err    error
}

// validateDocuments resolves each path with at most jobs in flight.
// Results are returned in path order; every document is attempted.
func validateDocuments(ctx context.Context, paths []string, format document.Format, tc models.Toolchain, jobs int) ([]validateResult, error) {
	results := make([]validateResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateResult{Path: path}

			doc, err := document.Load(path, format)
			if err != nil {
				results[i].Err = err
				return nil
			}
			p, err := resolver.Resolve(doc, tc)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Digest = p.Digest
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runValidate(ctx context.Context, paths []string, format document.Format, tc models.Toolchain, jobs int, out io.Writer) error {
	logger := logging.GetLogger("cli.validate")

	results, err := validateDocuments(ctx, paths, format, tc, jobs)
	if err != nil {
		return err
	}

	var firstErr error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(out, "FAIL %s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(out, "ok   %s %s\n", r.Path, r.Digest)
	}

	logger.DebugWithFields("validation finished",
		logging.Field("documents", len(results)),
		logging.Field("failed", failed),
		logging.Field("jobs", jobs),
	)

	if firstErr != nil {
		return &ExitError{
			Code: ExitCode(firstErr),
			Err:  fmt.Errorf("%d of %d documents failed", failed, len(results)),
		}
	}
	return nil
}
