package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/timitprog-hue/buildplan/internal/config"
	"github.com/timitprog-hue/buildplan/internal/document"
	"github.com/timitprog-hue/buildplan/internal/logging"
	"github.com/timitprog-hue/buildplan/internal/models"
	"github.com/timitprog-hue/buildplan/internal/plan"
	"github.com/timitprog-hue/buildplan/internal/resolver"
)

var (
	watchInputFormat  string
	watchOutputFormat string
	watchOutFile      string
	watchDebounce     time.Duration
	watchCacheSize    int
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Re-resolve a build document whenever it changes",
	Long: `Watch resolves a build document, writes the plan to --out-file and keeps
rewriting it each time the document changes on disk. Documents that fail
to load or resolve are reported and the last good plan is kept.`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchOutFile == "" {
			return usageError(errors.New("--out-file is required"))
		}
		inputFormat, err := document.ParseFormat(watchInputFormat)
		if err != nil {
			return usageError(err)
		}
		outputFormat := plan.FormatForPath(watchOutFile)
		if cmd.Flags().Changed("output") {
			if outputFormat, err = plan.ParseFormat(watchOutputFormat); err != nil {
				return usageError(err)
			}
		}
		tc, err := loadToolchain()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, args[0], tc, watchOptions{
			InputFormat:  inputFormat,
			OutputFormat: outputFormat,
			OutFile:      watchOutFile,
			Debounce:     watchDebounce,
			CacheSize:    watchCacheSize,
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchInputFormat, "format", "",
		"Document format: yaml, jsonc, hcl or gradle (default: detected from the file extension)")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "",
		"Plan file format: json, yaml, cbor or text (default: from the --out-file extension)")
	watchCmd.Flags().StringVar(&watchOutFile, "out-file", "", "Plan file to keep up to date (required)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", config.DefaultDebounceMillis*time.Millisecond,
		"Quiet period after a change before the document is reloaded")
	watchCmd.Flags().IntVar(&watchCacheSize, "cache-size", 16,
		"Number of resolved plans kept for previously seen document contents")
}

// watchOptions are the parsed flags of the watch command
type watchOptions struct {
	InputFormat  document.Format
	OutputFormat plan.Format
	OutFile      string
	Debounce     time.Duration
	CacheSize    int
}

// planSink resolves reloaded documents through a cache and rewrites the
// plan file when the resolved plan changes
type planSink struct {
	cache      *resolver.Cache
	opts       watchOptions
	logger     *logging.Logger
	mu         sync.Mutex
	lastDigest string
}

func (s *planSink) update(doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, cached, err := s.cache.Resolve(doc)
	if err != nil {
		// Keep watching; the document is likely mid-edit
		s.logger.ErrorWithFields("document does not resolve, keeping previous plan",
			logging.Field("error", err),
			logging.Field("exit_code", ExitCode(err)),
		)
		return nil
	}

	if p.Digest == s.lastDigest {
		s.logger.DebugWithFields("plan unchanged", logging.Field("cached", cached))
		return nil
	}

	if err := plan.WriteFile(s.opts.OutFile, p, s.opts.OutputFormat); err != nil {
		return err
	}
	s.lastDigest = p.Digest

	hits, misses := s.cache.Stats()
	s.logger.InfoWithFields("plan written",
		logging.Field("out_file", s.opts.OutFile),
		logging.Field("digest", p.Digest),
		logging.Field("cached", cached),
		logging.Field("cache_hits", hits),
		logging.Field("cache_misses", misses),
	)
	return nil
}

// runWatch blocks until ctx is cancelled
func runWatch(ctx context.Context, path string, tc models.Toolchain, opts watchOptions) error {
	if opts.CacheSize < 1 {
		return usageError(fmt.Errorf("--cache-size must be at least 1, got %d", opts.CacheSize))
	}

	cache, err := resolver.NewCache(tc, opts.CacheSize)
	if err != nil {
		return err
	}

	logger := logging.GetLogger("cli.watch").WithFields(
		logging.Field("invocation_id", uuid.NewString()),
		logging.Field("path", path),
	)
	sink := &planSink{cache: cache, opts: opts, logger: logger}

	watcher, err := config.NewDocumentWatcher(config.DocumentWatcherConfig{
		FilePath:       path,
		Format:         opts.InputFormat,
		DebounceMillis: int(opts.Debounce / time.Millisecond),
	}, sink.update)
	if err != nil {
		return usageError(err)
	}

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return watcher.Stop()
}
