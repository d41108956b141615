package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/internal/pipeline"
	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/logger"
	"github.com/ccollicutt/ifextract/pkg/transcript"
	"github.com/ccollicutt/ifextract/pkg/watch"
)

// WatchOptions holds command-line options for the watch command.
type WatchOptions struct {
	OutputDir string
	Format    string
	Debounce  time.Duration
	NoInitial bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <transcript>...",
		Short: "Re-extract transcripts whenever they change",
		Long: `Watch session logs and write a fresh export every time one is saved.

Each path may be a glob. Exports are written next to the transcript (or
into --output-dir) with the transcript's base name and the extension of
the output format. When that name is the transcript itself or matches a
watched pattern, ".ifextract" is inserted before the extension, and files
named that way are never re-extracted. Every export is published like the extract command
does: stored, uploaded and sent to webhooks when configured.

Runs until interrupted.

Example:
  ifextract watch 'captures/*.log' --output-dir exports
  ifextract watch core-sw1.log --format csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "d", "", "Directory for exports (default: beside each transcript)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (xlsx|csv|json|text); default from the configuration")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "Quiet period before a changed file is processed")
	cmd.Flags().BoolVar(&opts.NoInitial, "no-initial", false, "Do not process existing files at startup")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = cfg.Output.Format
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	p, cleanup, err := newPipeline(cfg, true)
	if err != nil {
		return err
	}
	defer cleanup()

	var w *watch.Watcher
	handler := func(ctx context.Context, path string) {
		if isExport(path) {
			logger.WithField("path", path).Debug("skipping generated export")
			return
		}
		dest, err := processTranscript(ctx, p, path, format, opts.OutputDir, w.Matches)
		if err != nil {
			logger.WithField("path", path).Errorf("extraction failed: %v", err)
			return
		}
		logger.WithFields(logrus.Fields{"path": path, "export": dest}).Info("export written")
	}

	w, err = watch.New(args, handler, watch.WithDebounce(opts.Debounce))
	if err != nil {
		return err
	}

	if !opts.NoInitial {
		files, err := transcript.ExpandPaths(args)
		if err != nil {
			return err
		}
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				continue
			}
			handler(ctx, f)
		}
	}

	logger.Infof("watching %s", strings.Join(args, ", "))
	return w.Run(ctx)
}

// processTranscript extracts one transcript, writes the export and publishes
// it. It returns the export path.
func processTranscript(ctx context.Context, p *pipeline.Pipeline, path, format, outDir string, watched func(string) bool) (string, error) {
	tr, err := transcript.Read(path)
	if err != nil {
		return "", err
	}

	report := p.Extract(tr, path)
	rendered, err := p.Render(ctx, report, format)
	if err != nil {
		return "", err
	}

	dest := exportPath(path, format, outDir, watched)
	// #nosec G306 - exported tables don't need restrictive permissions
	if err := os.WriteFile(dest, rendered, 0644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	if _, err := p.Publish(ctx, report, format, rendered); err != nil {
		return dest, err
	}
	return dest, nil
}

// exportSuffix marks exports that would otherwise overwrite the transcript
// or be picked up by the watch patterns.
const exportSuffix = ".ifextract"

// exportPath names the export for a transcript: its base name with the
// format's extension, in outDir or beside the transcript. The name gets
// exportSuffix when it would be the transcript itself or a watched file.
func exportPath(path, format, outDir string, watched func(string) bool) string {
	ext := "." + format
	if format == config.FormatText {
		ext = ".txt"
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	dest := filepath.Join(dir, base+ext)
	if samePath(dest, path) || (watched != nil && watched(dest)) {
		dest = filepath.Join(dir, base+exportSuffix+ext)
	}
	return dest
}

// isExport reports whether path carries exportSuffix before its extension.
func isExport(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), exportSuffix)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
