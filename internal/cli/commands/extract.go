package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/internal/pipeline"
	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/logger"
	"github.com/ccollicutt/ifextract/pkg/objstore"
	"github.com/ccollicutt/ifextract/pkg/output"
	"github.com/ccollicutt/ifextract/pkg/store"
	"github.com/ccollicutt/ifextract/pkg/transcript"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// Global is bound to the root command's persistent flags.
var Global = &GlobalOptions{}

// loadConfig loads the configuration named by --config (or the defaults)
// and initializes logging from it.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, Global.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if Global.LogLevel != "" {
		cfg.Log.Level = Global.LogLevel
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, nil
}

// newPipeline builds a pipeline with the store and uploader the
// configuration enables. The returned cleanup closes the store.
func newPipeline(cfg *config.Config, useStore bool) (*pipeline.Pipeline, func(), error) {
	var opts []pipeline.Option
	cleanup := func() {}

	if useStore && cfg.Store.Enabled {
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pipeline.WithStore(s))
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger.Warnf("closing store: %v", err)
			}
		}
	}

	if cfg.Upload.Enabled {
		u, err := objstore.New(cfg.Upload)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("creating uploader: %w", err)
		}
		opts = append(opts, pipeline.WithUploader(u))
	}

	return pipeline.New(cfg, opts...), cleanup, nil
}

// ExtractOptions holds command-line options for the extract command.
type ExtractOptions struct {
	Input     string
	Output    string
	Format    string
	Headers   string
	Sheet     string
	FillUnset bool
	NoStore   bool
	Quiet     bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the interface table from a session log",
		Long: `Extract per-interface metadata from a saved device session log.

The transcript must contain the output of "display current-configuration",
"display interface", or both. Rows are joined on the interface name; cells
that could not be found hold the configured sentinel.

When --input or --output is omitted you are prompted for it. The output
format follows the file extension (.xlsx, .csv, .json, .txt) unless
--format is given; "-" writes to stdout.

Exit codes:
  0 - At least one interface extracted
  1 - No interface rows found
  2 - Configuration or runtime error

Example:
  ifextract extract -i core-sw1.log -o core-sw1.xlsx
  ifextract extract -i core-sw1.log -o - --format json
  ifextract extract -c ifextract.yaml -i core-sw1.log -o out.csv --fill-unset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Transcript file to read")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `Output file ("-" for stdout)`)
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (xlsx|csv|json|text); default from the output extension")
	cmd.Flags().StringVar(&opts.Headers, "headers", "", "Header row style (label|key)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "Worksheet name for xlsx output")
	cmd.Flags().BoolVar(&opts.FillUnset, "fill-unset", false, "Fill cells with no data on either side with the sentinel")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "Do not record this run in the history store")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no table (text and json)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_rows", "When to fire webhook (on_rows|always|never)")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout := cmd.OutOrStdout()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := applyExtractOverrides(cfg, opts); err != nil {
		return err
	}

	prompt := bufio.NewReader(cmd.InOrStdin())

	if opts.Input == "" {
		if opts.Input, err = promptPath(prompt, cmd.ErrOrStderr(), "Transcript file: "); err != nil {
			return err
		}
	}
	if opts.Output == "" {
		if opts.Output, err = promptPath(prompt, cmd.ErrOrStderr(), "Output file: "); err != nil {
			return err
		}
	}

	tr, err := transcript.Read(opts.Input)
	if err != nil {
		if errors.Is(err, transcript.ErrNotFound) {
			return fmt.Errorf("input file not found: %s", opts.Input)
		}
		return err
	}

	format := resolveFormat(opts, cfg.Output.Format)
	if _, err := output.New(format, output.FormatOptions{}); err != nil {
		return err
	}
	if opts.Output == "-" && format == config.FormatXLSX {
		return errors.New("xlsx cannot be written to stdout; give an output file")
	}

	p, cleanup, err := newPipeline(cfg, !opts.NoStore)
	if err != nil {
		return err
	}
	defer cleanup()

	report := p.Extract(tr, opts.Input)

	rendered, err := p.Render(ctx, report, format)
	if err != nil {
		return err
	}

	toStdout := opts.Output == "-"
	switch {
	case toStdout && opts.Quiet:
		f, err := output.New(format, output.FormatOptions{Quiet: true})
		if err != nil {
			return err
		}
		if err := f.Format(ctx, report, stdout); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
	case toStdout:
		if _, err := stdout.Write(rendered); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	default:
		// #nosec G306 - exported tables don't need restrictive permissions
		if err := os.WriteFile(opts.Output, rendered, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		if !opts.Quiet {
			_, _ = fmt.Fprintf(stdout, "Wrote %d interfaces to %s (%s)\n", report.Summary.Rows, opts.Output, format)
		}
	}

	outcome, err := p.Publish(ctx, report, format, rendered, collectWebhooks(opts)...)
	if err != nil {
		return err
	}
	if !opts.Quiet && !toStdout {
		if outcome.RunID != 0 {
			_, _ = fmt.Fprintf(stdout, "Stored as run %d\n", outcome.RunID)
		}
		if outcome.Object != nil {
			_, _ = fmt.Fprintf(stdout, "Uploaded to %s\n", outcome.Object.URL)
		}
	}

	if !report.HasRows() {
		ExitCode = 1
	}

	return nil
}

// applyExtractOverrides copies flag values over the loaded configuration and
// revalidates it.
func applyExtractOverrides(cfg *config.Config, opts *ExtractOptions) error {
	if opts.FillUnset {
		cfg.Output.FillUnset = true
	}
	if opts.Headers != "" {
		cfg.Output.Headers = opts.Headers
	}
	if opts.Sheet != "" {
		cfg.Output.Sheet = opts.Sheet
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// resolveFormat picks the output format: --format, then the output file
// extension, then text for stdout or the configured default for files.
func resolveFormat(opts *ExtractOptions, def string) string {
	if opts.Format != "" {
		return strings.ToLower(opts.Format)
	}
	if opts.Output == "-" {
		return config.FormatText
	}
	return output.FormatForPath(opts.Output, def)
}

// promptPath asks for a path on w and reads one line from r. An empty
// answer or end of input is an error.
func promptPath(r *bufio.Reader, w io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(w, label)

	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", fmt.Errorf("no %s given", strings.TrimSuffix(strings.ToLower(label), ": "))
	}
	return path, nil
}

// collectWebhooks returns the CLI webhook, if one was given. Configured
// webhooks are added by the pipeline.
func collectWebhooks(opts *ExtractOptions) []config.WebhookConfig {
	if opts.WebhookURL == "" {
		return nil
	}

	trigger := config.WebhookTrigger(opts.WebhookTrigger)
	if trigger == "" {
		trigger = config.WebhookTriggerOnRows
	}

	return []config.WebhookConfig{{
		Name:    "cli",
		URL:     opts.WebhookURL,
		Token:   opts.WebhookToken,
		Trigger: trigger,
		Timeout: config.DefaultWebhookTimeout,
	}}
}
