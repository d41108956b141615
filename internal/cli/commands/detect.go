package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/pkg/detector"
	"github.com/ccollicutt/ifextract/pkg/transcript"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output       string
	ShowCommands bool
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <transcript>...",
		Short: "Detect which display sections a transcript contains",
		Long: `Inspect one or more session logs and report what the extractor would see.

For every transcript this shows:
  - The device name taken from the prompt
  - The commands typed at the prompt, with recognised abbreviations
  - Whether each section marker was found and how many interface
    blocks it yields

Glob patterns are accepted. Exits 1 when no transcript contains either
section.

Example:
  ifextract detect core-sw1.log
  ifextract detect 'captures/*.log' -o json
  ifextract detect --commands core-sw1.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&opts.ShowCommands, "commands", false, "List every command typed at a prompt")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	files, err := transcript.ExpandPaths(args)
	if err != nil {
		return err
	}

	d := detector.New(detector.WithExtractor(cfg.NewExtractor()))

	results := make([]*detector.DetectionResult, 0, len(files))
	for _, f := range files {
		result, err := d.DetectFromFile(ctx, f)
		if err != nil {
			return fmt.Errorf("detection failed: %w", err)
		}
		results = append(results, result)
	}

	anyMatch := false
	for _, r := range results {
		if r.HasMatch() {
			anyMatch = true
		}
	}
	if !anyMatch {
		ExitCode = 1
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(cmd.OutOrStdout(), results)
	default:
		outputDetectText(cmd.OutOrStdout(), results, opts)
		return nil
	}
}

func outputDetectText(w io.Writer, results []*detector.DetectionResult, opts *DetectOptions) {
	_, _ = fmt.Fprintln(w, "=== Section Detection ===")

	for _, r := range results {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "File: %s\n", r.Source)
		if r.Encoding != "" && r.Encoding != "utf-8" {
			_, _ = fmt.Fprintf(w, "Encoding: %s\n", r.Encoding)
		}
		if r.Device != "" {
			_, _ = fmt.Fprintf(w, "Device: %s\n", r.Device)
		} else {
			_, _ = fmt.Fprintln(w, "Device: (no prompt found)")
		}
		_, _ = fmt.Fprintf(w, "Prompts: %d\n", r.Prompts)

		for _, s := range r.Sections {
			if s.Found {
				_, _ = fmt.Fprintf(w, "  [found]   %-13s %q: %d interface blocks\n", s.Kind, s.Marker, s.Chunks)
			} else {
				_, _ = fmt.Fprintf(w, "  [missing] %-13s %q\n", s.Kind, s.Marker)
			}
		}

		if opts.ShowCommands && len(r.Commands) > 0 {
			_, _ = fmt.Fprintln(w, "Commands:")
			for _, c := range r.Commands {
				if c.Known != "" && c.Known != c.Text {
					_, _ = fmt.Fprintf(w, "  %4d  %s  (%s)\n", c.Line, c.Text, c.Known)
				} else {
					_, _ = fmt.Fprintf(w, "  %4d  %s\n", c.Line, c.Text)
				}
			}
		}

		for _, n := range r.Notes {
			_, _ = fmt.Fprintf(w, "Note: %s\n", n)
		}

		if !r.HasMatch() {
			_, _ = fmt.Fprintln(w, "Tip: capture \"display current-configuration\" and \"display interface\" in the same session.")
		}
	}
}

func outputDetectJSON(w io.Writer, results []*detector.DetectionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(results)
}
