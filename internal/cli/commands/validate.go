package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/extract"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate an ifextract configuration file without extracting anything.

Checks:
  - YAML syntax
  - Section markers
  - Extra field keys (unique, not shadowing a built-in column)
  - Regex pattern validity
  - Output, log, store, upload and webhook settings

Prints the effective schema of each section: built-in columns followed by
the extra fields from the file.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(w, "\nConfiguration valid!\n")
	_, _ = fmt.Fprintf(w, "  Sentinel:  %s\n", cfg.Sentinel)
	_, _ = fmt.Fprintf(w, "  Output:    %s (headers: %s, fill unset: %t)\n", cfg.Output.Format, cfg.Output.Headers, cfg.Output.FillUnset)
	_, _ = fmt.Fprintf(w, "  Webhooks:  %d\n", len(cfg.Webhooks))
	if cfg.Store.Enabled {
		_, _ = fmt.Fprintf(w, "  Store:     %s\n", cfg.Store.Path)
	}
	if cfg.Upload.Enabled {
		_, _ = fmt.Fprintf(w, "  Upload:    %s/%s\n", cfg.Upload.Endpoint, cfg.Upload.Bucket)
	}

	e := cfg.NewExtractor()
	printSchema(w, e.Schema(extract.SectionConfiguration), cfg.Sections.Configuration.Fields)
	printSchema(w, e.Schema(extract.SectionStatus), cfg.Sections.Status.Fields)

	return nil
}

func printSchema(w io.Writer, s *extract.Schema, extra []config.FieldConfig) {
	isExtra := make(map[string]bool, len(extra))
	for _, f := range extra {
		isExtra[f.Key] = true
	}

	_, _ = fmt.Fprintf(w, "\n%s (marker %q):\n", s.Kind, s.Marker)
	for i, f := range s.Fields {
		tag := ""
		if isExtra[f.Column.Key] {
			tag = "  [extra]"
		}
		_, _ = fmt.Fprintf(w, "  %2d. %-14s %s (%d pattern(s))%s\n", i+1, f.Column.Key, f.Column.Header, len(f.Patterns), tag)
	}
}
