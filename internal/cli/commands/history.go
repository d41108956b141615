package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/pkg/extract"
	"github.com/ccollicutt/ifextract/pkg/output"
	"github.com/ccollicutt/ifextract/pkg/store"
)

// HistoryOptions holds command-line options for the history command.
type HistoryOptions struct {
	Limit  int
	Format string
	Delete bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored extraction runs or show one",
		Long: `List the extraction runs recorded in the history store, newest first,
or print the table of one run.

Requires store.enabled in the configuration.

Example:
  ifextract history
  ifextract history 12
  ifextract history 12 --format csv > run12.csv
  ifextract history 12 --delete`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", store.DefaultListLimit, "Number of runs to list")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format for a single run (text|json|csv)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "Delete the given run")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return errors.New("history store is disabled (set store.enabled in the configuration)")
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		if opts.Delete {
			return errors.New("--delete needs a run id")
		}
		runs, err := s.List(ctx, opts.Limit)
		if err != nil {
			return err
		}
		printRuns(w, runs)
		return nil
	}

	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	if opts.Delete {
		if err := s.Delete(ctx, uint(id)); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Deleted run %d\n", id)
		return nil
	}

	run, err := s.Get(ctx, uint(id))
	if err != nil {
		return err
	}
	return printRun(ctx, w, run, cfg.Sentinel, opts.Format)
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs stored.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tROWS\tSECTIONS\tSOURCE")
	for _, r := range runs {
		sections := r.Sections
		if sections == "" {
			sections = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Rows, sections, r.Source)
	}
	_ = tw.Flush()
}

func printRun(ctx context.Context, w io.Writer, run *store.Run, sentinel, format string) error {
	if format == "xlsx" {
		return errors.New("xlsx is not supported here; use text, json or csv")
	}

	table, err := run.Table()
	if err != nil {
		return err
	}

	report := &output.Report{
		Metadata: output.Metadata{
			Source:      run.Source,
			Encoding:    run.Encoding,
			Sections:    run.SectionKinds(),
			ExtractedAt: run.CreatedAt,
		},
		Summary: output.Summary{
			Rows:                 run.Rows,
			ConfigurationRecords: run.ConfigurationRecords,
			StatusRecords:        run.StatusRecords,
			Columns:              extract.CaptureStats(table, sentinel),
		},
		Table: table,
	}

	f, err := output.New(format, output.FormatOptions{})
	if err != nil {
		return err
	}
	return f.Format(ctx, report, w)
}
