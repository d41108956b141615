package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/internal/server"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	Listen string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Long: `Run an HTTP server that extracts interface tables from uploaded transcripts.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/extract?format=json|csv|xlsx|text&publish=true
  GET  /api/v1/runs
  GET  /api/v1/runs/:id

The run endpoints need store.enabled in the configuration. With
publish=true the export is uploaded, stored and sent to webhooks exactly
as the extract command does.

Example:
  ifextract serve -c ifextract.yaml
  curl -F file=@core-sw1.log 'localhost:8080/api/v1/extract?format=csv'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Listen, "listen", "l", "", "Listen address (overrides server.listen)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
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
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	p, cleanup, err := newPipeline(cfg, true)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.New(p, Version).Run(ctx, cfg.Server.Listen)
}
