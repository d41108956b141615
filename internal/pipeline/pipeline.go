// Package pipeline wires extraction, rendering and the optional publishing
// steps (upload, run history, webhooks) shared by the CLI, the HTTP server
// and watch mode.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/extract"
	"github.com/ccollicutt/ifextract/pkg/logger"
	"github.com/ccollicutt/ifextract/pkg/objstore"
	"github.com/ccollicutt/ifextract/pkg/output"
	"github.com/ccollicutt/ifextract/pkg/store"
	"github.com/ccollicutt/ifextract/pkg/transcript"
	"github.com/ccollicutt/ifextract/pkg/webhook"
)

// Pipeline runs extractions with one configuration.
type Pipeline struct {
	cfg       *config.Config
	extractor *extract.Extractor
	store     *store.Store
	uploader  *objstore.Uploader
	webhooks  *webhook.Client
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore records every published run in s.
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithUploader uploads every published export through u.
func WithUploader(u *objstore.Uploader) Option {
	return func(p *Pipeline) {
		p.uploader = u
	}
}

// New creates a Pipeline for a validated configuration.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		extractor: cfg.NewExtractor(),
		webhooks:  webhook.NewClient(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Extractor returns the configured extractor.
func (p *Pipeline) Extractor() *extract.Extractor {
	return p.extractor
}

// Store returns the run history, or nil when disabled.
func (p *Pipeline) Store() *store.Store {
	return p.store
}

// Extract runs the extractor over a transcript and builds a report.
func (p *Pipeline) Extract(tr *transcript.Transcript, source string) *output.Report {
	start := time.Now()
	result := p.extractor.Extract(tr.Text)
	if p.cfg.Output.FillUnset {
		result.Table = extract.FillUnset(result.Table, p.extractor.Columns(), p.extractor.Sentinel())
	}

	report := output.NewReport(result, p.extractor.Sentinel(), output.Metadata{
		Source:      source,
		Encoding:    tr.Encoding,
		ExtractedAt: time.Now(),
		Duration:    time.Since(start),
	})

	logger.WithFields(logrus.Fields{
		"source":   source,
		"rows":     report.Summary.Rows,
		"sections": report.Metadata.Sections,
	}).Debug("extraction finished")

	return report
}

// FormatOptions returns the formatter options from the configuration.
func (p *Pipeline) FormatOptions() output.FormatOptions {
	return output.FormatOptions{
		Headers: p.cfg.Output.Headers,
		Sheet:   p.cfg.Output.Sheet,
	}
}

// Render formats a report in memory.
func (p *Pipeline) Render(ctx context.Context, report *output.Report, format string) ([]byte, error) {
	f, err := output.New(format, p.FormatOptions())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Format(ctx, report, &buf); err != nil {
		return nil, fmt.Errorf("formatting output: %w", err)
	}
	return buf.Bytes(), nil
}

// Outcome records what Publish did.
type Outcome struct {
	RunID    uint                `json:"run_id,omitempty"`
	Object   *objstore.Object    `json:"object,omitempty"`
	Webhooks []*webhook.Response `json:"-"`
}

// Publish uploads the rendered export, stores the run and notifies webhooks,
// each only when configured. Webhook failures are logged and never returned.
func (p *Pipeline) Publish(ctx context.Context, report *output.Report, format string, rendered []byte, extra ...config.WebhookConfig) (*Outcome, error) {
	out := &Outcome{}

	if p.uploader != nil {
		obj, err := p.uploader.Upload(ctx, report.Metadata.Source, format, rendered, report.Metadata.ExtractedAt)
		if err != nil {
			return out, fmt.Errorf("uploading export: %w", err)
		}
		out.Object = obj
	}

	if p.store != nil {
		exportURL := ""
		if out.Object != nil {
			exportURL = out.Object.URL
		}
		run, err := p.store.Save(ctx, report, exportURL)
		if err != nil {
			return out, fmt.Errorf("storing run: %w", err)
		}
		out.RunID = run.ID
	}

	payload := webhook.NewPayload(report)
	payload.RunID = out.RunID
	if out.Object != nil {
		payload.ExportURL = out.Object.URL
	}
	hooks := append(append([]config.WebhookConfig{}, p.cfg.Webhooks...), extra...)
	out.Webhooks = p.sendWebhooks(ctx, hooks, payload, report.HasRows())

	return out, nil
}

// sendWebhooks sends the payload to every webhook whose trigger matches.
// Errors are logged but don't fail the run.
func (p *Pipeline) sendWebhooks(ctx context.Context, hooks []config.WebhookConfig, payload *webhook.Payload, hasRows bool) []*webhook.Response {
	var responses []*webhook.Response

	for _, wh := range hooks {
		if !ShouldFireWebhook(wh.Trigger, hasRows) {
			continue
		}

		resp := p.webhooks.Send(ctx, payload, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})
		responses = append(responses, resp)

		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		if resp.Success() {
			logger.Infof("webhook %s: sent (%d, %s)", name, resp.StatusCode, resp.Duration)
		} else {
			logger.Warnf("webhook %s: failed (%v)", name, resp.Error)
		}
	}

	return responses
}

// ShouldFireWebhook determines if a webhook should fire based on trigger and rows.
func ShouldFireWebhook(trigger config.WebhookTrigger, hasRows bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	case config.WebhookTriggerOnRows:
		return hasRows
	default:
		// Default to on_rows
		return hasRows
	}
}
