package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// maxSheetName is the longest worksheet name spreadsheet applications accept.
const maxSheetName = 31

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML data on top of the defaults, applies environment
// overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is set and falls back to the validated
// defaults otherwise.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and compiles field patterns.
func Validate(cfg *Config) error {
	if cfg.Sentinel == "" {
		return errors.New("sentinel: must not be empty")
	}

	seen := builtinKeys()
	if err := validateSection(&cfg.Sections.Configuration, seen); err != nil {
		return fmt.Errorf("sections.configuration: %w", err)
	}
	if err := validateSection(&cfg.Sections.Status, seen); err != nil {
		return fmt.Errorf("sections.status: %w", err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if cfg.Store.Enabled && cfg.Store.Path == "" {
		return errors.New("store: path is required when enabled")
	}

	if err := validateUpload(&cfg.Upload); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if cfg.Server.Listen == "" {
		return errors.New("server: listen is required")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func builtinKeys() map[string]bool {
	seen := make(map[string]bool)
	for _, c := range extract.New().Columns() {
		seen[c.Key] = true
	}
	return seen
}

func validateSection(sec *SectionConfig, seen map[string]bool) error {
	sec.Marker = strings.TrimSpace(sec.Marker)
	if sec.Marker == "" {
		return errors.New("marker is required")
	}

	for i := range sec.Fields {
		if err := validateField(&sec.Fields[i], seen); err != nil {
			return fmt.Errorf("fields[%d] (%s): %w", i, sec.Fields[i].Key, err)
		}
	}
	return nil
}

func validateField(f *FieldConfig, seen map[string]bool) error {
	if f.Key == "" {
		return errors.New("key is required")
	}
	if seen[f.Key] {
		return fmt.Errorf("key %q is already defined", f.Key)
	}
	seen[f.Key] = true

	if len(f.Patterns) == 0 {
		return errors.New("at least one pattern is required")
	}

	f.compiled = make([]extract.Pattern, 0, len(f.Patterns))
	for i, expr := range f.Patterns {
		p, err := extract.NewPattern(expr)
		if err != nil {
			return fmt.Errorf("patterns[%d]: %w", i, err)
		}
		f.compiled = append(f.compiled, p)
	}
	return nil
}

func validateOutput(out *OutputConfig) error {
	out.Format = strings.ToLower(out.Format)
	switch out.Format {
	case FormatXLSX, FormatCSV, FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid format %q (must be xlsx, csv, json, or text)", out.Format)
	}

	switch out.Headers {
	case "":
		out.Headers = HeadersLabel
	case HeadersLabel, HeadersKey:
	default:
		return fmt.Errorf("invalid headers %q (must be label or key)", out.Headers)
	}

	if out.Sheet == "" {
		out.Sheet = DefaultSheet
	}
	if len([]rune(out.Sheet)) > maxSheetName {
		return fmt.Errorf("sheet name %q is longer than %d characters", out.Sheet, maxSheetName)
	}
	if strings.ContainsAny(out.Sheet, `:\/?*[]`) {
		return fmt.Errorf("sheet name %q contains a reserved character", out.Sheet)
	}
	return nil
}

func validateLog(l *LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid level %q", l.Level)
	}

	switch l.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", l.Format)
	}

	switch l.Output {
	case "", "console":
	case "file", "both":
		if l.FilePath == "" {
			return fmt.Errorf("file_path is required for output %q", l.Output)
		}
	default:
		return fmt.Errorf("invalid output %q (must be console, file, or both)", l.Output)
	}
	return nil
}

func validateUpload(u *UploadConfig) error {
	u.AccessKey = expandEnvVar(u.AccessKey)
	u.SecretKey = expandEnvVar(u.SecretKey)

	if u.Timeout <= 0 {
		u.Timeout = DefaultUploadTimeout
	}

	if !u.Enabled {
		return nil
	}
	if u.Endpoint == "" {
		return errors.New("endpoint is required when enabled")
	}
	if strings.Contains(u.Endpoint, "://") {
		return fmt.Errorf("endpoint %q must be host[:port] without a scheme", u.Endpoint)
	}
	if u.Bucket == "" {
		return errors.New("bucket is required when enabled")
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnRows
	case WebhookTriggerOnRows, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_rows, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
