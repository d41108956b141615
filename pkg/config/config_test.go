package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
sentinel: "N/A"
sections:
  configuration:
    marker: "dis cur"
    fields:
      - key: mtu
        header: MTU
        patterns:
          - '(?m)^\s*mtu (\d+)'
  status:
    marker: "dis int"
output:
  format: csv
  headers: key
  fill_unset: true
webhooks:
  - name: ops
    url: "https://example.com/hook"
    timeout: 30s
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sentinel != "N/A" {
		t.Errorf("Sentinel = %q, want N/A", cfg.Sentinel)
	}
	if cfg.Sections.Configuration.Marker != "dis cur" {
		t.Errorf("configuration marker = %q", cfg.Sections.Configuration.Marker)
	}
	if len(cfg.Sections.Configuration.Fields) != 1 {
		t.Fatalf("Fields = %d, want 1", len(cfg.Sections.Configuration.Fields))
	}
	if n := len(cfg.Sections.Configuration.Fields[0].CompiledPatterns()); n != 1 {
		t.Errorf("CompiledPatterns() = %d, want 1", n)
	}
	if cfg.Output.Format != FormatCSV || cfg.Output.Headers != HeadersKey || !cfg.Output.FillUnset {
		t.Errorf("Output = %+v", cfg.Output)
	}
	// Unset sections keep their defaults.
	if cfg.Output.Sheet != DefaultSheet {
		t.Errorf("Sheet = %q, want default", cfg.Output.Sheet)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnRows {
		t.Errorf("Trigger = %v, want on_rows", cfg.Webhooks[0].Trigger)
	}
	if cfg.Webhooks[0].Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Webhooks[0].Timeout)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoadOrDefault_NoPath(t *testing.T) {
	cfg, err := LoadOrDefault(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Sentinel != extract.NotCaptured {
		t.Errorf("Sentinel = %q, want default", cfg.Sentinel)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Sections.Configuration.Marker != extract.DefaultConfigurationMarker {
		t.Errorf("configuration marker = %q", cfg.Sections.Configuration.Marker)
	}
	if cfg.Sections.Status.Marker != extract.DefaultStatusMarker {
		t.Errorf("status marker = %q", cfg.Sections.Status.Marker)
	}
	if cfg.Output.Format != FormatXLSX {
		t.Errorf("Output.Format = %q, want xlsx", cfg.Output.Format)
	}
	if cfg.Store.Enabled || cfg.Upload.Enabled {
		t.Error("store and upload should be disabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(DefaultConfig()) error = %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty sentinel",
			mutate:  func(c *Config) { c.Sentinel = "" },
			wantErr: "sentinel",
		},
		{
			name:    "empty marker",
			mutate:  func(c *Config) { c.Sections.Status.Marker = "  " },
			wantErr: "sections.status: marker is required",
		},
		{
			name: "field without key",
			mutate: func(c *Config) {
				c.Sections.Configuration.Fields = []FieldConfig{{Patterns: []string{`mtu (\d+)`}}}
			},
			wantErr: "sections.configuration: fields[0]",
		},
		{
			name: "field shadows built-in column",
			mutate: func(c *Config) {
				c.Sections.Status.Fields = []FieldConfig{{Key: extract.KeyCRC, Patterns: []string{`CRC: (\S+)`}}}
			},
			wantErr: "already defined",
		},
		{
			name: "duplicate extra field across sections",
			mutate: func(c *Config) {
				c.Sections.Configuration.Fields = []FieldConfig{{Key: "mtu", Patterns: []string{`mtu (\d+)`}}}
				c.Sections.Status.Fields = []FieldConfig{{Key: "mtu", Patterns: []string{`MTU (\d+)`}}}
			},
			wantErr: "sections.status: fields[0] (mtu)",
		},
		{
			name: "field without patterns",
			mutate: func(c *Config) {
				c.Sections.Status.Fields = []FieldConfig{{Key: "mtu"}}
			},
			wantErr: "at least one pattern",
		},
		{
			name: "invalid pattern",
			mutate: func(c *Config) {
				c.Sections.Status.Fields = []FieldConfig{{Key: "mtu", Patterns: []string{`mtu (\d+`}}}
			},
			wantErr: "patterns[0]",
		},
		{
			name:    "bad output format",
			mutate:  func(c *Config) { c.Output.Format = "pdf" },
			wantErr: "output: invalid format",
		},
		{
			name:    "bad headers",
			mutate:  func(c *Config) { c.Output.Headers = "both" },
			wantErr: "output: invalid headers",
		},
		{
			name:    "sheet too long",
			mutate:  func(c *Config) { c.Output.Sheet = strings.Repeat("x", 32) },
			wantErr: "sheet name",
		},
		{
			name:    "sheet reserved character",
			mutate:  func(c *Config) { c.Output.Sheet = "a/b" },
			wantErr: "reserved character",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log: invalid level",
		},
		{
			name:    "log file without path",
			mutate:  func(c *Config) { c.Log.Output = "file"; c.Log.FilePath = "" },
			wantErr: "log: file_path",
		},
		{
			name:    "store without path",
			mutate:  func(c *Config) { c.Store.Enabled = true; c.Store.Path = "" },
			wantErr: "store: path",
		},
		{
			name:    "upload without endpoint",
			mutate:  func(c *Config) { c.Upload.Enabled = true; c.Upload.Bucket = "b" },
			wantErr: "upload: endpoint",
		},
		{
			name:    "upload endpoint with scheme",
			mutate:  func(c *Config) { c.Upload = UploadConfig{Enabled: true, Endpoint: "http://minio:9000", Bucket: "b"} },
			wantErr: "without a scheme",
		},
		{
			name:    "upload without bucket",
			mutate:  func(c *Config) { c.Upload = UploadConfig{Enabled: true, Endpoint: "minio:9000"} },
			wantErr: "upload: bucket",
		},
		{
			name:    "server without listen",
			mutate:  func(c *Config) { c.Server.Listen = "" },
			wantErr: "server: listen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FieldHeaderDefaultsToKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sections.Status.Fields = []FieldConfig{{Key: "mtu", Patterns: []string{`MTU (\d+)`}}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	spec := cfg.Sections.Status.Fields[0].Spec()
	if spec.Column.Header != "mtu" {
		t.Errorf("Header = %q, want key", spec.Column.Header)
	}
}

func TestValidate_Webhook_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{
		{Name: "primary", URL: "https://hooks.example.com/ifextract", Trigger: WebhookTriggerAlways},
		{URL: "http://localhost:8080/hook"},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerOnRows {
		t.Errorf("default trigger = %v, want on_rows", cfg.Webhooks[1].Trigger)
	}
	if cfg.Webhooks[1].Timeout != DefaultWebhookTimeout {
		t.Errorf("default timeout = %v, want %v", cfg.Webhooks[1].Timeout, DefaultWebhookTimeout)
	}
}

func TestValidate_Webhook_Errors(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
	}{
		{"missing url", WebhookConfig{}},
		{"ftp scheme", WebhookConfig{URL: "ftp://example.com/hook"}},
		{"no host", WebhookConfig{URL: "https:///hook"}},
		{"bad trigger", WebhookConfig{URL: "https://example.com", Trigger: "on_issues"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), "webhooks[0]") {
				t.Errorf("error %q should name the webhook", err)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvSentinel, "--")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvOutputFormat, "JSON")

	cfg, err := Parse([]byte("sentinel: ignored\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Sentinel != "--" {
		t.Errorf("Sentinel = %q, want env override", cfg.Sentinel)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Output.Format != FormatJSON {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		got := expandEnvVar(tt.input)
		if got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidate_UploadExpandsCredentials(t *testing.T) {
	t.Setenv("TEST_MINIO_SECRET", "s3cr3t")

	cfg := DefaultConfig()
	cfg.Upload = UploadConfig{
		Enabled:   true,
		Endpoint:  "minio:9000",
		Bucket:    "exports",
		AccessKey: "admin",
		SecretKey: "${TEST_MINIO_SECRET}",
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Upload.SecretKey != "s3cr3t" {
		t.Errorf("SecretKey = %q, want expanded value", cfg.Upload.SecretKey)
	}
	if cfg.Upload.Timeout != DefaultUploadTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Upload.Timeout)
	}
}

func TestNewExtractor(t *testing.T) {
	content := `
sentinel: "-"
sections:
  configuration:
    marker: "dis cur"
  status:
    fields:
      - key: mtu
        header: MTU
        patterns: ['The Maximum Transmit Unit is (\d+)']
      - key: flow_control
        patterns: ['Flow-control \w+']
`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	e := cfg.NewExtractor()
	if e.Sentinel() != "-" {
		t.Errorf("Sentinel() = %q", e.Sentinel())
	}
	if got := e.Schema(extract.SectionConfiguration).Marker; got != "dis cur" {
		t.Errorf("configuration marker = %q", got)
	}
	if got := e.Schema(extract.SectionStatus).Marker; got != extract.DefaultStatusMarker {
		t.Errorf("status marker = %q, want default", got)
	}
	if n := len(e.Columns()); n != 16 {
		t.Errorf("Columns() = %d, want 16", n)
	}

	tr := "<r>display interface\nGE0/0/1 current state : UP\nThe Maximum Transmit Unit is 1500\nFlow-control disabled\n\n"
	ds := e.Status(tr)
	if len(ds.Records) != 1 || ds.Records[0]["mtu"] != "1500" {
		t.Fatalf("Records = %v", ds.Records)
	}
	// No capture group: the whole match is the value.
	if got := ds.Records[0]["flow_control"]; got != "Flow-control disabled" {
		t.Errorf("flow_control = %q, want whole match", got)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
