// Package config provides configuration loading and validation for ifextract.
package config

import (
	"time"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Sentinel is written into cells whose field could not be matched.
	Sentinel string `yaml:"sentinel"`

	Sections SectionsConfig  `yaml:"sections"`
	Output   OutputConfig    `yaml:"output"`
	Log      LogConfig       `yaml:"log"`
	Store    StoreConfig     `yaml:"store"`
	Upload   UploadConfig    `yaml:"upload"`
	Server   ServerConfig    `yaml:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// SectionsConfig configures the two recognised display sections.
type SectionsConfig struct {
	Configuration SectionConfig `yaml:"configuration"`
	Status        SectionConfig `yaml:"status"`
}

// SectionConfig configures how one section is located and which extra
// fields are extracted from its chunks.
type SectionConfig struct {
	// Marker is the literal text that starts the section, usually the command.
	Marker string `yaml:"marker"`

	// Fields are appended to the built-in fields of the section.
	Fields []FieldConfig `yaml:"fields,omitempty"`
}

// FieldConfig defines an additional extracted column.
type FieldConfig struct {
	Key    string `yaml:"key"`
	Header string `yaml:"header,omitempty"`

	// Patterns are tried in order; the first match wins. The value is the
	// first non-empty capture group, or the whole match when there is none.
	Patterns []string `yaml:"patterns"`

	// compiled holds the validated patterns (populated during validation).
	compiled []extract.Pattern
}

// CompiledPatterns returns the compiled patterns for this field.
func (f *FieldConfig) CompiledPatterns() []extract.Pattern {
	return f.compiled
}

// Spec converts the field into an extraction FieldSpec.
func (f *FieldConfig) Spec() extract.FieldSpec {
	header := f.Header
	if header == "" {
		header = f.Key
	}
	return extract.FieldSpec{
		Column:   extract.Column{Key: f.Key, Header: header},
		Patterns: f.compiled,
	}
}

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// Header styles.
const (
	HeadersLabel = "label"
	HeadersKey   = "key"
)

// OutputConfig controls how the merged table is rendered.
type OutputConfig struct {
	// Format is the default output format when it cannot be inferred from
	// the output path.
	Format string `yaml:"format"`

	// Headers selects spreadsheet headers: "label" (human-readable) or "key".
	Headers string `yaml:"headers"`

	// FillUnset back-fills unset cells and absent columns with the sentinel.
	FillUnset bool `yaml:"fill_unset"`

	// Sheet is the worksheet name used for xlsx output.
	Sheet string `yaml:"sheet"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// StoreConfig controls the run history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// UploadConfig controls uploading exports to S3-compatible object storage.
type UploadConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	Prefix    string        `yaml:"prefix,omitempty"`
	Secure    bool          `yaml:"secure"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen       string `yaml:"listen"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnRows fires only when at least one interface row was extracted (default).
	WebhookTriggerOnRows WebhookTrigger = "on_rows"
	// WebhookTriggerAlways fires after every extraction.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint that receives run summaries.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_rows" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ExtractorOptions returns the extract options described by the configuration.
// Call it only on a validated Config.
func (c *Config) ExtractorOptions() []extract.Option {
	opts := []extract.Option{
		extract.WithSentinel(c.Sentinel),
		extract.WithConfigurationMarker(c.Sections.Configuration.Marker),
		extract.WithStatusMarker(c.Sections.Status.Marker),
	}
	for i := range c.Sections.Configuration.Fields {
		opts = append(opts, extract.WithExtraFields(extract.SectionConfiguration, c.Sections.Configuration.Fields[i].Spec()))
	}
	for i := range c.Sections.Status.Fields {
		opts = append(opts, extract.WithExtraFields(extract.SectionStatus, c.Sections.Status.Fields[i].Spec()))
	}
	return opts
}

// NewExtractor builds an Extractor from a validated Config.
func (c *Config) NewExtractor() *extract.Extractor {
	return extract.New(c.ExtractorOptions()...)
}
