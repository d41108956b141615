package config

import (
	"os"
	"strings"
	"time"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultUploadTimeout  = 30 * time.Second
	DefaultSheet          = "interfaces"
	DefaultStorePath      = "./data/ifextract.db"
	DefaultListen         = ":8080"
	DefaultMaxBodyBytes   = 32 << 20
	DefaultLogFile        = "./logs/ifextract.log"
)

// Environment variable names.
const (
	EnvConfigPath   = "IFEXTRACT_CONFIG"
	EnvSentinel     = "IFEXTRACT_SENTINEL"
	EnvLogLevel     = "IFEXTRACT_LOG_LEVEL"
	EnvOutputFormat = "IFEXTRACT_OUTPUT_FORMAT"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sentinel: extract.NotCaptured,
		Sections: SectionsConfig{
			Configuration: SectionConfig{Marker: extract.DefaultConfigurationMarker},
			Status:        SectionConfig{Marker: extract.DefaultStatusMarker},
		},
		Output: OutputConfig{
			Format:  FormatXLSX,
			Headers: HeadersLabel,
			Sheet:   DefaultSheet,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "console",
			FilePath:   DefaultLogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Upload: UploadConfig{
			Timeout: DefaultUploadTimeout,
		},
		Server: ServerConfig{
			Listen:       DefaultListen,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if s := os.Getenv(EnvSentinel); s != "" {
		c.Sentinel = s
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Log.Level = lvl
	}
	if f := os.Getenv(EnvOutputFormat); f != "" {
		c.Output.Format = strings.ToLower(f)
	}
}
