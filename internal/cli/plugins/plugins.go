// Package plugins provides exec-based plugin support for ifextract.
// Plugins are separate binaries named ifextract-<command> that are discovered
// and executed when an unknown command is invoked.
//
// A plugin runs with the effective ifextract settings in its environment
// (see Context), so a collector can write transcripts that the same
// configuration extracts, or call back into ifextract with that config.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/ifextract/pkg/config"
)

const (
	binaryName = "ifextract"
	prefix     = binaryName + "-"
	pluginsDir = "." + binaryName
)

// KnownPlugins lists plugins that have official implementations available.
// These get special error messages describing what they do.
var KnownPlugins = map[string]string{
	"collect": "Collects display transcripts from devices over SSH and hands them to ifextract.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// FindPlugin searches for a plugin binary named ifextract-<command>.
// It searches in the following locations in order:
//  1. Same directory as the ifextract binary
//  2. ~/.ifextract/plugins/
//  3. Anywhere in PATH
//
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	pluginName := prefix + command

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(homeDir, pluginsDir, "plugins", pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Environment variables set for plugins in addition to the config overrides
// (config.EnvSentinel, config.EnvLogLevel, config.EnvOutputFormat).
const (
	EnvConfigurationMarker = "IFEXTRACT_CONFIGURATION_MARKER"
	EnvStatusMarker        = "IFEXTRACT_STATUS_MARKER"
	EnvVersion             = "IFEXTRACT_VERSION"
)

// Context is the ifextract state handed to a plugin.
type Context struct {
	ConfigPath          string
	Sentinel            string
	LogLevel            string
	OutputFormat        string
	ConfigurationMarker string
	StatusMarker        string
	Version             string
}

// NewContext describes cfg, loaded from configPath ("" for defaults).
// The path is made absolute so it survives a plugin changing directory.
func NewContext(configPath string, cfg *config.Config, version string) Context {
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
	}
	return Context{
		ConfigPath:          configPath,
		Sentinel:            cfg.Sentinel,
		LogLevel:            cfg.Log.Level,
		OutputFormat:        cfg.Output.Format,
		ConfigurationMarker: cfg.Sections.Configuration.Marker,
		StatusMarker:        cfg.Sections.Status.Marker,
		Version:             version,
	}
}

// Environ returns the context as KEY=value pairs. Empty values are left out.
func (c Context) Environ() []string {
	pairs := []struct{ key, value string }{
		{config.EnvConfigPath, c.ConfigPath},
		{config.EnvSentinel, c.Sentinel},
		{config.EnvLogLevel, c.LogLevel},
		{config.EnvOutputFormat, c.OutputFormat},
		{EnvConfigurationMarker, c.ConfigurationMarker},
		{EnvStatusMarker, c.StatusMarker},
		{EnvVersion, c.Version},
	}

	env := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			env = append(env, p.key+"="+p.value)
		}
	}
	return env
}

// Execute runs a plugin with the given arguments and the context in its
// environment. It connects stdin, stdout, and stderr to the plugin process
// and returns the plugin's exit code.
func Execute(pluginPath string, args []string, pc Context) int {
	cmd := exec.Command(pluginPath, args...)
	cmd.Env = append(os.Environ(), pc.Environ()...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError returns a helpful error message when a plugin is not found.
// If the command is a known plugin, includes what it does.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("unknown command %q for %q\n", command, binaryName))

	if info, ok := KnownPlugins[command]; ok {
		sb.WriteString(fmt.Sprintf("\n%q is available as a plugin.\n", command))
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	sb.WriteString(fmt.Sprintf("  - %s%s in the same directory as %s\n", prefix, command, binaryName))
	sb.WriteString(fmt.Sprintf("  - ~/%s/plugins/%s%s\n", pluginsDir, prefix, command))
	sb.WriteString(fmt.Sprintf("  - %s%s anywhere in your PATH\n", prefix, command))

	sb.WriteString(fmt.Sprintf("\nPlugins read the configuration named by %s.\n", config.EnvConfigPath))
	sb.WriteString(fmt.Sprintf("\nRun '%s --help' for usage.", binaryName))

	return sb.String()
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.Mode().IsRegular() {
		return info.Mode()&0o111 != 0
	}

	return false
}
