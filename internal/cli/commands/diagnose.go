package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/extract"
	"github.com/ccollicutt/ifextract/pkg/transcript"
)

// interfaceLine matches the opening line of a configuration interface block.
var interfaceLine = regexp.MustCompile(`(?m)^interface \S+`)

// abbreviations maps long interface type names to the short forms devices
// print in some views. Longer names come first.
var abbreviations = []struct{ long, short string }{
	{"XGigabitEthernet", "XGE"},
	{"GigabitEthernet", "GE"},
	{"Ethernet", "Eth"},
}

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <transcript>",
		Short: "Diagnose why fields are not being captured",
		Long: `Diagnose extraction problems in a session log.

This command checks a transcript against the active configuration:
- Transcript readability and encoding
- Which display sections are present
- Interface blocks that are never closed by a "#" line
- Capture rate of every column
- Interfaces that appear in only one section, with a hint when the
  names differ only by abbreviation (GE vs GigabitEthernet)
- Webhook, store and upload settings

Example:
  ifextract diagnose core-sw1.log
  ifextract diagnose -v -c ifextract.yaml core-sw1.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, path string, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := []DiagnosticResult{}

	// 1. Load configuration
	cfg, result := checkConfig(ctx)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Read the transcript
	tr, result := checkTranscript(path)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	e := cfg.NewExtractor()
	extracted := e.Extract(tr.Text)

	// 3. Section markers
	results = append(results, checkSections(extracted, cfg))

	// 4. Unterminated interface blocks
	if r, ok := checkUnterminatedBlocks(tr.Text, cfg.Sections.Configuration.Marker); ok {
		results = append(results, r)
	}

	// 5. Column capture rates
	if !extracted.Table.Empty() {
		results = append(results, checkCaptureRates(extracted.Table, e.Sentinel(), opts))
	}

	// 6. Join keys
	if r, ok := checkJoinKeys(extracted); ok {
		results = append(results, r)
	}

	// 7. Outbound integrations
	results = append(results, checkWebhooks(cfg, opts)...)
	results = append(results, checkPublishing(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfig(ctx context.Context) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Configuration",
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	if Global.ConfigPath == "" {
		result.Message = "Using built-in defaults"
	} else {
		result.Message = fmt.Sprintf("Loaded %s", Global.ConfigPath)
	}
	result.Details = []string{
		fmt.Sprintf("Configuration marker: %q", cfg.Sections.Configuration.Marker),
		fmt.Sprintf("Status marker: %q", cfg.Sections.Status.Marker),
		fmt.Sprintf("Extra fields: %d", len(cfg.Sections.Configuration.Fields)+len(cfg.Sections.Status.Fields)),
	}
	return cfg, result
}

func checkTranscript(path string) (*transcript.Transcript, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Transcript",
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return nil, result
	}

	tr, err := transcript.Read(path)
	switch {
	case errors.Is(err, transcript.ErrNotFound):
		result.Status = "error"
		result.Message = fmt.Sprintf("Transcript not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return nil, result
	case errors.Is(err, transcript.ErrEmptyInput):
		result.Status = "error"
		result.Message = "Transcript is empty"
		result.Suggests = []string{"Make sure session logging was enabled before running the display commands"}
		return nil, result
	case err != nil:
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read transcript: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Read %s (%d bytes, %s)", path, tr.Size, tr.Encoding)
	if tr.Encoding == "unknown" {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Read %s (%d bytes) but the encoding was not recognised", path, tr.Size)
		result.Suggests = []string{"Re-save the session log as UTF-8 or GBK"}
	}
	return tr, result
}

func checkSections(result *extract.Result, cfg *config.Config) DiagnosticResult {
	r := DiagnosticResult{
		Check: "Sections",
	}

	datasets := []struct {
		ds     *extract.Dataset
		marker string
	}{
		{result.Configuration, cfg.Sections.Configuration.Marker},
		{result.Status, cfg.Sections.Status.Marker},
	}

	found := 0
	for _, d := range datasets {
		if d.ds.Found {
			found++
			r.Details = append(r.Details, fmt.Sprintf("%s: %q found, %d interfaces", d.ds.Kind, d.marker, len(d.ds.Records)))
		} else {
			r.Details = append(r.Details, fmt.Sprintf("%s: %q not found", d.ds.Kind, d.marker))
		}
	}

	switch found {
	case 0:
		r.Status = "error"
		r.Message = "Neither section marker occurs in the transcript"
		r.Suggests = []string{
			"Run 'ifextract detect <transcript>' to see which commands were captured",
			"Set sections.*.marker if the commands were typed differently",
		}
	case 1:
		r.Status = "warning"
		r.Message = "Only one section found; the other side's columns will be missing"
	default:
		r.Status = "ok"
		r.Message = "Both sections found"
	}
	return r
}

// checkUnterminatedBlocks compares the interface lines in the configuration
// section with the blocks the splitter returns. The second result is false
// when the section is absent.
func checkUnterminatedBlocks(text, marker string) (DiagnosticResult, bool) {
	section, ok := extract.Locate(text, marker)
	if !ok {
		return DiagnosticResult{}, false
	}

	lines := interfaceLine.FindAllString(section, -1)
	chunks := extract.SplitConfigurationChunks(section)

	r := DiagnosticResult{
		Check: "Interface Blocks",
	}
	if len(lines) <= len(chunks) {
		r.Status = "ok"
		r.Message = fmt.Sprintf("%d interface blocks, all closed", len(chunks))
		return r, true
	}

	r.Status = "warning"
	r.Message = fmt.Sprintf("%d interface lines but only %d closed blocks", len(lines), len(chunks))
	r.Details = []string{"A block is only read when a line holding just \"#\" follows it"}
	r.Suggests = []string{"The capture may have been cut off; re-run display current-configuration"}
	return r, true
}

func checkCaptureRates(t *extract.Table, sentinel string, opts *DiagnoseOptions) DiagnosticResult {
	r := DiagnosticResult{
		Check: "Capture Rates",
	}

	var empty []string
	for _, s := range extract.CaptureStats(t, sentinel) {
		if s.Column.Key == extract.KeyName {
			continue
		}
		detail := fmt.Sprintf("%s: %d captured, %d not captured, %d unset (%.0f%%)",
			s.Column.Key, s.Captured, s.Missed, s.Unset, s.Rate()*100)
		if s.Captured == 0 && s.Missed > 0 {
			empty = append(empty, detail)
		} else if opts.Verbose {
			r.Details = append(r.Details, detail)
		}
	}

	if len(empty) > 0 {
		r.Status = "warning"
		r.Message = fmt.Sprintf("%d column(s) never captured", len(empty))
		r.Details = append(empty, r.Details...)
		r.Suggests = []string{"Add an extra pattern for the field under sections.*.fields if the device words it differently"}
		return r
	}

	r.Status = "ok"
	r.Message = fmt.Sprintf("%d rows, every column captured at least once", len(t.Rows))
	return r
}

// checkJoinKeys reports interfaces present in only one section. The second
// result is false unless both sections produced records.
func checkJoinKeys(result *extract.Result) (DiagnosticResult, bool) {
	if result.Configuration.Empty() || result.Status.Empty() {
		return DiagnosticResult{}, false
	}

	onlyConfig, onlyStatus := extract.OneSided(result.Configuration, result.Status)

	r := DiagnosticResult{
		Check: "Join Keys",
	}
	if len(onlyConfig) == 0 && len(onlyStatus) == 0 {
		r.Status = "ok"
		r.Message = "Every interface appears in both sections"
		return r, true
	}

	r.Status = "warning"
	r.Message = fmt.Sprintf("%d interface(s) only in configuration, %d only in status", len(onlyConfig), len(onlyStatus))
	for _, n := range onlyConfig {
		r.Details = append(r.Details, "configuration only: "+n)
	}
	for _, n := range onlyStatus {
		r.Details = append(r.Details, "status only: "+n)
	}

	for _, pair := range abbreviationPairs(onlyConfig, onlyStatus) {
		r.Suggests = append(r.Suggests, fmt.Sprintf("%q and %q differ only by abbreviation; names are joined exactly as written", pair[0], pair[1]))
	}
	return r, true
}

// abbreviationPairs returns name pairs from a and b that are equal once the
// interface type is abbreviated.
func abbreviationPairs(a, b []string) [][2]string {
	short := make(map[string]string, len(b))
	for _, n := range b {
		short[abbreviate(n)] = n
	}

	var pairs [][2]string
	for _, n := range a {
		if m, ok := short[abbreviate(n)]; ok && m != n {
			pairs = append(pairs, [2]string{n, m})
		}
	}
	return pairs
}

func abbreviate(name string) string {
	for _, ab := range abbreviations {
		if strings.HasPrefix(name, ab.long) {
			return ab.short + name[len(ab.long):]
		}
	}
	return name
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  "ok",
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		// Check if token looks like an unexpanded env var
		if wh.Token == "" && opts.Verbose {
			result.Details = append(result.Details, "No token configured")
		}
		if strings.HasPrefix(wh.Token, "$") {
			result.Status = "warning"
			result.Message = fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token)
		}

		if opts.Verbose {
			result.Details = append(result.Details,
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			)
		}

		results = append(results, result)
	}

	return results
}

func checkPublishing(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if cfg.Store.Enabled {
		results = append(results, DiagnosticResult{
			Check:   "History Store",
			Status:  "ok",
			Message: fmt.Sprintf("Runs are recorded in %s", cfg.Store.Path),
		})
	} else if opts.Verbose {
		results = append(results, DiagnosticResult{
			Check:   "History Store",
			Status:  "ok",
			Message: "Disabled (optional)",
		})
	}

	if !cfg.Upload.Enabled {
		return results
	}

	result := DiagnosticResult{
		Check:   "Upload",
		Status:  "ok",
		Message: fmt.Sprintf("Exports go to %s/%s", cfg.Upload.Endpoint, cfg.Upload.Bucket),
	}
	if cfg.Upload.AccessKey == "" || cfg.Upload.SecretKey == "" {
		result.Status = "warning"
		result.Message = "Upload enabled without credentials"
		result.Suggests = []string{"Set upload.access_key and upload.secret_key (${VAR} is expanded)"}
	}
	return append(results, result)
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	_, _ = fmt.Fprintln(w, "=== ifextract Diagnostics ===")
	_, _ = fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		_, _ = fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		_, _ = fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				_, _ = fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			_, _ = fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, "---")
	_, _ = fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		_, _ = fmt.Fprintln(w, "\nFix the errors above before extracting.")
	} else if warnCount > 0 {
		_, _ = fmt.Fprintln(w, "\nExtraction will run but some cells may be incomplete.")
	} else {
		_, _ = fmt.Fprintln(w, "\nTranscript looks good!")
	}
}
