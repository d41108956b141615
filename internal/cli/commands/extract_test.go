package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/extract"
)

func TestRunExtract_CSVFile(t *testing.T) {
	useConfig(t, "")
	dir := t.TempDir()
	input := writeFile(t, dir, "core-sw1.log", testTranscript)
	outPath := filepath.Join(dir, "core-sw1.csv")

	out, err := run(t, NewExtractCommand(), "-i", input, "-o", outPath, "--headers", "key")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(out, "Wrote 2 interfaces to "+outPath+" (csv)") {
		t.Errorf("output = %q", out)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if records[0][0] != extract.KeyName {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "GE1/0/1" || records[2][0] != "Vlanif10" {
		t.Errorf("names = %q, %q", records[1][0], records[2][0])
	}
}

func TestRunExtract_StdoutJSON(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "core-sw1.log", testTranscript)

	out, err := run(t, NewExtractCommand(), "-i", input, "-o", "-", "--format", "json", "--fill-unset")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	var decoded struct {
		Table struct {
			Rows []map[string]string `json:"rows"`
		} `json:"table"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(decoded.Table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(decoded.Table.Rows))
	}
	// Vlanif10 has no status record; --fill-unset gives it the sentinel.
	if got := decoded.Table.Rows[1][extract.KeyLinkState]; got != extract.NotCaptured {
		t.Errorf("link_state = %q, want sentinel", got)
	}
}

func TestRunExtract_StdoutDefaultsToText(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "core-sw1.log", testTranscript)

	out, err := run(t, NewExtractCommand(), "-i", input, "-o", "-", "-q")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := "ifextract: 2 interfaces (2 configuration, 1 status records)\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunExtract_MissingInput(t *testing.T) {
	useConfig(t, "")

	_, err := run(t, NewExtractCommand(), "-i", "/nonexistent/core.log", "-o", "-")
	if err == nil {
		t.Fatal("Expected error for missing input")
	}
	if !strings.Contains(err.Error(), "input file not found") {
		t.Errorf("error = %v", err)
	}
}

func TestRunExtract_NoRows(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "version.log", "<r1>display version\nVRP (R) software\n<r1>")

	if _, err := run(t, NewExtractCommand(), "-i", input, "-o", "-"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
}

func TestRunExtract_InvalidFormat(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "core-sw1.log", testTranscript)

	_, err := run(t, NewExtractCommand(), "-i", input, "-o", "-", "--format", "pdf")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("error = %v, want unknown output format", err)
	}
}

func TestRunExtract_XLSXToStdout(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "core-sw1.log", testTranscript)

	out, err := run(t, NewExtractCommand(), "-i", input, "-o", "-", "--format", "xlsx")
	if err == nil || !strings.Contains(err.Error(), "stdout") {
		t.Errorf("error = %v, want stdout refusal", err)
	}
	if strings.HasPrefix(out, "PK") {
		t.Error("workbook was written to stdout")
	}
}

func TestRunExtract_Prompts(t *testing.T) {
	useConfig(t, "")
	dir := t.TempDir()
	input := writeFile(t, dir, "core-sw1.log", testTranscript)
	outPath := filepath.Join(dir, "prompted.json")

	cmd := NewExtractCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input + "\n" + outPath + "\n"))
	cmd.SetArgs([]string{})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(stderr.String(), "Transcript file: ") || !strings.Contains(stderr.String(), "Output file: ") {
		t.Errorf("prompts = %q", stderr.String())
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("export not written: %v", err)
	}
}

func TestRunExtract_PromptEOF(t *testing.T) {
	useConfig(t, "")

	_, err := run(t, NewExtractCommand())
	if err == nil {
		t.Fatal("Expected error when no input path is given")
	}
	if !strings.Contains(err.Error(), "no transcript file given") {
		t.Errorf("error = %v", err)
	}
}

func TestPromptPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"line", "core.log\n", "core.log", false},
		{"trimmed", "  core.log  \r\n", "core.log", false},
		{"no newline", "core.log", "core.log", false},
		{"blank", "\n", "", true},
		{"eof", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := promptPath(bufio.NewReader(strings.NewReader(tt.input)), io.Discard, "Transcript file: ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("promptPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("promptPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name string
		opts ExtractOptions
		want string
	}{
		{"flag wins", ExtractOptions{Output: "out.csv", Format: "JSON"}, "json"},
		{"stdout is text", ExtractOptions{Output: "-"}, "text"},
		{"extension", ExtractOptions{Output: "out.csv"}, "csv"},
		{"unknown extension uses default", ExtractOptions{Output: "out.dat"}, "xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveFormat(&tt.opts, config.FormatXLSX); got != tt.want {
				t.Errorf("resolveFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectWebhooks(t *testing.T) {
	if hooks := collectWebhooks(&ExtractOptions{}); len(hooks) != 0 {
		t.Errorf("got %d webhooks, want 0", len(hooks))
	}

	hooks := collectWebhooks(&ExtractOptions{
		WebhookURL:   "https://cli.example.com/webhook",
		WebhookToken: "secret",
	})
	if len(hooks) != 1 {
		t.Fatalf("got %d webhooks, want 1", len(hooks))
	}
	if hooks[0].Name != "cli" || hooks[0].Token != "secret" {
		t.Errorf("webhook = %+v", hooks[0])
	}
	if hooks[0].Trigger != config.WebhookTriggerOnRows {
		t.Errorf("Trigger = %q, want on_rows", hooks[0].Trigger)
	}
	if hooks[0].Timeout != config.DefaultWebhookTimeout {
		t.Errorf("Timeout = %v", hooks[0].Timeout)
	}
}

func TestRunExtract_WebhookAndStore(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	useConfig(t, "store:\n  enabled: true\n  path: "+filepath.Join(dir, "runs.db")+"\n")
	input := writeFile(t, dir, "core-sw1.log", testTranscript)
	outPath := filepath.Join(dir, "core-sw1.json")

	out, err := run(t, NewExtractCommand(), "-i", input, "-o", outPath,
		"--webhook-url", server.URL, "--webhook-token", "secret", "--webhook-trigger", "always")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(out, "Stored as run 1") {
		t.Errorf("output = %q", out)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 1 {
		t.Fatalf("webhook calls = %d, want 1", len(payloads))
	}
	if payloads[0]["event"] != "extraction.completed" {
		t.Errorf("event = %v", payloads[0]["event"])
	}
	if payloads[0]["run_id"] != float64(1) {
		t.Errorf("run_id = %v, want 1", payloads[0]["run_id"])
	}
}
