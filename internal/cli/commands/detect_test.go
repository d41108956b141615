package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccollicutt/ifextract/pkg/detector"
	"github.com/ccollicutt/ifextract/pkg/extract"
)

func TestRunDetect_Text(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "core-sw1.log", testTranscript)

	out, err := run(t, NewDetectCommand(), "--commands", input)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	for _, want := range []string{
		"=== Section Detection ===",
		"Device: core-sw1",
		"Prompts: 3",
		"[found]   configuration",
		"2 interface blocks",
		"1 interface blocks",
		"Commands:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}
}

func TestRunDetect_JSONGlob(t *testing.T) {
	useConfig(t, "")
	dir := t.TempDir()
	writeFile(t, dir, "a.log", testTranscript)
	writeFile(t, dir, "b.log", "<r2>display version\nVRP\n<r2>")

	out, err := run(t, NewDetectCommand(), "-o", "json", filepath.Join(dir, "*.log"))
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	var results []detector.DetectionResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !results[0].HasSection(extract.SectionStatus) {
		t.Error("a.log should have a status section")
	}
	if results[1].Device != "r2" || results[1].HasMatch() {
		t.Errorf("b.log = %+v", results[1])
	}
}

func TestRunDetect_NoSections(t *testing.T) {
	useConfig(t, "")
	input := writeFile(t, t.TempDir(), "version.log", "<r1>display version\nVRP\n<r1>")

	out, err := run(t, NewDetectCommand(), input)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
	if !strings.Contains(out, "[missing]") || !strings.Contains(out, "Tip:") {
		t.Errorf("output = %s", out)
	}
}

func TestRunDetect_Errors(t *testing.T) {
	useConfig(t, "")

	if _, err := run(t, NewDetectCommand(), "/nonexistent/core.log"); err == nil {
		t.Error("Expected error for missing file")
	}

	input := writeFile(t, t.TempDir(), "core-sw1.log", testTranscript)
	if _, err := run(t, NewDetectCommand(), "-o", "yaml", input); err == nil {
		t.Error("Expected error for unknown output format")
	}
}

func TestOutputDetectText_Notes(t *testing.T) {
	result := &detector.DetectionResult{
		Source: "/test/file.log",
		Notes:  []string{"marker \"display interface\" appears 2 times"},
	}

	var buf bytes.Buffer
	outputDetectText(&buf, []*detector.DetectionResult{result}, &DetectOptions{})

	out := buf.String()
	if !strings.Contains(out, "Device: (no prompt found)") {
		t.Errorf("Expected no-prompt message, got: %s", out)
	}
	if !strings.Contains(out, "Note: marker") {
		t.Errorf("Expected note, got: %s", out)
	}
}
