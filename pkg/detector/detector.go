// Package detector inspects device transcripts and reports which display
// sections they contain, the device name and how many interface chunks each
// section yields.
package detector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ccollicutt/ifextract/pkg/extract"
	"github.com/ccollicutt/ifextract/pkg/transcript"
)

// prompt matches a user-view prompt line and captures the device name and
// the command typed after it.
var prompt = regexp.MustCompile(`(?m)^<([^<>\r\n]+)>[ \t]*([^\r\n]*?)[ \t]*\r?$`)

// DetectionResult holds the result of inspecting one transcript.
type DetectionResult struct {
	Source   string         `json:"source"`
	Encoding string         `json:"encoding,omitempty"`
	Device   string         `json:"device,omitempty"` // Name from the first prompt
	Prompts  int            `json:"prompts"`          // Number of prompt lines
	Commands []CommandMatch `json:"commands"`         // Commands typed at prompts, in order
	Sections []SectionMatch `json:"sections"`         // One entry per extracted section kind
	Notes    []string       `json:"notes,omitempty"`  // Warnings about marker ambiguity
}

// CommandMatch is one command typed at a prompt.
type CommandMatch struct {
	Text  string `json:"text"`            // As typed
	Known string `json:"known,omitempty"` // Canonical name when recognised
	Line  int    `json:"line"`            // 1-based line number of the prompt
}

// SectionMatch reports what the extractor would see for one section kind.
type SectionMatch struct {
	Kind   extract.SectionKind `json:"kind"`
	Marker string              `json:"marker"`
	Found  bool                `json:"found"`
	Chunks int                 `json:"chunks"`
	Bytes  int                 `json:"bytes"`
}

// Detector inspects transcripts.
type Detector struct {
	commands  []*KnownCommand
	extractor *extract.Extractor
}

// Option configures the Detector.
type Option func(*Detector)

// WithExtractor sets the extractor whose markers and splitters are used
// (default extract.New()).
func WithExtractor(e *extract.Extractor) Option {
	return func(d *Detector) {
		if e != nil {
			d.extractor = e
		}
	}
}

// New creates a new Detector with the default commands.
func New(opts ...Option) *Detector {
	d := &Detector{
		commands:  DefaultCommands(),
		extractor: extract.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile reads a transcript and inspects it.
func (d *Detector) DetectFromFile(_ context.Context, path string) (*DetectionResult, error) {
	tr, err := transcript.Read(path)
	if err != nil {
		return nil, err
	}
	result := d.DetectFromText(tr.Text)
	result.Source = path
	result.Encoding = tr.Encoding
	return result, nil
}

// DetectFromText inspects transcript text.
func (d *Detector) DetectFromText(text string) *DetectionResult {
	result := &DetectionResult{}

	for _, m := range prompt.FindAllStringSubmatchIndex(text, -1) {
		result.Prompts++
		if result.Device == "" {
			result.Device = text[m[2]:m[3]]
		}

		cmd := text[m[4]:m[5]]
		if cmd == "" {
			continue
		}
		result.Commands = append(result.Commands, CommandMatch{
			Text:  cmd,
			Known: d.identify(cmd),
			Line:  strings.Count(text[:m[0]], "\n") + 1,
		})
	}

	for _, kind := range []extract.SectionKind{extract.SectionConfiguration, extract.SectionStatus} {
		schema := d.extractor.Schema(kind)
		match := SectionMatch{Kind: kind, Marker: schema.Marker}
		if section, ok := extract.Locate(text, schema.Marker); ok {
			match.Found = true
			match.Bytes = len(section)
			match.Chunks = len(schema.Split(section))
		}
		result.Sections = append(result.Sections, match)
		result.Notes = append(result.Notes, d.markerNotes(text, schema.Marker, result.Commands)...)
	}

	return result
}

// identify returns the canonical name of a typed command, or "".
func (d *Detector) identify(cmd string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(cmd)), " ")
	for _, c := range d.commands {
		if c.Pattern.MatchString(normalized) {
			return c.Name
		}
	}
	return ""
}

// markerNotes warns when the marker occurs more than once or when its first
// occurrence is a longer command that merely starts with it.
func (d *Detector) markerNotes(text, marker string, commands []CommandMatch) []string {
	var notes []string

	if n := strings.Count(text, marker); n > 1 {
		notes = append(notes, fmt.Sprintf("marker %q appears %d times; only the first occurrence is extracted", marker, n))
	}

	for _, c := range commands {
		if !strings.Contains(c.Text, marker) {
			continue
		}
		if strings.TrimSpace(c.Text) != marker {
			notes = append(notes, fmt.Sprintf("first command containing marker %q is %q (line %d)", marker, c.Text, c.Line))
		}
		break
	}

	return notes
}

// Section returns the match for kind, or nil.
func (r *DetectionResult) Section(kind extract.SectionKind) *SectionMatch {
	for i := range r.Sections {
		if r.Sections[i].Kind == kind {
			return &r.Sections[i]
		}
	}
	return nil
}

// HasSection returns true if the marker for kind was found.
func (r *DetectionResult) HasSection(kind extract.SectionKind) bool {
	s := r.Section(kind)
	return s != nil && s.Found
}

// HasMatch returns true if at least one extractable section was found.
func (r *DetectionResult) HasMatch() bool {
	for _, s := range r.Sections {
		if s.Found {
			return true
		}
	}
	return false
}
