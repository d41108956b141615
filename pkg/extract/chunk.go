package extract

import (
	"regexp"
	"strings"
)

var (
	// configChunk spans "interface <name>" through a line holding only "#".
	configChunk = regexp.MustCompile(`(?m)^interface [\s\S]+?^#[ \t]*\r?$`)

	// statusChunk spans "<name> current state :" through the next blank-line
	// pair or the end of the section.
	statusChunk = regexp.MustCompile(`(?m)^\S+ current state :[\s\S]+?(?:\r?\n\r?\n|\z)`)
)

// Splitter cuts a section into per-interface chunks.
type Splitter func(section string) []string

// SplitConfigurationChunks returns the interface blocks of a
// current-configuration section in document order. A block that is never
// closed by a "#" line is dropped.
func SplitConfigurationChunks(section string) []string {
	return configChunk.FindAllString(section, -1)
}

// SplitStatusChunks returns the per-interface blocks of a display interface
// section in document order, without the trailing blank lines.
func SplitStatusChunks(section string) []string {
	matches := statusChunk.FindAllString(section, -1)
	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, strings.TrimRight(m, "\r\n"))
	}
	return chunks
}
