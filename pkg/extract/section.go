package extract

import (
	"regexp"
	"strings"
)

// promptLine matches the start of a line holding a device prompt such as "<HUAWEI>".
var promptLine = regexp.MustCompile(`(?m)^<`)

// Locate returns the section of transcript that starts at the first
// occurrence of marker and runs up to, but not including, the next line that
// begins with the prompt character "<". Without a following prompt the
// section runs to the end of the transcript. The second result is false when
// the marker does not occur.
func Locate(transcript, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}

	start := strings.Index(transcript, marker)
	if start < 0 {
		return "", false
	}

	rest := transcript[start+len(marker):]
	if loc := promptLine.FindStringIndex(rest); loc != nil {
		return transcript[start : start+len(marker)+loc[0]], true
	}
	return transcript[start:], true
}
