// Package transcript reads captured terminal sessions from disk.
//
// Session logs saved by terminal emulators on Chinese-locale hosts are often
// GBK or GB18030 rather than UTF-8. Read decodes those so the extraction
// patterns see the same text the operator saw.
package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// ErrNotFound is returned when the transcript file does not exist.
var ErrNotFound = errors.New("transcript not found")

// ErrEmptyInput is returned by Decode for a transcript with no bytes after
// the BOM.
var ErrEmptyInput = errors.New("transcript is empty")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fallbacks are tried in order when the input is not valid UTF-8.
var fallbacks = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gb18030", simplifiedchinese.GB18030},
	{"gbk", simplifiedchinese.GBK},
	{"big5", traditionalchinese.Big5},
	{"windows-1252", charmap.Windows1252},
}

// Transcript is a decoded session log.
type Transcript struct {
	// Path is where the transcript was read from; empty for in-memory input.
	Path string

	// Text is the UTF-8 content.
	Text string

	// Encoding names the source encoding ("utf-8" when no conversion happened).
	Encoding string

	// Size is the number of raw bytes read.
	Size int
}

// Read loads and decodes the transcript at path.
func Read(path string) (*Transcript, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided transcript path is expected
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading transcript %s: %w", path, err)
	}

	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// ReadFrom reads and decodes a transcript from r.
func ReadFrom(r io.Reader) (*Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return Decode(data)
}

// Decode converts raw bytes into a Transcript, stripping a UTF-8 BOM and
// falling back to legacy encodings when the bytes are not valid UTF-8.
// CRLF line endings become LF.
func Decode(data []byte) (*Transcript, error) {
	body := bytes.TrimPrefix(data, utf8BOM)
	if len(body) == 0 {
		return nil, ErrEmptyInput
	}

	t := &Transcript{Size: len(data), Encoding: "utf-8"}
	switch {
	case utf8.Valid(body):
		t.Text = string(body)
	default:
		t.Encoding = "unknown"
		t.Text = string(body)
		for _, fb := range fallbacks {
			if s, ok := decodeWith(fb.enc, body); ok {
				t.Text = s
				t.Encoding = fb.name
				break
			}
		}
	}

	t.Text = strings.ReplaceAll(t.Text, "\r\n", "\n")
	return t, nil
}

// decodeWith decodes b with enc. x/text decoders substitute U+FFFD for
// bytes the encoding cannot map, so a replacement rune counts as failure.
func decodeWith(enc encoding.Encoding, b []byte) (string, bool) {
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil || !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
