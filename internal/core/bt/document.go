package bt

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Line is one parsed source line: <indentation><Tag> [params...].
type Line struct {
	// Number is the 1-based line number in the original source.
	Number int
	// Depth is the count of leading space/tab characters, or -1 for a blank line.
	Depth  int
	Tag    string
	Params []string
	Raw    string
}

func (l Line) Blank() bool { return l.Depth < 0 }

// Document is a parsed tree source, ready to be built any number of times.
type Document struct {
	Lines       []Line
	fingerprint uint64
}

// Fingerprint is an xxhash digest of the normalised source lines. Two sources
// that differ only in line endings or surrounding blank lines share it.
func (d *Document) Fingerprint() uint64 { return d.fingerprint }

// Parse splits source on line breaks and parses every line.
func Parse(source string) (*Document, error) {
	return ParseLines(strings.Split(source, "\n"))
}

// ParseLines parses already-split raw lines. Leading and trailing blank lines
// are dropped; a document must indent with tabs or with spaces, not both.
func ParseLines(raw []string) (*Document, error) {
	lines := make([]Line, 0, len(raw))
	var usesTabs, usesSpaces bool
	for i, text := range raw {
		text = strings.TrimSuffix(text, "\r")
		depth := indentation(text)
		fields := strings.Fields(text)
		if len(fields) == 0 {
			depth = -1
		}
		line := Line{Number: i + 1, Depth: depth, Raw: text}
		if depth >= 0 {
			for _, ch := range text[:depth] {
				if ch == '\t' {
					usesTabs = true
				} else {
					usesSpaces = true
				}
			}
			if usesTabs && usesSpaces {
				return nil, newBuildError(ErrMixedIndentation, "", line.Number)
			}
			line.Tag = fields[0]
			line.Params = fields[1:]
		}
		lines = append(lines, line)
	}

	start, end := 0, len(lines)
	for start < end && lines[start].Blank() {
		start++
	}
	for end > start && lines[end-1].Blank() {
		end--
	}
	if start == end {
		return nil, newBuildError(ErrEmptyDocument, "", 0)
	}
	lines = lines[start:end]

	h := xxhash.New()
	for _, l := range lines {
		_, _ = h.WriteString(l.Raw)
		_, _ = h.WriteString("\n")
	}
	return &Document{Lines: lines, fingerprint: h.Sum64()}, nil
}

// indentation returns the number of leading space/tab characters of line, or
// -1 when the line is empty or consists only of whitespace.
func indentation(line string) int {
	if len(line) == 0 {
		return -1
	}
	depth := 0
	for depth < len(line) && (line[depth] == ' ' || line[depth] == '\t') {
		depth++
	}
	if depth == len(line) {
		return -1
	}
	return depth
}
