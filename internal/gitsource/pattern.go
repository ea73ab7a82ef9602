package gitsource

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"citecheck/internal/content"
)

// LineRange is an inclusive, 1-based range of lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewLineRange validates 1 <= start <= end.
func NewLineRange(start, end int) (LineRange, error) {
	if start == 0 {
		return LineRange{}, content.ParsingError(nil, "line numbers start at 1, got L%d", start)
	}
	if start < 0 || end < 0 {
		return LineRange{}, content.ParsingError(nil, "negative line number in L%d-L%d", start, end)
	}
	if start > end {
		return LineRange{}, content.ParsingError(nil, "line range start L%d is after end L%d", start, end)
	}
	return LineRange{Start: start, End: end}, nil
}

var (
	lineRangeRe     = regexp.MustCompile(`^L(\d+)(?:-L?(\d+))?$`)
	lineRangeHintRe = regexp.MustCompile(`^L\d`)
)

// ParseLineRange parses "L<n>" or "L<n>-L<m>". The second L is optional, so
// "L<n>-<m>" is accepted too.
func ParseLineRange(s string) (LineRange, error) {
	m := lineRangeRe.FindStringSubmatch(s)
	if m == nil {
		return LineRange{}, content.ParsingError(nil, "invalid line range %q (want L<n> or L<n>-L<m>)", s)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return LineRange{}, content.ParsingError(err, "invalid line number in %q", s)
	}
	end := start
	if m[2] != "" {
		end, err = strconv.Atoi(m[2])
		if err != nil {
			return LineRange{}, content.ParsingError(err, "invalid line number in %q", s)
		}
	}
	return NewLineRange(start, end)
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("L%d", r.Start)
	}
	return fmt.Sprintf("L%d-L%d", r.Start, r.End)
}

// PathPattern selects content inside a tree: either an exact Path with an
// optional LineRange, or a Glob matched against every blob. Never both.
type PathPattern struct {
	Path      string     `json:"path,omitempty"`
	Glob      string     `json:"glob,omitempty"`
	LineRange *LineRange `json:"lineRange,omitempty"`
}

// IsGlob reports whether the pattern is a whole-tree glob.
func (p PathPattern) IsGlob() bool {
	return p.Glob != ""
}

func (p PathPattern) String() string {
	if p.IsGlob() {
		return p.Glob
	}
	if p.LineRange != nil {
		return p.Path + "#" + p.LineRange.String()
	}
	return p.Path
}

// HasGlobMeta reports whether s contains glob metacharacters.
func HasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// ParsePathPattern parses "path", "path#L<n>", "path#L<n>-L<m>" or a glob.
// A '#' suffix is a line range only when it starts with L and a digit;
// otherwise it is kept as part of the path.
func ParsePathPattern(s string) (PathPattern, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "/")
	if s == "" {
		return PathPattern{}, content.ParsingError(nil, "empty path")
	}

	path := s
	var lr *LineRange
	if idx := strings.LastIndex(s, "#"); idx >= 0 {
		suffix := s[idx+1:]
		if lineRangeHintRe.MatchString(suffix) {
			r, err := ParseLineRange(suffix)
			if err != nil {
				return PathPattern{}, err
			}
			path = s[:idx]
			lr = &r
		}
	}

	if HasGlobMeta(path) {
		if lr != nil {
			return PathPattern{}, content.ParsingError(nil, "glob pattern %q cannot carry a line range", path)
		}
		if !doublestar.ValidatePattern(path) {
			return PathPattern{}, content.ParsingError(nil, "invalid glob pattern %q", path)
		}
		return PathPattern{Glob: path}, nil
	}

	if path == "" {
		return PathPattern{}, content.ParsingError(nil, "missing path before line range in %q", s)
	}
	return PathPattern{Path: path, LineRange: lr}, nil
}

// sliceLines returns lines [r.Start-1, r.End) of text. A trailing newline
// does not count as an extra line.
func sliceLines(path, text string, r LineRange) (string, error) {
	lines := splitLines(text)
	if r.End > len(lines) {
		return "", content.ParsingError(nil,
			"line range %s out of bounds for %s: file has %d lines", r, path, len(lines))
	}
	return strings.Join(lines[r.Start-1:r.End], "\n"), nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
