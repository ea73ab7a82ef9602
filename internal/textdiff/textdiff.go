// Package textdiff renders line-level differences between two texts.
package textdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line.
type Op int

const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

// Prefix returns the unified-diff marker for op.
func (o Op) Prefix() string {
	switch o {
	case OpDelete:
		return "-"
	case OpInsert:
		return "+"
	default:
		return " "
	}
}

// Line is one line of a line-level diff.
type Line struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Lines computes a line-level diff of before and after.
func Lines(before, after string) []Line {
	if before == after {
		return equalLines(before)
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []Line
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, text := range splitLines(d.Text) {
			out = append(out, Line{Op: op, Text: text})
		}
	}
	return out
}

// Unified renders a header for path followed by every line of the diff,
// prefixed with '-', '+' or ' '. There are no hunk headers; the whole
// document is emitted.
func Unified(path, before, after string) string {
	var sb strings.Builder
	sb.WriteString("--- a/")
	sb.WriteString(path)
	sb.WriteString("\n+++ b/")
	sb.WriteString(path)
	sb.WriteString("\n")

	for _, l := range Lines(before, after) {
		sb.WriteString(l.Op.Prefix())
		sb.WriteString(l.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Stats counts inserted and deleted lines.
func Stats(lines []Line) (inserted, deleted int) {
	for _, l := range lines {
		switch l.Op {
		case OpInsert:
			inserted++
		case OpDelete:
			deleted++
		}
	}
	return inserted, deleted
}

func equalLines(s string) []Line {
	var out []Line
	for _, text := range splitLines(s) {
		out = append(out, Line{Op: OpEqual, Text: text})
	}
	return out
}

// splitLines splits on '\n', dropping the empty element a trailing newline
// would produce.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
