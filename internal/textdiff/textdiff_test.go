package textdiff

import (
	"strings"
	"testing"
)

func TestUnified(t *testing.T) {
	before := "one\ntwo\nthree\n"
	after := "one\n2\nthree\n"

	got := Unified("src/lib.rs", before, after)
	want := strings.Join([]string{
		"--- a/src/lib.rs",
		"+++ b/src/lib.rs",
		" one",
		"-two",
		"+2",
		" three",
		"",
	}, "\n")
	if got != want {
		t.Errorf("unexpected unified diff:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnified_AddedFile(t *testing.T) {
	got := Unified("new.txt", "", "hello\nworld")
	if !strings.Contains(got, "+hello\n+world\n") {
		t.Errorf("expected inserted lines, got:\n%s", got)
	}
	if strings.Contains(got, "\n-") {
		t.Errorf("expected no deleted lines, got:\n%s", got)
	}
}

func TestLines_Identical(t *testing.T) {
	lines := Lines("a\nb", "a\nb")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	ins, del := Stats(lines)
	if ins != 0 || del != 0 {
		t.Errorf("expected no changes, got +%d -%d", ins, del)
	}
}

func TestStats(t *testing.T) {
	ins, del := Stats(Lines("a\nb\nc\n", "a\nc\nd\ne\n"))
	if ins != 2 || del != 1 {
		t.Errorf("expected +2 -1, got +%d -%d", ins, del)
	}
}
