package gitsource

import (
	"testing"

	"citecheck/internal/content"
)

func TestParseLineRange(t *testing.T) {
	tests := []struct {
		in      string
		want    LineRange
		wantErr bool
	}{
		{"L1-L10", LineRange{1, 10}, false},
		{"L5", LineRange{5, 5}, false},
		{"L3-7", LineRange{3, 7}, false}, // second L is optional
		{"L0", LineRange{}, true},
		{"L10-L5", LineRange{}, true},
		{"L", LineRange{}, true},
		{"10", LineRange{}, true},
		{"L1-Lx", LineRange{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLineRange(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				if !content.IsKind(err, content.KindContentParsing) {
					t.Errorf("expected parsing error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewLineRange(t *testing.T) {
	for _, tc := range []struct{ s, e int }{{0, 0}, {0, 5}, {2, 1}} {
		if _, err := NewLineRange(tc.s, tc.e); err == nil {
			t.Errorf("NewLineRange(%d, %d) should fail", tc.s, tc.e)
		}
	}
	for _, tc := range []struct{ s, e int }{{1, 1}, {1, 2}, {7, 100}} {
		if _, err := NewLineRange(tc.s, tc.e); err != nil {
			t.Errorf("NewLineRange(%d, %d): %v", tc.s, tc.e, err)
		}
	}
}

func TestParsePathPattern(t *testing.T) {
	p, err := ParsePathPattern("src/lib.rs#L1-L10")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path != "src/lib.rs" || p.LineRange == nil || *p.LineRange != (LineRange{1, 10}) {
		t.Errorf("unexpected pattern: %+v", p)
	}
	if p.IsGlob() {
		t.Error("ranged pattern must not be a glob")
	}
	if p.String() != "src/lib.rs#L1-L10" {
		t.Errorf("String() = %q", p.String())
	}

	p, err = ParsePathPattern("README.md#L3")
	if err != nil {
		t.Fatal(err)
	}
	if *p.LineRange != (LineRange{3, 3}) || p.String() != "README.md#L3" {
		t.Errorf("unexpected single-line pattern: %+v", p)
	}

	p, err = ParsePathPattern("docs/**/*.md")
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsGlob() || p.LineRange != nil || p.Path != "" {
		t.Errorf("unexpected glob pattern: %+v", p)
	}

	p, err = ParsePathPattern("notes#draft.txt")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path != "notes#draft.txt" || p.LineRange != nil {
		t.Errorf("non-range fragment should stay in the path: %+v", p)
	}

	p, err = ParsePathPattern("README.md#Licensing")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path != "README.md#Licensing" || p.LineRange != nil {
		t.Errorf("heading-like fragment should stay in the path: %+v", p)
	}

	p, err = ParsePathPattern("a.txt#L5-10")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path != "a.txt" || p.LineRange == nil || *p.LineRange != (LineRange{5, 10}) {
		t.Errorf("unexpected pattern: %+v", p)
	}
}

func TestParsePathPattern_Errors(t *testing.T) {
	for _, in := range []string{"", "src/*.rs#L1-L2", "a.txt#L0", "a.txt#L9-L2", "a.txt#L1-Lx", "#L1", "src/[.rs"} {
		if p, err := ParsePathPattern(in); err == nil {
			t.Errorf("ParsePathPattern(%q) should fail, got %+v", in, p)
		}
	}
}

func TestSliceLines(t *testing.T) {
	text := "one\ntwo\nthree\nfour\nfive\n"

	got, err := sliceLines("f.txt", text, LineRange{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got != "two\nthree\nfour" {
		t.Errorf("got %q", got)
	}

	_, err = sliceLines("src/lib.rs", text, LineRange{1, 10})
	if err == nil {
		t.Fatal("expected out of range error")
	}
	want := "content parsing error: line range L1-L10 out of bounds for src/lib.rs: file has 5 lines"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
