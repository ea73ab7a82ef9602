package ident

import (
	"strings"
	"testing"
)

func TestCanonicalJSON_StableKeyOrder(t *testing.T) {
	a, err := CanonicalJSON(map[string]interface{}{"b": 1, "a": []interface{}{map[string]interface{}{"z": 1, "y": 2}}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":[{"y":2,"z":1}],"b":1}`
	if string(a) != want {
		t.Errorf("got %s, want %s", a, want)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	params := map[string]string{"url": "https://example.com", "match": "regex:.*"}

	id1, err := Derive("http", "example.com regex", params)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := Derive("http", "example.com regex", params)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("expected equal IDs, got %s and %s", id1, id2)
	}
	if !strings.HasPrefix(id1, "http-example.com_regex-") {
		t.Errorf("unexpected ID shape: %s", id1)
	}

	other, _ := Derive("http", "example.com regex", map[string]string{"url": "https://example.com", "match": "css:title"})
	if other == id1 {
		t.Error("different params must produce different IDs")
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"https://GitHub.com/org/repo.git": "https_github.com_org_repo.git",
		"  --  ":                          "",
		"a/b":                             "a_b",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}

	long := Slugify(strings.Repeat("ab/", 100))
	if len(long) > maxSlugLen {
		t.Errorf("slug too long: %d", len(long))
	}
	if strings.ContainsAny(long, "/\\") {
		t.Errorf("slug contains separators: %s", long)
	}
}
