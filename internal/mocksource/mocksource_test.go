package mocksource

import (
	"strings"
	"testing"

	"citecheck/internal/behavior"
)

func TestSame(t *testing.T) {
	cmp, err := Same("hello").Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !cmp.IsSame() {
		t.Error("expected unchanged comparison")
	}
	if r := cmp.Validate(behavior.Behavior{Level: behavior.LevelError}, nil); !r.Valid {
		t.Errorf("expected valid result, got %s", r)
	}
}

func TestChanged(t *testing.T) {
	cmp, err := Changed("old", "new").Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cmp.IsSame() {
		t.Fatal("expected changed comparison")
	}
	if cmp.Referenced.Content != "old" || cmp.Current.Content != "new" {
		t.Errorf("unexpected sides: %q -> %q", cmp.Referenced.Content, cmp.Current.Content)
	}
	if !strings.Contains(cmp.Diff.Unified, "-old\n+new\n") {
		t.Errorf("unexpected unified diff:\n%s", cmp.Diff.Unified)
	}

	r := cmp.Validate(behavior.Behavior{Level: behavior.LevelWarn}, nil)
	if r.Valid || r.ShouldFail || !r.ShouldReport {
		t.Errorf("unexpected warn result: %+v", r)
	}
}

func TestID_StableAndDistinct(t *testing.T) {
	if Same("a").ID() != Same("a").ID() {
		t.Error("expected stable IDs")
	}
	if Same("a").ID() == Same("b").ID() {
		t.Error("expected distinct IDs for different names")
	}
	if !strings.HasPrefix(string(Same("a").ID()), "mock-a-") {
		t.Errorf("unexpected ID: %s", Same("a").ID())
	}
}

func TestCurrentAsReferenced(t *testing.T) {
	cur := &Current{Content: "x"}
	if got := cur.AsReferenced(); got.Content != "x" {
		t.Errorf("AsReferenced = %q", got.Content)
	}
}
