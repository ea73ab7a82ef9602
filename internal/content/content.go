// Package content defines the shared vocabulary of citation checks: what was
// cited (Referenced), what exists now (Current), how they differ (Diff) and
// the Comparison holding all three.
package content

import (
	"fmt"

	"citecheck/internal/behavior"
)

// ID is a deterministic key derived from a source's identifying parameters.
// It doubles as the cache filename, so it never contains path separators.
type ID string

func (id ID) String() string { return string(id) }

// Diff is the structured difference between a Referenced and a Current value.
type Diff interface {
	IsEmpty() bool
}

// Current is a freshly fetched snapshot. Diff must be deterministic for equal
// inputs regardless of when either side was fetched.
type Current[R any, D Diff] interface {
	Diff(referenced R) (D, error)
	// AsReferenced re-shapes the snapshot into its cited form, dropping
	// fetch metadata.
	AsReferenced() R
}

// Source fetches the two sides of a citation.
type Source[R any, C Current[R, D], D Diff] interface {
	ID() ID
	Referenced() (R, error)
	Current() (C, error)
}

// Comparison owns exactly one Referenced, one Current and one Diff.
type Comparison[R any, C any, D Diff] struct {
	Referenced R `json:"referenced"`
	Current    C `json:"current"`
	Diff       D `json:"diff"`
}

// IsSame reports whether the cited content is unchanged.
func (c *Comparison[R, C, D]) IsSame() bool {
	return c.Diff.IsEmpty()
}

// Validate resolves the comparison into a verdict under b. local is the
// optional per-citation level override.
func (c *Comparison[R, C, D]) Validate(b behavior.Behavior, local *behavior.Level) behavior.Result {
	return behavior.Validate(c, b, local)
}

// Get fetches both sides from src and diffs them.
func Get[R any, C Current[R, D], D Diff](src Source[R, C, D]) (*Comparison[R, C, D], error) {
	ref, err := src.Referenced()
	if err != nil {
		return nil, fmt.Errorf("fetching referenced content for %s: %w", src.ID(), err)
	}
	cur, err := src.Current()
	if err != nil {
		return nil, fmt.Errorf("fetching current content for %s: %w", src.ID(), err)
	}
	return Compare[R, C, D](ref, cur)
}

// Compare builds a Comparison from already fetched values.
func Compare[R any, C Current[R, D], D Diff](ref R, cur C) (*Comparison[R, C, D], error) {
	d, err := cur.Diff(ref)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}
	return &Comparison[R, C, D]{Referenced: ref, Current: cur, Diff: d}, nil
}
