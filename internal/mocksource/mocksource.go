// Package mocksource is a synthetic citation source whose referenced and
// current values are set directly. It exists to exercise the source contract
// and the cache without network or git access.
package mocksource

import (
	"time"

	"citecheck/internal/cache"
	"citecheck/internal/content"
	"citecheck/internal/ident"
	"citecheck/internal/textdiff"
)

// Referenced is the cited value.
type Referenced struct {
	Content string `json:"content"`
}

// Current is the value as it is now.
type Current struct {
	Content   string    `json:"content"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Diff records whether the value changed.
type Diff struct {
	Changed bool   `json:"changed"`
	Unified string `json:"unified,omitempty"`
}

func (d *Diff) IsEmpty() bool { return !d.Changed }

func (c *Current) AsReferenced() *Referenced {
	return &Referenced{Content: c.Content}
}

func (c *Current) Diff(ref *Referenced) (*Diff, error) {
	if ref.Content == c.Content {
		return &Diff{}, nil
	}
	return &Diff{
		Changed: true,
		Unified: textdiff.Unified("mock", ref.Content, c.Content),
	}, nil
}

// Comparison is the comparison type produced by Source.
type Comparison = content.Comparison[*Referenced, *Current, *Diff]

// Source returns ReferencedValue and CurrentValue verbatim. Both may be
// changed between calls.
type Source struct {
	Name            string
	ReferencedValue string
	CurrentValue    string

	// Calls counts Referenced and Current fetches.
	Calls struct{ Referenced, Current int }
}

// New returns a source named name.
func New(name, referenced, current string) *Source {
	return &Source{Name: name, ReferencedValue: referenced, CurrentValue: current}
}

// Same returns a source whose two sides are equal.
func Same(value string) *Source {
	return New(value, value, value)
}

// Changed returns a source whose current value differs from the cited one.
func Changed(referenced, current string) *Source {
	return New(referenced, referenced, current)
}

func (s *Source) ID() content.ID {
	id, err := ident.Derive("mock", s.Name, map[string]string{"name": s.Name})
	if err != nil {
		return content.ID("mock-" + ident.Slugify(s.Name))
	}
	return content.ID(id)
}

func (s *Source) Referenced() (*Referenced, error) {
	s.Calls.Referenced++
	return &Referenced{Content: s.ReferencedValue}, nil
}

func (s *Source) Current() (*Current, error) {
	s.Calls.Current++
	return &Current{Content: s.CurrentValue, FetchedAt: time.Now().UTC()}, nil
}

// Get fetches both sides and diffs them.
func (s *Source) Get() (*Comparison, error) {
	return content.Get[*Referenced, *Current, *Diff](s)
}

// GetWithCache fetches a comparison through c.
func (s *Source) GetWithCache(c *cache.Cache, behavior cache.Behavior) (*Comparison, error) {
	return cache.GetSourceWithCache[*Referenced, *Current, *Diff](c, s, behavior)
}
