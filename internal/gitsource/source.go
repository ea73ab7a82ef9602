// Package gitsource cites files, line ranges and globs inside a git
// repository at a revision.
package gitsource

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"citecheck/internal/cache"
	"citecheck/internal/content"
	"citecheck/internal/ident"
	"citecheck/internal/textdiff"
)

// DefaultReposSubdir is where clones live under the cite directory.
const DefaultReposSubdir = "repos"

// Referenced is the cited snapshot. Files maps repository-relative paths to
// content; an exact or ranged pattern yields exactly one entry.
type Referenced struct {
	Remote   string            `json:"remote"`
	Revision string            `json:"revision"`
	Pattern  PathPattern       `json:"pattern"`
	Files    map[string]string `json:"files"`
}

// Current is a freshly extracted snapshot plus fetch metadata.
type Current struct {
	Remote     string            `json:"remote"`
	Revision   string            `json:"revision"`
	Pattern    PathPattern       `json:"pattern"`
	Files      map[string]string `json:"files"`
	Commit     string            `json:"commit,omitempty"`
	FetchedAt  time.Time         `json:"fetchedAt"`
	ByteLength int               `json:"byteLength"`
}

// FileChange is the change record for one path.
type FileChange struct {
	Path    string `json:"path"`
	Before  string `json:"before"`
	After   string `json:"after"`
	Unified string `json:"unified"`
}

// Diff describes how a Current differs from a Referenced.
type Diff struct {
	RevisionChanged    bool         `json:"revisionChanged"`
	ReferencedRevision string       `json:"referencedRevision"`
	CurrentRevision    string       `json:"currentRevision"`
	Changes            []FileChange `json:"changes,omitempty"`
}

// IsEmpty is true only when neither the content nor the revision changed.
func (d *Diff) IsEmpty() bool {
	return !d.RevisionChanged && len(d.Changes) == 0
}

// Unified concatenates the unified diffs of all changed paths.
func (d *Diff) Unified() string {
	var sb strings.Builder
	for _, c := range d.Changes {
		sb.WriteString(c.Unified)
	}
	return sb.String()
}

// AsReferenced drops fetch metadata.
func (c *Current) AsReferenced() *Referenced {
	files := make(map[string]string, len(c.Files))
	for k, v := range c.Files {
		files[k] = v
	}
	return &Referenced{Remote: c.Remote, Revision: c.Revision, Pattern: c.Pattern, Files: files}
}

// Diff compares every path present on either side; a missing side counts as
// empty content.
func (c *Current) Diff(ref *Referenced) (*Diff, error) {
	d := &Diff{
		RevisionChanged:    ref.Revision != c.Revision,
		ReferencedRevision: ref.Revision,
		CurrentRevision:    c.Revision,
	}

	paths := make(map[string]struct{}, len(ref.Files)+len(c.Files))
	for p := range ref.Files {
		paths[p] = struct{}{}
	}
	for p := range c.Files {
		paths[p] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, p := range sorted {
		before, after := ref.Files[p], c.Files[p]
		if before == after {
			continue
		}
		d.Changes = append(d.Changes, FileChange{
			Path:    p,
			Before:  before,
			After:   after,
			Unified: textdiff.Unified(p, before, after),
		})
	}
	return d, nil
}

// Comparison is the comparison type produced by Source.
type Comparison = content.Comparison[*Referenced, *Current, *Diff]

// Source cites Pattern inside Remote at Revision.
type Source struct {
	Remote   string
	Revision string
	Pattern  PathPattern

	// CurrentRevision is the revision the current side is read from. It
	// defaults to Revision, so a branch citation compares the branch's
	// fetched state against the cached baseline.
	CurrentRevision string

	ReposDir string
	Logger   *slog.Logger

	repo *Repository
}

// New builds a source for path (see ParsePathPattern) in remote at
// revision. Clones are kept under reposDir.
func New(reposDir, remote, revision, path string) (*Source, error) {
	if remote == "" {
		return nil, content.ParsingError(nil, "missing remote")
	}
	if revision == "" {
		return nil, content.ParsingError(nil, "missing revision")
	}
	pattern, err := ParsePathPattern(path)
	if err != nil {
		return nil, err
	}
	return &Source{Remote: remote, Revision: revision, Pattern: pattern, ReposDir: reposDir}, nil
}

func (s *Source) currentRevision() string {
	if s.CurrentRevision != "" {
		return s.CurrentRevision
	}
	return s.Revision
}

// ID is derived from remote, revision and pattern. The current revision is
// included only when it differs from the cited one.
func (s *Source) ID() content.ID {
	params := map[string]interface{}{
		"remote":   s.Remote,
		"revision": s.Revision,
		"pattern":  s.Pattern.String(),
	}
	if s.CurrentRevision != "" && s.CurrentRevision != s.Revision {
		params["currentRevision"] = s.CurrentRevision
	}
	id, err := ident.Derive("git", s.Remote, params)
	if err != nil {
		return content.ID("git-" + ident.Slugify(s.Remote+" "+s.Revision+" "+s.Pattern.String()))
	}
	return content.ID(id)
}

func (s *Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// repository acquires the clone once per source.
func (s *Source) repository() (*Repository, error) {
	if s.repo != nil {
		return s.repo, nil
	}
	r, err := Acquire(s.ReposDir, s.Remote, s.logger())
	if err != nil {
		return nil, err
	}
	s.repo = r
	return r, nil
}

// extract reads the pattern at revision.
func (s *Source) extract(revision string) (files map[string]string, commit string, err error) {
	repo, err := s.repository()
	if err != nil {
		return nil, "", err
	}
	resolved, err := repo.ResolveTree(revision)
	if err != nil {
		return nil, "", err
	}

	if s.Pattern.IsGlob() {
		files, err = repo.GlobFiles(resolved.Tree, s.Pattern.Glob)
		if err != nil {
			return nil, "", err
		}
		return files, resolved.Commit, nil
	}

	text, err := ReadFile(resolved.Tree, s.Pattern.Path)
	if err != nil {
		return nil, "", err
	}
	if s.Pattern.LineRange != nil {
		text, err = sliceLines(s.Pattern.Path, text, *s.Pattern.LineRange)
		if err != nil {
			return nil, "", err
		}
	}
	return map[string]string{s.Pattern.Path: text}, resolved.Commit, nil
}

// Referenced reads the pattern at the cited revision.
func (s *Source) Referenced() (*Referenced, error) {
	files, _, err := s.extract(s.Revision)
	if err != nil {
		return nil, err
	}
	return &Referenced{Remote: s.Remote, Revision: s.Revision, Pattern: s.Pattern, Files: files}, nil
}

// Current reads the pattern at the current revision.
func (s *Source) Current() (*Current, error) {
	rev := s.currentRevision()
	files, commit, err := s.extract(rev)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, v := range files {
		n += len(v)
	}
	return &Current{
		Remote:     s.Remote,
		Revision:   rev,
		Pattern:    s.Pattern,
		Files:      files,
		Commit:     commit,
		FetchedAt:  time.Now().UTC(),
		ByteLength: n,
	}, nil
}

// Get fetches both sides and diffs them.
func (s *Source) Get() (*Comparison, error) {
	return content.Get[*Referenced, *Current, *Diff](s)
}

// GetWithCache fetches a comparison through c.
func (s *Source) GetWithCache(c *cache.Cache, behavior cache.Behavior) (*Comparison, error) {
	return cache.GetSourceWithCache[*Referenced, *Current, *Diff](c, s, behavior)
}
