package gitsource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"citecheck/internal/content"
	"citecheck/internal/ident"
)

// Repository wraps a go-git repository checked out under the cite directory.
type Repository struct {
	repo *git.Repository
	path string
}

// ClonePath returns the deterministic local directory for remote under
// reposDir.
func ClonePath(reposDir, remote string) string {
	name, err := ident.Derive("repo", remote, remote)
	if err != nil {
		name = "repo-" + ident.Slugify(remote)
	}
	return filepath.Join(reposDir, name)
}

// Acquire opens the local clone of remote and updates it, or clones it if
// there is none. A failed update only logs a warning: the stale clone is
// still usable. A failed clone is fatal.
func Acquire(reposDir, remote string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := ClonePath(reposDir, remote)

	if _, err := os.Stat(dir); err == nil {
		r, err := Open(dir)
		if err != nil {
			return nil, err
		}
		if err := r.Update(); err != nil {
			logger.Warn("could not update repository, using stale data",
				"remote", remote, "path", dir, "error", err)
		}
		return r, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, content.InternalError(err, "checking clone directory %s", dir)
	}

	logger.Info("cloning repository", "remote", remote, "path", dir)
	if err := os.MkdirAll(reposDir, 0755); err != nil {
		return nil, content.InternalError(err, "creating repository directory %s", reposDir)
	}
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{
		URL:  remote,
		Tags: git.AllTags,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, content.NetworkError(err, "cloning %s", remote)
	}
	return &Repository{repo: repo, path: dir}, nil
}

// Open opens an existing Git repository.
func Open(repoPath string) (*Repository, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, content.DependencyError(err, "opening repository %s", repoPath)
	}
	return &Repository{repo: repo, path: repoPath}, nil
}

// Path returns the repository's directory.
func (r *Repository) Path() string {
	return r.path
}

// Update fetches every branch and tag from origin. Being up to date is not
// an error.
func (r *Repository) Update() error {
	err := r.repo.Fetch(&git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return content.NetworkError(err, "fetching origin")
	}
	return nil
}

// Resolved is a revision resolved to a tree.
type Resolved struct {
	Revision string
	Commit   string // empty when the revision named a tree directly
	Tree     *object.Tree
}

// ResolveTree resolves a revision (branch, tag, commit or tree hash, or any
// go-git revision expression) to a tree. Names are tried as remote-tracking
// branches first so a fetched update is seen even when the local branch is
// stale.
func (r *Repository) ResolveTree(revision string) (*Resolved, error) {
	hash, err := r.resolveHash(revision)
	if err != nil {
		return nil, err
	}

	obj, err := r.repo.Object(plumbing.AnyObject, hash)
	if err != nil {
		return nil, content.DependencyError(err, "reading object %s for revision %q", hash, revision)
	}

	// Annotated tags may point at other tags.
	for {
		tag, ok := obj.(*object.Tag)
		if !ok {
			break
		}
		obj, err = tag.Object()
		if err != nil {
			return nil, content.DependencyError(err, "peeling tag %s", tag.Name)
		}
	}

	switch o := obj.(type) {
	case *object.Commit:
		tree, err := o.Tree()
		if err != nil {
			return nil, content.DependencyError(err, "getting tree of commit %s", o.Hash)
		}
		return &Resolved{Revision: revision, Commit: o.Hash.String(), Tree: tree}, nil
	case *object.Tree:
		return &Resolved{Revision: revision, Tree: o}, nil
	default:
		return nil, content.ParsingError(nil, "invalid revision %q: %s is a %s, not a commit, tag or tree",
			revision, hash, obj.Type())
	}
}

func (r *Repository) resolveHash(revision string) (plumbing.Hash, error) {
	if plumbing.IsHash(revision) {
		return plumbing.NewHash(revision), nil
	}

	candidates := []string{revision}
	if !strings.HasPrefix(revision, git.DefaultRemoteName+"/") && !strings.HasPrefix(revision, "refs/") {
		candidates = []string{git.DefaultRemoteName + "/" + revision, revision}
	}

	var lastErr error
	for _, c := range candidates {
		h, err := r.repo.ResolveRevision(plumbing.Revision(c))
		if err == nil {
			return *h, nil
		}
		lastErr = err
	}
	return plumbing.ZeroHash, content.DependencyError(lastErr, "resolving revision %q", revision)
}

// ReadFile returns the UTF-8 content of the blob at filePath in tree.
func ReadFile(tree *object.Tree, filePath string) (string, error) {
	f, err := tree.File(filePath)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", content.ParsingError(err, "file %s not found", filePath)
	}
	if err != nil {
		return "", content.DependencyError(err, "getting file %s", filePath)
	}

	reader, err := f.Reader()
	if err != nil {
		return "", content.DependencyError(err, "opening file %s", filePath)
	}
	defer reader.Close()

	return readUTF8(filePath, reader)
}

func readUTF8(filePath string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", content.DependencyError(err, "reading file %s", filePath)
	}
	if !utf8.Valid(data) {
		return "", content.ParsingError(nil, "file %s is not valid UTF-8", filePath)
	}
	return string(data), nil
}

// GlobFiles walks tree and returns the content of every blob whose path
// matches pattern. The walk uses an explicit stack so deeply nested trees
// cannot exhaust the call stack.
func (r *Repository) GlobFiles(tree *object.Tree, pattern string) (map[string]string, error) {
	type frame struct {
		tree   *object.Tree
		prefix string
	}

	files := make(map[string]string)
	stack := []frame{{tree: tree}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, entry := range top.tree.Entries {
			full := entry.Name
			if top.prefix != "" {
				full = path.Join(top.prefix, entry.Name)
			}

			switch {
			case entry.Mode == filemode.Dir:
				sub, err := r.repo.TreeObject(entry.Hash)
				if err != nil {
					return nil, content.DependencyError(err, "reading tree %s", full)
				}
				stack = append(stack, frame{tree: sub, prefix: full})

			case entry.Mode == filemode.Submodule:
				continue

			case entry.Mode.IsFile():
				matched, err := doublestar.Match(pattern, full)
				if err != nil {
					return nil, content.ParsingError(err, "invalid glob pattern %q", pattern)
				}
				if !matched {
					continue
				}
				text, err := r.readBlob(full, entry.Hash)
				if err != nil {
					return nil, err
				}
				files[full] = text
			}
		}
	}
	return files, nil
}

func (r *Repository) readBlob(filePath string, hash plumbing.Hash) (string, error) {
	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		return "", content.DependencyError(err, "reading blob for %s", filePath)
	}
	reader, err := blob.Reader()
	if err != nil {
		return "", content.DependencyError(err, "opening blob for %s", filePath)
	}
	defer reader.Close()
	return readUTF8(filePath, reader)
}

func (r *Repository) String() string {
	return fmt.Sprintf("repository(%s)", r.path)
}
