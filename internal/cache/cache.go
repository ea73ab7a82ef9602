// Package cache persists cited snapshots so repeated checks compare against a
// stable baseline.
//
// Each entry is one JSON file at {citeDir}/{subdir}/{id}. Writes are
// last-write-wins; there is no locking across processes.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"citecheck/internal/content"
)

// DefaultSubdir is the cache directory name under the cite directory.
const DefaultSubdir = "cache"

// Behavior selects how GetSourceWithCache treats stored baselines.
type Behavior int

const (
	// Enabled compares against the stored baseline when there is one.
	Enabled Behavior = iota
	// Ignored always fetches both sides fresh.
	Ignored
)

func (b Behavior) String() string {
	if b == Ignored {
		return "ignored"
	}
	return "enabled"
}

// ParseBehavior parses "enabled" or "ignored".
func ParseBehavior(s string) (Behavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enabled", "on", "":
		return Enabled, nil
	case "ignored", "off":
		return Ignored, nil
	default:
		return 0, fmt.Errorf("invalid cache behavior %q (want enabled or ignored)", s)
	}
}

// Cache is a directory of per-ID snapshot files.
type Cache struct {
	dir    string
	Logger *slog.Logger
}

// Open returns a cache rooted at {citeDir}/{subdir}, creating it if needed.
func Open(citeDir, subdir string) (*Cache, error) {
	if subdir == "" {
		subdir = DefaultSubdir
	}
	dir := filepath.Join(citeDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, content.CacheError(err, "creating cache directory %s", dir)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the directory holding cache entries.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file backing id.
func (c *Cache) Path(id content.ID) string {
	return filepath.Join(c.dir, string(id))
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Cache) checkID(id content.ID) error {
	s := string(id)
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return content.CacheError(nil, "invalid cache id %q", s)
	}
	return nil
}

// Get loads the snapshot stored for id. A missing entry returns found=false
// and no error.
func Get[R any](c *Cache, id content.ID) (value R, found bool, err error) {
	if err := c.checkID(id); err != nil {
		return value, false, err
	}

	data, err := os.ReadFile(c.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return value, false, nil
	}
	if err != nil {
		return value, false, content.CacheError(err, "reading cache entry %s", id)
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, content.CacheError(err, "decoding cache entry %s", id)
	}
	if isNil(value) {
		return value, false, content.CacheError(nil, "cache entry %s is empty", id)
	}
	return value, true, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Set stores current, re-shaped as its referenced form, under id. Existing
// entries are overwritten unconditionally.
func Set[R any](c *Cache, id content.ID, current interface{ AsReferenced() R }) error {
	if err := c.checkID(id); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current.AsReferenced(), "", "  ")
	if err != nil {
		return content.CacheError(err, "encoding cache entry %s", id)
	}

	// Write to a sibling temp file first so readers never see a torn entry.
	tmp, err := os.CreateTemp(c.dir, "."+string(id)+".tmp-*")
	if err != nil {
		return content.CacheError(err, "writing cache entry %s", id)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return content.CacheError(err, "writing cache entry %s", id)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return content.CacheError(err, "writing cache entry %s", id)
	}
	if err := os.Rename(tmpName, c.Path(id)); err != nil {
		os.Remove(tmpName)
		return content.CacheError(err, "writing cache entry %s", id)
	}
	return nil
}

// Delete removes the entry for id. Deleting an entry that does not exist
// succeeds.
func (c *Cache) Delete(id content.ID) error {
	if err := c.checkID(id); err != nil {
		return err
	}
	err := os.Remove(c.Path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return content.CacheError(err, "deleting cache entry %s", id)
	}
	return nil
}

// ReadRaw returns the stored bytes for id, or found=false.
func (c *Cache) ReadRaw(id content.ID) (data []byte, found bool, err error) {
	if err := c.checkID(id); err != nil {
		return nil, false, err
	}
	data, err = os.ReadFile(c.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, content.CacheError(err, "reading cache entry %s", id)
	}
	return data, true, nil
}

// List returns the IDs of all stored entries.
func (c *Cache) List() ([]content.ID, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, content.CacheError(err, "listing cache directory %s", c.dir)
	}
	var ids []content.ID
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, content.ID(e.Name()))
	}
	return ids, nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	ids, err := c.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

// GetSourceWithCache fetches a comparison for src under behavior.
//
// With Ignored, both sides are fetched fresh and the fresh current becomes
// the new baseline. With Enabled, a stored baseline is used as the referenced
// side when present; otherwise both sides are fetched fresh and the current
// is stored. The baseline is always seeded from a current snapshot.
func GetSourceWithCache[R any, C content.Current[R, D], D content.Diff](
	c *Cache,
	src content.Source[R, C, D],
	behavior Behavior,
) (*content.Comparison[R, C, D], error) {
	id := src.ID()
	log := c.logger().With("id", string(id), "cache", behavior.String())

	if behavior == Enabled {
		cached, found, err := Get[R](c, id)
		if err != nil {
			return nil, err
		}
		if found {
			log.Debug("using cached baseline")
			cur, err := src.Current()
			if err != nil {
				return nil, fmt.Errorf("fetching current content for %s: %w", id, err)
			}
			return content.Compare[R, C, D](cached, cur)
		}
		log.Debug("no cached baseline, fetching both sides")
	}

	ref, err := src.Referenced()
	if err != nil {
		return nil, fmt.Errorf("fetching referenced content for %s: %w", id, err)
	}
	cur, err := src.Current()
	if err != nil {
		return nil, fmt.Errorf("fetching current content for %s: %w", id, err)
	}
	if err := Set[R](c, id, cur); err != nil {
		return nil, err
	}
	log.Debug("stored new baseline")

	return content.Compare[R, C, D](ref, cur)
}
