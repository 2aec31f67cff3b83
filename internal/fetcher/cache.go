package fetcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// DiskCache stores archives under dir, named by the md5 of their content.
// An entry only becomes visible after Commit, so readers never observe a
// partially written archive.
type DiskCache struct {
	dir string
}

// NewDiskCache creates dir if needed and removes partial files left by an
// interrupted run.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".partial-*"))
	for _, p := range leftovers {
		_ = os.Remove(p)
	}
	return &DiskCache{dir: dir}, nil
}

// Path is where the archive with the given hash lives once committed.
func (c *DiskCache) Path(hash string) string {
	return filepath.Join(c.dir, hash+".zip")
}

// Lookup reports the path and size of a committed entry.
func (c *DiskCache) Lookup(hash string) (string, int64, bool) {
	if !hashPattern.MatchString(hash) {
		return "", 0, false
	}
	p := c.Path(hash)
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		return "", 0, false
	}
	return p, fi.Size(), true
}

// Stage opens a temporary file inside the cache directory so that Commit
// can rename it into place atomically.
func (c *DiskCache) Stage() (*os.File, error) {
	f, err := os.CreateTemp(c.dir, ".partial-*")
	if err != nil {
		return nil, fmt.Errorf("stage cache entry: %w", err)
	}
	return f, nil
}

// Commit syncs and closes f and publishes it under hash. When the entry
// already exists the staged copy is dropped.
func (c *DiskCache) Commit(f *os.File, hash string) (string, error) {
	if !hashPattern.MatchString(hash) {
		c.Discard(f)
		return "", fmt.Errorf("commit cache entry: invalid hash %q", hash)
	}
	if err := f.Sync(); err != nil {
		c.Discard(f)
		return "", fmt.Errorf("commit cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("commit cache entry: %w", err)
	}
	dst := c.Path(hash)
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(f.Name())
		return dst, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("commit cache entry: %w", err)
	}
	if err := os.Rename(f.Name(), dst); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("commit cache entry: %w", err)
	}
	return dst, nil
}

// Discard closes and removes a staged file.
func (c *DiskCache) Discard(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}
