package filesync

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Local reads and writes the server's own filesystem.
type Local struct{}

// List implements Store.
func (Local) List(dir, pattern string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var names []string
	if recursive {
		err = filepath.WalkDir(dir, func(p string, entry fs.DirEntry, errWalk error) error {
			if errWalk != nil {
				return errWalk
			}
			if entry.IsDir() {
				return nil
			}
			rel, errRel := filepath.Rel(dir, p)
			if errRel != nil {
				return errRel
			}
			names = append(names, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, errRead := os.ReadDir(dir)
		if errRead != nil {
			return nil, errRead
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			names = append(names, entry.Name())
		}
	}
	return filterPattern(names, pattern)
}

// Open implements Store.
func (Local) Open(p string) (io.ReadCloser, error) {
	return os.Open(p)
}

// Create implements Store. Parent directories are created as needed so
// recursive syncs reproduce the source layout.
func (Local) Create(p string) (io.WriteCloser, error) {
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(p)
}

// filterPattern keeps names whose base matches the wildcard pattern.
func filterPattern(names []string, pattern string) ([]string, error) {
	if pattern == "" {
		return names, nil
	}
	var kept []string
	for _, name := range names {
		ok, err := path.Match(pattern, path.Base(name))
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		if ok {
			kept = append(kept, name)
		}
	}
	return kept, nil
}
