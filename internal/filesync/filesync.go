// Package filesync copies files between two file stores for file-sync
// jobs. Unlike table jobs, file syncs run inside the console process, so
// the copy loop also produces the instance metrics.
package filesync

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Store is one side of a file sync.
type Store interface {
	// List returns file names relative to dir, filtered by the wildcard
	// pattern when non-empty.
	List(dir, pattern string, recursive bool) ([]string, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
}

// Options selects what to copy and where.
type Options struct {
	SourcePath  string
	TargetPath  string
	FilePattern string
	Recursive   bool
}

// Result reports what a sync moved.
type Result struct {
	ReadCount  int64
	WriteCount int64
	ReadBytes  int64
	WriteBytes int64
	Elapsed    time.Duration
}

// Run lists the source directory and copies every matching file to the
// target, preserving relative names. The first failed copy aborts the sync.
func Run(ctx context.Context, source, target Store, opts Options) (Result, error) {
	start := time.Now()
	files, err := source.List(opts.SourcePath, opts.FilePattern, opts.Recursive)
	if err != nil {
		return Result{}, fmt.Errorf("filesync: list %s: %w", opts.SourcePath, err)
	}

	var res Result
	for _, name := range files {
		if errCtx := ctx.Err(); errCtx != nil {
			return res, errCtx
		}
		copied, errCopy := copyFile(source, target, joinPath(opts.SourcePath, name), joinPath(opts.TargetPath, name))
		if errCopy != nil {
			return res, fmt.Errorf("filesync: copy %s: %w", name, errCopy)
		}
		res.ReadCount++
		res.WriteCount++
		res.ReadBytes += copied
		res.WriteBytes += copied
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func copyFile(source, target Store, src, dst string) (int64, error) {
	in, err := source.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := target.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, err
	}
	return n, out.Close()
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if dir[len(dir)-1] == '/' {
		return dir + name
	}
	return dir + "/" + name
}
