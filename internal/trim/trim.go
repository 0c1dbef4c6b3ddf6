// Package trim cuts a file down to the lines between the first and last
// occurrence of a search string.
package trim

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNotFound reports that the search string occurs nowhere in the file;
// the file is left untouched.
var ErrNotFound = errors.New("search string not found")

// Result describes one trimmed file. Line numbers are 1-based.
type Result struct {
	Path      string
	FirstLine int
	LastLine  int
	Kept      int
	Total     int
}

// File trims path in place to the inclusive range between the first and
// last line containing search. With dryRun set the file is not written.
func File(path, search string, dryRun bool) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	// SplitAfter leaves a phantom empty element after a trailing newline.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	first, last := -1, -1
	for i, line := range lines {
		if strings.Contains(line, search) {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrNotFound, search)
	}

	kept := lines[first : last+1]
	res := &Result{
		Path:      path,
		FirstLine: first + 1,
		LastLine:  last + 1,
		Kept:      len(kept),
		Total:     len(lines),
	}
	if dryRun {
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(kept, "")), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return res, nil
}

// Expand resolves a doublestar glob pattern to matching files. A pattern
// without glob metacharacters passes through untouched, so plain paths
// still reach File even when they do not exist yet (and fail there with a
// useful error).
func Expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
}
