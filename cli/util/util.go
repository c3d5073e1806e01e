package util

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// StdoutRedirected returns true if stdout is redirected to a file or pipe.
func StdoutRedirected() bool {
	if fi, err := os.Stdout.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}

// ExpandGlobs resolves each pattern, which may use ** to match across
// directories, and returns the matched files in sorted order without
// duplicates. A pattern that matches nothing is an error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	paths := []string{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				paths = append(paths, match)
			}
		}
	}
	slices.Sort(paths)
	return paths, nil
}
