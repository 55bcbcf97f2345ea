package fileutil

import (
	"os"
	"path/filepath"
)

// FindUpward looks for filename in start and each of its parents, stopping after
// the stop directory or the filesystem root, whichever comes first.
// Matches are returned nearest first.
func FindUpward(start, stop, filename string) []string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil
	}
	if stop != "" {
		if abs, err := filepath.Abs(stop); err == nil {
			stop = abs
		}
	}

	var found []string
	for {
		candidate := filepath.Join(dir, filename)
		if FileExists(candidate) {
			found = append(found, candidate)
		}

		if dir == stop {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return found
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
