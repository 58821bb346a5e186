package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ListImageFiles returns the names of the regular files in dir whose extension
// matches one of extensions, case-insensitively. Names are sorted.
//
// Arguments:
// - dir: Directory path containing image files.
// - extensions: Accepted extensions including the dot, e.g. ".jpg".
//
// Returns:
// - []string: File names relative to dir.
// - error: Error if the directory cannot be read.
func ListImageFiles(dir string, extensions ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if HasExtension(entry.Name(), extensions...) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// HasExtension reports whether name ends in one of extensions, ignoring case.
func HasExtension(name string, extensions ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
