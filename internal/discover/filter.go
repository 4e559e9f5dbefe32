// SPDX-License-Identifier: AGPL-3.0-or-later

package discover

import (
	"path/filepath"
	"sort"
	"strings"
)

// FilterOptions defines criteria for including or excluding files.
type FilterOptions struct {
	// ExcludeDirs is a list of directory names to exclude.
	// Matching is segment-aware: "vendor" excludes "vendor/a.feature" and
	// "suite/vendor/b.feature", but not "vendor_stuff/c.feature".
	ExcludeDirs []string

	// IncludeExtensions is a list of extensions to include (e.g. ".feature").
	// If empty, all extensions are included.
	IncludeExtensions []string
}

// DefaultExcludeDirs returns directories never searched for features.
func DefaultExcludeDirs() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		"testdata",
		".clirig",
	}
}

// FilterFiles applies opts to paths and returns the survivors sorted.
func FilterFiles(paths []string, opts FilterOptions) []string {
	if len(paths) == 0 {
		return nil
	}

	var filtered []string
	for _, path := range paths {
		if shouldExclude(path, opts.ExcludeDirs) {
			continue
		}
		if !shouldIncludeExtension(path, opts.IncludeExtensions) {
			continue
		}
		filtered = append(filtered, path)
	}

	sort.Strings(filtered)
	return filtered
}

func shouldExclude(path string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		for _, exclude := range excludes {
			if part == exclude {
				return true
			}
		}
	}
	return false
}

func shouldIncludeExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
