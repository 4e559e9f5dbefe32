// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discover finds Gherkin feature files on disk.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FeatureExt is the extension of Gherkin feature files.
const FeatureExt = ".feature"

// Features returns the feature files under roots, sorted and de-duplicated.
// A root that is itself a file is returned as-is whatever its location, so
// explicitly named features are never filtered out.
func Features(roots []string) ([]string, error) {
	opts := FilterOptions{
		ExcludeDirs:       DefaultExcludeDirs(),
		IncludeExtensions: []string{FeatureExt},
	}

	seen := make(map[string]bool)
	var explicit, walked []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("feature path %s: %w", root, err)
		}
		if !info.IsDir() {
			if !seen[root] {
				seen[root] = true
				explicit = append(explicit, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				rel, _ := filepath.Rel(root, path)
				if rel != "." && shouldExclude(rel, opts.ExcludeDirs) {
					return filepath.SkipDir
				}
				return nil
			}
			if !seen[path] {
				seen[path] = true
				walked = append(walked, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	// Exclusions apply below a root, not to the root path itself.
	var found []string
	for _, p := range walked {
		if shouldIncludeExtension(p, opts.IncludeExtensions) {
			found = append(found, p)
		}
	}
	return FilterFiles(append(explicit, found...), FilterOptions{}), nil
}
