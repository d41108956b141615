package transcript

import (
	"fmt"
	"path/filepath"
	"slices"
)

// ExpandPaths resolves transcript paths and glob patterns into a sorted,
// deduplicated list. A pattern that matches nothing is kept verbatim so the
// later read reports a precise "not found" error for it.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid transcript pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}

	slices.Sort(paths)
	return paths, nil
}
