package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// expandPaths expands glob patterns (also when the shell left them quoted)
// and drops repeated matches. Plain paths pass through unchanged so a missing
// file is reported by the selection, not here.
func expandPaths(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			add(pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
