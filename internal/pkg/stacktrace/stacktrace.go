// Package stacktrace shortens debug.Stack output for logs.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" frames of a raw stack
// trace, dropping runtime and dependency frames.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok || !strings.Contains(rest, ".go:") {
			continue
		}

		// drop the " +0x1f" program counter offset
		rest, _, _ = strings.Cut(rest, " ")
		paths = append(paths, "internal/"+rest)
	}

	return paths
}
