package state

import "strings"

// pathSeparator joins key segments into a path.
const pathSeparator = "."

// joinPath appends a key segment to a base path. An empty base denotes the
// root, so the result is the segment itself.
func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + pathSeparator + key
}

// splitPath splits a path into its key segments. The empty path has no
// segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, pathSeparator)
}

// firstSegment returns the leading key segment of a path.
func firstSegment(path string) string {
	if i := strings.Index(path, pathSeparator); i >= 0 {
		return path[:i]
	}
	return path
}

// ancestorPaths returns the strict ancestors of a path ordered
// nearest-first: "a.b.c" yields ["a.b", "a"]. A single-segment path has no
// ancestors.
func ancestorPaths(path string) []string {
	var ancestors []string
	for {
		i := strings.LastIndex(path, pathSeparator)
		if i < 0 {
			return ancestors
		}
		path = path[:i]
		ancestors = append(ancestors, path)
	}
}
