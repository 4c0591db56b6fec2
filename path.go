package objectstore

import (
	"slices"
	"strings"
)

// JoinPath joins segments with sep. Empty segments are ignored and exactly
// one separator is placed between two non-empty segments.
func JoinPath(sep string, p string, paths ...string) string {
	var b strings.Builder
	for _, segment := range append([]string{p}, paths...) {
		if segment == "" {
			continue
		}

		if b.Len() > 0 {
			left := strings.HasSuffix(b.String(), sep)
			right := strings.HasPrefix(segment, sep)

			switch {
			case left && right:
				segment = strings.TrimLeft(segment, sep)
			case !left && !right:
				b.WriteString(sep)
			}
		}

		b.WriteString(segment)
	}

	return b.String()
}

// TrimSeparator removes a single trailing separator.
func TrimSeparator(path, sep string) string {
	return strings.TrimSuffix(path, sep)
}

// DirPrefix returns path in its directory form, ending with sep.
// The empty path stays empty.
func DirPrefix(path, sep string) string {
	if path == "" || strings.HasSuffix(path, sep) {
		return path
	}
	return path + sep
}

// SplitURI splits "scheme://bucket/key" into bucket and key.
// The key may be empty for bucket roots.
func SplitURI(scheme, path string) (string, string, error) {
	rest, ok := strings.CutPrefix(path, scheme+"://")
	if !ok {
		return "", "", InvalidPath(nil, path)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", InvalidPath(nil, path)
	}

	return bucket, key, nil
}

// SortedUnique sorts paths ascending and drops duplicates in place.
func SortedUnique(paths []string) []string {
	slices.Sort(paths)
	return slices.Compact(paths)
}

// GroupChildren reduces keys under prefix to one level below it, the way a
// delimiter listing does: keys with another sep after prefix collapse into
// their common prefix (without trailing sep). Keys equal to prefix are dropped.
func GroupChildren(keys []string, prefix, sep string) []string {
	children := make([]string, 0, len(keys))
	for _, key := range keys {
		rel, ok := strings.CutPrefix(key, prefix)
		if !ok || rel == "" {
			continue
		}

		if i := strings.Index(rel, sep); i >= 0 {
			key = prefix + rel[:i]
		}
		children = append(children, key)
	}

	return SortedUnique(children)
}
