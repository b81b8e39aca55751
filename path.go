package goforma

import (
	"reflect"
	"strings"
)

// Field paths are dot-joined names with array indices as bare numeric
// segments, e.g. "members.2.email". Schema-level (index-free) addressing
// interpolates "[]" for the item scope, e.g. "members[].email".

// JoinPath combines an ancestor base path with a local name.
func JoinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// SplitPath breaks a dotted path into segments. Empty input yields nil.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// relativeMarker prefixes dependsOn entries that resolve against the nearest
// enclosing array item instead of the form root.
const relativeMarker = "./"

// IsItemRelative reports whether a dependsOn entry is item-relative.
func IsItemRelative(dep string) bool {
	return strings.HasPrefix(dep, relativeMarker)
}

// TrimItemRelative strips the relative marker, returning the bare path.
func TrimItemRelative(dep string) string {
	return strings.TrimPrefix(dep, relativeMarker)
}

// ValueAtPath walks a value tree by dotted path. Traversal that hits a
// missing key, an out-of-range index, or a scalar mid-path yields (nil,
// false) rather than an error.
func ValueAtPath(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}
	cur := root
	for _, seg := range SplitPath(path) {
		next, ok := stepInto(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func stepInto(cur any, seg string) (any, bool) {
	switch v := cur.(type) {
	case map[string]any:
		val, ok := v[seg]
		return val, ok
	case []any:
		idx, ok := tryParseIndex(seg)
		if !ok || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	case nil:
		return nil, false
	}
	// Uncommon shapes (typed maps, typed slices) via reflection.
	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(seg))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := tryParseIndex(seg)
		if !ok || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	default:
		return nil, false
	}
}

func tryParseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
