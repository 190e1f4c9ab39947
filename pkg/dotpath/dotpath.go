// Package dotpath converts between nested maps and flat maps keyed by
// dot-separated paths ({"a": {"b": 1}} <-> {"a.b": "1"}).
//
// It is meant for boundaries that only speak flat key/value pairs, such as
// repeated --meta flags or the file server's asset index.
package dotpath

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Separator joins path segments.
const Separator = "."

// ErrConflict is returned when a key is used both as a value and as a parent.
var ErrConflict = errors.New("dotpath: conflicting keys")

// Flatten turns a nested map into a flat map. Leaf values are formatted with
// fmt; lists become comma-joined strings. Empty nested maps are dropped.
func Flatten(tree map[string]any) map[string]string {
	out := make(map[string]string)
	flatten("", tree, out)
	return out
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case map[string]string:
			for sk, sv := range val {
				out[key+Separator+sk] = sv
			}
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(parts, ",")
		case []string:
			out[key] = strings.Join(val, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Unflatten rebuilds the nested form. Keys without a separator stay at the top
// level. Keys are applied in sorted order so conflicts are reported
// deterministically.
func Unflatten(flat map[string]string) (map[string]any, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make(map[string]any)
	for _, key := range keys {
		if err := Set(result, key, flat[key]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Set assigns value at the dotted key inside tree, creating parents as needed.
func Set(tree map[string]any, key string, value any) error {
	parts := strings.Split(key, Separator)
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("dotpath: empty segment in key %q", key)
		}
	}

	node := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part]
		if !ok {
			child := make(map[string]any)
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q is a value, cannot hold %q", ErrConflict, part, key)
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	if existing, ok := node[leaf].(map[string]any); ok && len(existing) > 0 {
		return fmt.Errorf("%w: %q already has children", ErrConflict, key)
	}
	node[leaf] = value
	return nil
}

// ParseAssignments parses "key=value" pairs into a flat map. Later pairs win.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("dotpath: expected key=value, got %q", pair)
		}
		out[k] = v
	}
	return out, nil
}
