// Package monitor holds the hierarchical state snapshots published by the
// channel engine on every tick. Keys are slash-separated paths; values are
// scalars, slices, or nested State subtrees.
package monitor

import "sort"

// State is a string-keyed snapshot of a component's observable state.
// A State is rebuilt (not merged) by its owner; readers must treat it as
// immutable once handed out.
type State map[string]any

// Set stores a scalar or slice value at key.
func (s State) Set(key string, value any) {
	s[key] = value
}

// Assign replaces the subtree at key.
func (s State) Assign(key string, sub State) {
	s[key] = sub
}

// Clear removes all entries.
func (s State) Clear() {
	for k := range s {
		delete(s, k)
	}
}

// Keys returns the top-level keys in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a deep copy. Nested State subtrees are copied; slice values
// are copied shallowly since owners never mutate published slices.
func (s State) Copy() State {
	out := make(State, len(s))
	for k, v := range s {
		if sub, ok := v.(State); ok {
			out[k] = sub.Copy()
		} else {
			out[k] = v
		}
	}
	return out
}

// Flatten returns the state as a flat path → value map, descending into
// nested subtrees with slash-joined keys.
func (s State) Flatten() map[string]any {
	out := make(map[string]any)
	s.flattenInto("", out)
	return out
}

func (s State) flattenInto(prefix string, out map[string]any) {
	for k, v := range s {
		path := k
		if prefix != "" {
			path = prefix + "/" + k
		}
		if sub, ok := v.(State); ok {
			sub.flattenInto(path, out)
		} else {
			out[path] = v
		}
	}
}
