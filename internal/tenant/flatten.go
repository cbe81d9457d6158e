// internal/tenant/flatten.go
//
// Nested attribute tree → dotted-key map.
package tenant

// Flatten walks a nested map and writes every leaf into out under its
// dotted path, each segment joined with ".".  prefix is prepended to
// every key; pass "" for none.  Non-map values are leaves, including
// slices, which bind as their fmt representation.
func Flatten(prefix string, tree map[string]any, out map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			Flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}
