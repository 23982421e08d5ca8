// Package sanitize strips credential-bearing keys from values before they are written to clients.
package sanitize

import (
	"encoding/json"
	"strings"
)

var sensitiveKeys = map[string]struct{}{
	"password":     {},
	"passwordhash": {},
	"token":        {},
	"secret":       {},
}

// IsSensitive reports whether a key must never leave the server. Matching is exact and case-insensitive.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// Value round-trips v through JSON and removes sensitive keys at any depth.
// Values that cannot be marshalled are returned unchanged.
func Value(v any) any {
	if v == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return v
	}

	return strip(generic)
}

func strip(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if IsSensitive(k) {
				delete(t, k)
				continue
			}
			t[k] = strip(inner)
		}
		return t
	case []any:
		for i := range t {
			t[i] = strip(t[i])
		}
		return t
	default:
		return v
	}
}
