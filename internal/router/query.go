package router

import (
	"net/url"
	"strings"
)

// ParseQuery turns a raw query string, with or without its leading '?', into
// a flat key/value map. Keys are taken verbatim, values are percent-decoded
// ('+' stays a plus) and the last occurrence of a repeated key wins. Parts
// without a key are dropped; a key without '=' maps to "".
func ParseQuery(raw string) map[string]string {
	params := make(map[string]string)
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return params
	}

	for _, part := range strings.Split(raw, "&") {
		key, value, _ := strings.Cut(part, "=")
		if key == "" {
			continue
		}
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		params[key] = value
	}
	return params
}
