// Package strings holds small string helpers shared by config and transport.
package strings

import "strings"

// CleanList trims each entry and drops blanks and repeats, keeping the first
// occurrence order. Used for comma separated settings.
func CleanList(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
