package service

import "strings"

// Highlights returns the lowercased query words that occur in text.
func Highlights(query, text string) []string {
	lowered := strings.ToLower(text)
	out := make([]string, 0)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(lowered, w) {
			out = append(out, w)
		}
	}
	return out
}
