package moderation

import "strings"

// TextMatchesPack reports whether free text contains any keyword of a pack.
// Matching is case-insensitive; underscore keywords also match their
// space-separated form so booru-style pack entries hit prose titles and
// descriptions.
func TextMatchesPack(text string, pack []string) bool {
	text = strings.ToLower(text)
	for _, keyword := range pack {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			return true
		}
		if strings.ContainsRune(keyword, '_') &&
			strings.Contains(text, strings.ReplaceAll(keyword, "_", " ")) {
			return true
		}
	}
	return false
}
