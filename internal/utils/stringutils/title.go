package stringutils

import "strings"

// titleMaxLen is the number of leading characters of the first user message
// kept as a conversation title.
const titleMaxLen = 30

const ellipsis = "..."

// DeriveTitle builds a sidebar title from the first user message of a
// conversation: the leading substring up to 30 characters, with an ellipsis
// marker when truncated. Deriving twice from the same message yields the
// same string.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= titleMaxLen {
		return content
	}
	return string(runes[:titleMaxLen]) + ellipsis
}
