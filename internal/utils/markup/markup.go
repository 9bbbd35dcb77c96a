// Package markup converts the constrained markdown subset produced by the
// answer backend into display markup. The output uses a small fixed tag set
// (<strong>, <ul>, <li>, <br>) that the terminal renderer maps to ANSI.
package markup

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns, applied in Format in this exact order. Later rules
// must not break the output of earlier ones.
var (
	numberedBoldPattern = regexp.MustCompile(`(\d+)\.\s+\*\*([^*]+)\*\*:`)
	boldPattern         = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	starBulletPattern   = regexp.MustCompile(`\n\s*\*\s+([^\n]+)`)
	plusBulletPattern   = regexp.MustCompile(`\n\s*\+\s+([^\n]+)`)
	listBlockPattern    = regexp.MustCompile(`(?s)(<li>.*?</li>(\s*<li>.*?</li>)*)`)
	paragraphPattern    = regexp.MustCompile(`\n\n`)
	// Matches a newline plus an optional following <li>; the replacement
	// keeps the match intact when the <li> is present, standing in for the
	// negative lookahead RE2 does not support.
	singleBreakPattern = regexp.MustCompile(`\n(<li>)?`)
)

// Format transforms markdown-style text into display markup.
func Format(text string) string {
	out := numberedBoldPattern.ReplaceAllString(text, "<strong>$1. $2:</strong>")
	out = boldPattern.ReplaceAllString(out, "<strong>$1</strong>")
	out = starBulletPattern.ReplaceAllString(out, "<li>$1</li>")
	out = plusBulletPattern.ReplaceAllString(out, "<li>$1</li>")
	out = listBlockPattern.ReplaceAllString(out, "<ul>$1</ul>")
	out = paragraphPattern.ReplaceAllString(out, "<br><br>")
	out = singleBreakPattern.ReplaceAllStringFunc(out, func(m string) string {
		if strings.HasSuffix(m, "<li>") {
			return m
		}
		return "<br>"
	})
	return out
}

var (
	boldMarkerPattern   = regexp.MustCompile(`\*\*`)
	spokenStarPattern   = regexp.MustCompile(`\n\s*\*\s+`)
	spokenPlusPattern   = regexp.MustCompile(`\n\s*\+\s+`)
	spokenNumberPattern = regexp.MustCompile(`\n\s*\d+\.\s+`)
	tagPattern          = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// Strip removes markdown markers and markup tags from text so it reads
// naturally when handed to a speech synthesizer. List markers become pauses
// and numbered items are spoken as "number N".
func Strip(text string) string {
	out := boldMarkerPattern.ReplaceAllString(text, "")
	out = spokenStarPattern.ReplaceAllString(out, ", ")
	out = spokenPlusPattern.ReplaceAllString(out, ", ")
	out = spokenNumberPattern.ReplaceAllString(out, ", number ")
	out = tagPattern.ReplaceAllString(out, " ")
	out = whitespacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Tokens splits formatted markup into reveal units: every tag is a single
// token and every plain character is its own token, so a progressive reveal
// never emits a partial tag.
func Tokens(formatted string) []string {
	tokens := make([]string, 0, len(formatted))
	runes := []rune(formatted)
	for i := 0; i < len(runes); {
		if runes[i] == '<' {
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '>' {
					end = j
					break
				}
			}
			if end != -1 {
				tokens = append(tokens, string(runes[i:end+1]))
				i = end + 1
				continue
			}
		}
		tokens = append(tokens, string(runes[i]))
		i++
	}
	return tokens
}
