package termui

import (
	"strings"

	"guidechat/internal/utils/markup"
)

const (
	ansiBold      = "\x1b[1m"
	ansiBoldOff   = "\x1b[22m"
	ansiDim       = "\x1b[2m"
	ansiReset     = "\x1b[0m"
	listItemLead  = "\n  • "
	clearLineSeq  = "\r\x1b[2K"
	sidebarRuler  = "─"
	maxRulerWidth = 60
)

// renderToken maps one markup token to its terminal form. Plain tokens pass
// through unchanged, so a reveal emitting token by token never writes a
// partial tag.
func renderToken(tok string, color bool) string {
	if !strings.HasPrefix(tok, "<") || !strings.HasSuffix(tok, ">") {
		return tok
	}
	switch tok {
	case "<strong>":
		if color {
			return ansiBold
		}
		return ""
	case "</strong>":
		if color {
			return ansiBoldOff
		}
		return ""
	case "<ul>":
		return ""
	case "</ul>":
		return "\n"
	case "<li>":
		return listItemLead
	case "</li>":
		return ""
	case "<br>":
		return "\n"
	default:
		// Unknown tag, render verbatim.
		return tok
	}
}

// toTerminal converts formatted markup into a terminal string.
func toTerminal(formatted string, color bool) string {
	var b strings.Builder
	for _, tok := range markup.Tokens(formatted) {
		b.WriteString(renderToken(tok, color))
	}
	return b.String()
}
