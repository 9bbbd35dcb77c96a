// Package termui renders the chat into a terminal: message list, sidebar,
// typewriter reveal and the thinking indicator, plus the interactive input
// loop that drives the rest of the application.
package termui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"guidechat/internal/domain/conversation"
	"guidechat/internal/infrastructure/speech"
	"guidechat/internal/utils/markup"
)

// Renderer writes the visible message list. All terminal writes go through
// one mutex so the reveal goroutine and the rest of the app never interleave
// mid-line.
type Renderer struct {
	speech *speech.Controller

	revealInterval time.Duration
	revealDelay    time.Duration
	thinkInterval  time.Duration

	color bool
	width int

	writeMu sync.Mutex
	out     io.Writer

	taskMu    sync.Mutex
	reveal    *task
	indicator *task
}

// NewRenderer builds a renderer for out. When out is a terminal the renderer
// uses ANSI styling and the real terminal width.
func NewRenderer(out io.Writer, speechCtl *speech.Controller, revealInterval, revealDelay, thinkInterval time.Duration) *Renderer {
	r := &Renderer{
		speech:         speechCtl,
		revealInterval: revealInterval,
		revealDelay:    revealDelay,
		thinkInterval:  thinkInterval,
		out:            out,
		width:          maxRulerWidth,
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.color = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < maxRulerWidth {
			r.width = w
		}
	}
	return r
}

func (r *Renderer) write(s string) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_, _ = io.WriteString(r.out, s)
}

func formatTime(epochMillis int64) string {
	return time.UnixMilli(epochMillis).Format("03:04 PM")
}

func (r *Renderer) dim(s string) string {
	if r.color {
		return ansiDim + s + ansiReset
	}
	return s
}

func (r *Renderer) bold(s string) string {
	if r.color {
		return ansiBold + s + ansiBoldOff
	}
	return s
}

// RenderInstant appends a message to the visible list without any reveal
// pacing. Assistant messages render through the markdown formatter and, when
// voice is enabled, start playing immediately.
func (r *Renderer) RenderInstant(msg conversation.Message) {
	r.CancelReveal()

	var b strings.Builder
	r.header(&b, msg)
	if msg.Role == conversation.RoleUser {
		b.WriteString(msg.Content)
	} else {
		b.WriteString(toTerminal(markup.Format(msg.Content), r.color))
	}
	b.WriteString("\n")
	if msg.Role == conversation.RoleAssistant {
		r.playbackHint(&b)
	}
	r.write(b.String())

	if msg.Role == conversation.RoleAssistant && r.speech.Enabled() {
		r.speech.Speak(msg.Content)
	}
}

// RenderConversation repopulates the view with a conversation's stored
// messages, instantly and in order. Any reveal still running is cancelled
// first.
func (r *Renderer) RenderConversation(conv *conversation.Conversation) {
	r.CancelReveal()

	var b strings.Builder
	ruler := strings.Repeat(sidebarRuler, r.width)
	b.WriteString("\n" + ruler + "\n")
	b.WriteString(r.bold(conv.Title) + "\n")
	b.WriteString(ruler + "\n")
	for _, msg := range conv.Messages {
		r.header(&b, msg)
		if msg.Role == conversation.RoleUser {
			b.WriteString(msg.Content)
		} else {
			b.WriteString(toTerminal(markup.Format(msg.Content), r.color))
		}
		b.WriteString("\n")
	}
	r.write(b.String())
}

// RenderSidebar lists conversations most-recently-updated first, numbering
// them for /open and /delete, with the active one marked.
func (r *Renderer) RenderSidebar(list []*conversation.Conversation, activeID string) {
	var b strings.Builder
	b.WriteString("\n" + r.dim(strings.Repeat(sidebarRuler, r.width)) + "\n")
	for i, conv := range list {
		marker := "  "
		if conv.ID == activeID {
			marker = "▸ "
		}
		line := fmt.Sprintf("%s%d. %s", marker, i+1, conv.Title)
		if conv.ID == activeID {
			b.WriteString(r.bold(line) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString(r.dim(strings.Repeat(sidebarRuler, r.width)) + "\n")
	r.write(b.String())
}

// RenderExamples shows the numbered example prompts.
func (r *Renderer) RenderExamples(examples []string) {
	if len(examples) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(r.dim("Try one of these with /ask <n>:") + "\n")
	for i, example := range examples {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, example))
	}
	r.write(b.String())
}

// RenderNotice prints a one-line informational message.
func (r *Renderer) RenderNotice(text string) {
	r.write(r.dim(text) + "\n")
}

// Prompt writes the input prompt.
func (r *Renderer) Prompt() {
	r.write("> ")
}

func (r *Renderer) header(b *strings.Builder, msg conversation.Message) {
	who := "You"
	if msg.Role == conversation.RoleAssistant {
		who = "Assistant"
	}
	b.WriteString("\n" + r.bold(who) + "  " + r.dim(formatTime(msg.Time)) + "\n")
}

func (r *Renderer) playbackHint(b *strings.Builder) {
	if r.speech.Available() {
		b.WriteString(r.dim("(/play reads this aloud)") + "\n")
	}
}
