package termui

import (
	"strings"

	"guidechat/internal/domain/conversation"
)

// App implements conversation.Listener: the store stays free of rendering
// and pushes state changes here.

// ConversationsChanged refreshes the sidebar. The terminal list is only
// repainted when something visible changed (order, titles, selection), not
// on every timestamp bump.
func (a *App) ConversationsChanged(list []*conversation.Conversation, activeID string) {
	ids := make([]string, len(list))
	var sig strings.Builder
	for i, conv := range list {
		ids[i] = conv.ID
		sig.WriteString(conv.ID)
		sig.WriteString("\x00")
		sig.WriteString(conv.Title)
		sig.WriteString("\x00")
	}
	sig.WriteString(activeID)

	a.mu.Lock()
	a.listIndex = ids
	changed := a.sidebarState != sig.String()
	a.sidebarState = sig.String()
	a.mu.Unlock()

	if changed {
		a.renderer.RenderSidebar(list, activeID)
	}
}

// ActiveChanged halts any in-progress speech and repopulates the view from
// the now-active conversation's stored messages, with no reveal effect.
func (a *App) ActiveChanged(conv *conversation.Conversation) {
	a.speech.Stop()
	a.renderer.RenderConversation(conv)
}

// ExamplesVisibility shows the example prompts until the conversation's
// first user message hides them for good.
func (a *App) ExamplesVisibility(hidden bool) {
	a.mu.Lock()
	a.examplesHidden = hidden
	a.mu.Unlock()

	if !hidden {
		a.renderer.RenderExamples(a.profile.Examples)
	}
}
