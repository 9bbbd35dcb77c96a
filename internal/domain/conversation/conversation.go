// Package conversation owns the conversation set: creation, selection,
// message history, title derivation and persistence of every chat thread.
package conversation

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultTitle is the sentinel a conversation carries until its first user
// message arrives.
const DefaultTitle = "New Conversation"

// Message is one chat entry. Immutable once created; ordering within a
// conversation is append-only.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Time    int64  `json:"time"`
}

// Conversation is one persisted chat thread. Messages is never empty after
// creation: every conversation is seeded with an assistant greeting.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	Created      int64     `json:"created"`
	LastUpdated  int64     `json:"lastUpdated"`
	HideExamples bool      `json:"hideExamples"`
}

// New builds a conversation seeded with the assistant greeting.
func New(id, greeting string, now int64) *Conversation {
	return &Conversation{
		ID:    id,
		Title: DefaultTitle,
		Messages: []Message{
			{Role: RoleAssistant, Content: greeting, Time: now},
		},
		Created:      now,
		LastUpdated:  now,
		HideExamples: false,
	}
}

// UserMessageCount returns how many user messages the conversation holds.
func (c *Conversation) UserMessageCount() int {
	count := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			count++
		}
	}
	return count
}

// FirstUserMessage returns the earliest user message, if any.
func (c *Conversation) FirstUserMessage() (Message, bool) {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			return m, true
		}
	}
	return Message{}, false
}
