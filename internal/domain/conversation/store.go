package conversation

import (
	"errors"
	"sort"
	"sync"
	"time"

	"guidechat/internal/infrastructure/logger"
	"guidechat/internal/utils/idgen"
	"guidechat/internal/utils/stringutils"
)

// ErrNotFound is returned when a conversation id is absent from the set.
var ErrNotFound = errors.New("conversation not found")

// Repository persists the whole conversation set. Load returns an empty map
// when nothing has been persisted yet.
type Repository interface {
	Load() (map[string]*Conversation, error)
	Save(set map[string]*Conversation) error
}

// Listener receives state-change notifications so rendering stays out of the
// store. Implementations must not call back into the Store.
type Listener interface {
	// ConversationsChanged fires whenever the sidebar list needs a refresh:
	// list is sorted most-recently-updated first.
	ConversationsChanged(list []*Conversation, activeID string)
	// ActiveChanged fires when a different conversation becomes active; the
	// view repopulates instantly from conv.Messages.
	ActiveChanged(conv *Conversation)
	// ExamplesVisibility fires when the example prompts of the active
	// conversation should be hidden or shown.
	ExamplesVisibility(hidden bool)
}

// ConfirmFunc asks the user a yes/no question before a destructive action.
type ConfirmFunc func(prompt string) bool

// Store owns the conversation set and the active-conversation pointer. All
// mutations to conversation records go through it. Safe for concurrent use;
// listener callbacks fire outside the internal lock.
type Store struct {
	repo     Repository
	listener Listener
	confirm  ConfirmFunc
	greeting string
	now      func() int64

	mu            sync.Mutex
	conversations map[string]*Conversation
	activeID      string
}

// NewStore builds a store; Open must be called before any other operation.
func NewStore(repo Repository, greeting string, confirm ConfirmFunc, listener Listener) *Store {
	return &Store{
		repo:          repo,
		listener:      listener,
		confirm:       confirm,
		greeting:      greeting,
		now:           func() int64 { return time.Now().UnixMilli() },
		conversations: make(map[string]*Conversation),
	}
}

// Open loads the persisted set. An empty set gets one fresh conversation;
// otherwise the most-recently-updated conversation becomes active.
func (s *Store) Open() error {
	set, err := s.repo.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conversations = set
	if len(set) == 0 {
		conv := s.createLocked()
		s.mu.Unlock()
		s.notifyAll(conv)
		return nil
	}

	s.activeID = s.mostRecentLocked().ID
	conv := s.conversations[s.activeID]
	s.mu.Unlock()

	s.notifyAll(conv)
	return nil
}

// Create starts a fresh conversation seeded with the assistant greeting,
// persists it and makes it active.
func (s *Store) Create() *Conversation {
	s.mu.Lock()
	conv := s.createLocked()
	s.mu.Unlock()

	s.notifyAll(conv)
	return conv
}

// SetActive switches the active conversation. Unknown ids are ignored.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	conv, exists := s.conversations[id]
	if !exists {
		s.mu.Unlock()
		return
	}
	s.activeID = id
	s.mu.Unlock()

	s.notifyAll(conv)
}

// Append adds a message to the active conversation.
func (s *Store) Append(role Role, content string, timestamp int64) {
	s.mu.Lock()
	id := s.activeID
	s.mu.Unlock()
	// The active conversation always exists once Open has run.
	_ = s.AppendTo(id, role, content, timestamp)
}

// AppendTo adds a message to a specific conversation, updating its title and
// example-prompt visibility as needed. Used directly for backend answers so
// a response lands in the conversation that asked, even if the user has
// switched threads since.
func (s *Store) AppendTo(id string, role Role, content string, timestamp int64) error {
	s.mu.Lock()
	conv, exists := s.conversations[id]
	if !exists {
		s.mu.Unlock()
		return ErrNotFound
	}

	conv.Messages = append(conv.Messages, Message{Role: role, Content: content, Time: timestamp})
	conv.LastUpdated = timestamp

	examplesJustHidden := false
	if role == RoleUser {
		if conv.Title == DefaultTitle {
			if first, ok := conv.FirstUserMessage(); ok {
				conv.Title = stringutils.DeriveTitle(first.Content)
			}
		}
		if !conv.HideExamples && conv.UserMessageCount() == 1 {
			conv.HideExamples = true
			examplesJustHidden = true
		}
	}

	s.persistLocked()
	list, activeID := s.snapshotLocked()
	isActive := id == s.activeID
	s.mu.Unlock()

	s.listener.ConversationsChanged(list, activeID)
	if examplesJustHidden && isActive {
		s.listener.ExamplesVisibility(true)
	}
	return nil
}

// Delete removes one conversation after user confirmation. Deleting the
// active conversation immediately creates a new one, so there is never a
// moment without an active conversation.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	_, exists := s.conversations[id]
	s.mu.Unlock()
	if !exists {
		return
	}

	if !s.confirm("Are you sure you want to delete this conversation?") {
		return
	}

	s.mu.Lock()
	delete(s.conversations, id)
	wasActive := id == s.activeID
	if wasActive {
		conv := s.createLocked()
		s.mu.Unlock()
		s.notifyAll(conv)
		return
	}
	s.persistLocked()
	list, activeID := s.snapshotLocked()
	s.mu.Unlock()

	s.listener.ConversationsChanged(list, activeID)
}

// ClearAll empties the whole set after user confirmation and starts over
// with one fresh conversation.
func (s *Store) ClearAll() {
	if !s.confirm("Are you sure you want to clear all conversation history? This action cannot be undone.") {
		return
	}

	s.mu.Lock()
	s.conversations = make(map[string]*Conversation)
	conv := s.createLocked()
	s.mu.Unlock()

	s.notifyAll(conv)
}

// Reload replaces the in-memory set from the repository, keeping the active
// selection when it still exists. Called when another process rewrites the
// persisted document.
func (s *Store) Reload() error {
	set, err := s.repo.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conversations = set
	if _, stillThere := s.conversations[s.activeID]; !stillThere {
		if len(set) == 0 {
			conv := s.createLocked()
			s.mu.Unlock()
			s.notifyAll(conv)
			return nil
		}
		s.activeID = s.mostRecentLocked().ID
	}
	conv := s.conversations[s.activeID]
	s.mu.Unlock()

	s.notifyAll(conv)
	return nil
}

// Sorted returns the conversations most-recently-updated first.
func (s *Store) Sorted() []*Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, _ := s.snapshotLocked()
	return list
}

// Active returns the active conversation.
func (s *Store) Active() *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations[s.activeID]
}

// ActiveID returns the active conversation id.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Get looks up one conversation by id.
func (s *Store) Get(id string) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	return conv, ok
}

func (s *Store) createLocked() *Conversation {
	conv := New(idgen.NewConversationID(), s.greeting, s.now())
	s.conversations[conv.ID] = conv
	s.activeID = conv.ID
	s.persistLocked()
	return conv
}

func (s *Store) persistLocked() {
	if err := s.repo.Save(s.conversations); err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("persist conversations")
	}
}

func (s *Store) snapshotLocked() ([]*Conversation, string) {
	list := make([]*Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		list = append(list, conv)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastUpdated > list[j].LastUpdated
	})
	return list, s.activeID
}

func (s *Store) mostRecentLocked() *Conversation {
	list, _ := s.snapshotLocked()
	return list[0]
}

func (s *Store) notifyAll(active *Conversation) {
	s.mu.Lock()
	list, activeID := s.snapshotLocked()
	s.mu.Unlock()

	s.listener.ConversationsChanged(list, activeID)
	s.listener.ActiveChanged(active)
	s.listener.ExamplesVisibility(active.HideExamples)
}
