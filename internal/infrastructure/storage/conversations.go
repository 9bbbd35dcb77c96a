package storage

import (
	"errors"

	"guidechat/internal/domain/conversation"
	"guidechat/internal/infrastructure/logger"
)

// ConversationsDocument is the storage key holding the serialized
// conversation set, keyed by conversation id.
const ConversationsDocument = "conversations.json"

// ConversationRepository mirrors the in-memory conversation set to a single
// JSON document, written whole on every mutation.
type ConversationRepository struct {
	docs *DocumentStore
}

func NewConversationRepository(docs *DocumentStore) *ConversationRepository {
	return &ConversationRepository{docs: docs}
}

// Load reads the persisted set. A missing document yields an empty set; a
// corrupt one is logged and also treated as empty rather than failing
// startup. Conversations persisted before the hideExamples field existed
// decode with it false, which is the required backfill.
func (r *ConversationRepository) Load() (map[string]*conversation.Conversation, error) {
	set := make(map[string]*conversation.Conversation)
	err := r.docs.Load(ConversationsDocument, &set)
	if errors.Is(err, ErrNotFound) {
		return set, nil
	}
	if err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("conversation history unreadable, starting fresh")
		return make(map[string]*conversation.Conversation), nil
	}
	return set, nil
}

// Save writes the whole set verbatim.
func (r *ConversationRepository) Save(set map[string]*conversation.Conversation) error {
	return r.docs.Save(ConversationsDocument, set)
}
