package storage

import (
	"errors"
	"sync"

	"guidechat/internal/infrastructure/logger"
)

// PreferencesDocument is the storage key holding user preferences.
const PreferencesDocument = "prefs.json"

type preferences struct {
	SpeechEnabled bool `json:"speechEnabled"`
}

// PreferenceStore persists the voice preference independently of the
// conversation set.
type PreferenceStore struct {
	docs *DocumentStore

	mu    sync.Mutex
	prefs preferences
}

// NewPreferenceStore loads persisted preferences; a missing or corrupt
// document falls back to defaults (speech off).
func NewPreferenceStore(docs *DocumentStore) *PreferenceStore {
	s := &PreferenceStore{docs: docs}
	err := docs.Load(PreferencesDocument, &s.prefs)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("preferences unreadable, using defaults")
		s.prefs = preferences{}
	}
	return s
}

// SpeechEnabled reports the persisted voice preference.
func (s *PreferenceStore) SpeechEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.SpeechEnabled
}

// SetSpeechEnabled persists the voice preference.
func (s *PreferenceStore) SetSpeechEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SpeechEnabled = enabled
	return s.docs.Save(PreferencesDocument, s.prefs)
}
