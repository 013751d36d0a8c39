// Package phrasecache holds the session-scoped phrase state for each user.
// Phrases live here between generation and submission; feedback is merged in
// per phrase ID with last-write-wins semantics.
package phrasecache

import (
	"sync"
	"time"

	"phraseapp/internal/models"
	contextutils "phraseapp/internal/utils"
)

// Store keeps the current phrase set per user. All operations are safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	byUser map[int]map[string]*models.Phrase
	order  map[int][]string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		byUser: make(map[int]map[string]*models.Phrase),
		order:  make(map[int][]string),
	}
}

func copyPhrase(p *models.Phrase) models.Phrase {
	out := *p
	if p.Suggestions != nil {
		out.Suggestions = append([]string(nil), p.Suggestions...)
	}
	if p.IsCorrect != nil {
		v := *p.IsCorrect
		out.IsCorrect = &v
	}
	return out
}

// Replace swaps the user's phrase set wholesale, discarding any previous
// state including in-flight submissions.
func (s *Store) Replace(userID int, phrases []models.Phrase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]*models.Phrase, len(phrases))
	order := make([]string, 0, len(phrases))
	for i := range phrases {
		p := copyPhrase(&phrases[i])
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		byID[p.ID] = &p
		order = append(order, p.ID)
	}
	s.byUser[userID] = byID
	s.order[userID] = order
}

// Clear empties the user's phrase set
func (s *Store) Clear(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
	delete(s.order, userID)
}

// List returns the user's phrases in generation order
func (s *Store) List(userID int) []models.Phrase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[userID]
	phrases := make([]models.Phrase, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byUser[userID][id]; ok {
			phrases = append(phrases, copyPhrase(p))
		}
	}
	return phrases
}

// Get returns a single phrase by ID
func (s *Store) Get(userID int, phraseID string) (result0 models.Phrase, result1 bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byUser[userID][phraseID]
	if !ok {
		return models.Phrase{}, false
	}
	return copyPhrase(p), true
}

// BeginSubmission marks a phrase as having a submission in flight and stores
// the translation. Fails when the phrase is unknown or a submission is
// already pending.
func (s *Store) BeginSubmission(userID int, phraseID, translation string) (result0 models.Phrase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUser[userID][phraseID]
	if !ok {
		return models.Phrase{}, contextutils.WrapErrorf(contextutils.ErrPhraseNotFound, "phrase %s not in session", phraseID)
	}
	if p.IsLoading {
		return models.Phrase{}, contextutils.WrapErrorf(contextutils.ErrPhraseSubmissionPending, "submission already in flight for phrase %s", phraseID)
	}

	p.IsLoading = true
	p.UserTranslation = translation
	return copyPhrase(p), nil
}

// CompleteSubmission merges the feedback result into the phrase and marks it
// submitted
func (s *Store) CompleteSubmission(userID int, phraseID string, result *models.FeedbackResult) (result0 models.Phrase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byUser[userID][phraseID]
	if !ok {
		return models.Phrase{}, contextutils.WrapErrorf(contextutils.ErrPhraseNotFound, "phrase %s not in session", phraseID)
	}

	isCorrect := result.IsCorrect
	p.IsCorrect = &isCorrect
	p.Feedback = result.Feedback
	p.Suggestions = append([]string(nil), result.Suggestions...)
	p.IsSubmitted = true
	p.IsLoading = false
	return copyPhrase(p), nil
}

// RollbackSubmission clears the in-flight flag after a failed submission.
// The stored translation is preserved so the user can retry.
func (s *Store) RollbackSubmission(userID int, phraseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byUser[userID][phraseID]; ok {
		p.IsLoading = false
	}
}
