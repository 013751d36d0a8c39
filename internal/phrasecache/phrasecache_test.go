package phrasecache

import (
	"sync"
	"testing"

	"phraseapp/internal/models"
	contextutils "phraseapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	store.Replace(1, []models.Phrase{
		{ID: "p1", Text: "Dove si trova la stazione?", TopicID: "t1"},
		{ID: "p2", Text: "Vorrei un caffè, per favore.", TopicID: "t2"},
	})
	return store
}

func TestStore_ReplaceAndList(t *testing.T) {
	store := seedStore(t)

	phrases := store.List(1)
	require.Len(t, phrases, 2)
	assert.Equal(t, "p1", phrases[0].ID)
	assert.Equal(t, "p2", phrases[1].ID)
	assert.False(t, phrases[0].IsSubmitted)
	assert.NotZero(t, phrases[0].CreatedAt)

	// Other users see nothing
	assert.Empty(t, store.List(2))

	// Replace discards previous state
	store.Replace(1, []models.Phrase{{ID: "p3", Text: "Buongiorno!", TopicID: "t1"}})
	phrases = store.List(1)
	require.Len(t, phrases, 1)
	assert.Equal(t, "p3", phrases[0].ID)
}

func TestStore_Clear(t *testing.T) {
	store := seedStore(t)
	store.Clear(1)
	assert.Empty(t, store.List(1))
}

func TestStore_SubmissionLifecycle(t *testing.T) {
	store := seedStore(t)

	p, err := store.BeginSubmission(1, "p1", "Where is the station?")
	require.NoError(t, err)
	assert.True(t, p.IsLoading)
	assert.Equal(t, "Where is the station?", p.UserTranslation)
	assert.False(t, p.IsSubmitted)

	// A second submission while in flight is rejected
	_, err = store.BeginSubmission(1, "p1", "again")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrPhraseSubmissionPending))

	p, err = store.CompleteSubmission(1, "p1", &models.FeedbackResult{
		IsCorrect:   false,
		Feedback:    "The verb tense is wrong.",
		Suggestions: []string{"Where is the train station?"},
	})
	require.NoError(t, err)
	assert.True(t, p.IsSubmitted)
	assert.False(t, p.IsLoading)
	require.NotNil(t, p.IsCorrect)
	assert.False(t, *p.IsCorrect)
	assert.Equal(t, "The verb tense is wrong.", p.Feedback)
	assert.Len(t, p.Suggestions, 1)
}

func TestStore_RollbackSubmission(t *testing.T) {
	store := seedStore(t)

	_, err := store.BeginSubmission(1, "p1", "Where is the station?")
	require.NoError(t, err)

	store.RollbackSubmission(1, "p1")

	p, ok := store.Get(1, "p1")
	require.True(t, ok)
	assert.False(t, p.IsLoading)
	assert.False(t, p.IsSubmitted)
	assert.Nil(t, p.IsCorrect)
	// Translation survives the rollback for retry
	assert.Equal(t, "Where is the station?", p.UserTranslation)

	// Retry succeeds after rollback
	_, err = store.BeginSubmission(1, "p1", "Where is the station?")
	require.NoError(t, err)
}

func TestStore_UnknownPhrase(t *testing.T) {
	store := seedStore(t)

	_, err := store.BeginSubmission(1, "missing", "x")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrPhraseNotFound))

	_, err = store.CompleteSubmission(1, "missing", &models.FeedbackResult{IsCorrect: true})
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrPhraseNotFound))

	// Rollback of an unknown phrase is a no-op
	store.RollbackSubmission(1, "missing")
}

func TestStore_CopiesAreIsolated(t *testing.T) {
	store := seedStore(t)

	phrases := store.List(1)
	phrases[0].Text = "mutated"

	p, ok := store.Get(1, "p1")
	require.True(t, ok)
	assert.Equal(t, "Dove si trova la stazione?", p.Text)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := seedStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.List(1)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.BeginSubmission(1, "p2", "I would like a coffee, please.")
			store.RollbackSubmission(1, "p2")
		}()
	}
	wg.Wait()
}
