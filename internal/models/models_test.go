package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_MarshalJSON(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := User{
		ID:           7,
		Username:     "maria",
		Email:        sql.NullString{String: "maria@example.com", Valid: true},
		PasswordHash: sql.NullString{String: "secret-hash", Valid: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, float64(7), out["id"])
	assert.Equal(t, "maria", out["username"])
	assert.Equal(t, "maria@example.com", out["email"])
	assert.Nil(t, out["last_active"])
	assert.NotContains(t, string(data), "secret-hash")
}

func TestTopic_MarshalJSON_NullFields(t *testing.T) {
	topic := Topic{
		ID:         "9f2d1a34-0c9e-4d7a-9b1f-0a1b2c3d4e5f",
		Title:      "Ordering food",
		Difficulty: 2,
		IsActive:   true,
	}

	data, err := json.Marshal(topic)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Nil(t, out["description"])
	assert.Nil(t, out["category"])
	assert.Nil(t, out["createdByUserId"])
	assert.Equal(t, true, out["isActive"])
}

func TestTopic_EditableBy(t *testing.T) {
	owner := 42

	unowned := Topic{ID: "t1"}
	assert.True(t, unowned.EditableBy(1))
	assert.True(t, unowned.EditableBy(42))

	owned := Topic{ID: "t2", CreatedByUserID: &owner}
	assert.True(t, owned.EditableBy(42))
	assert.False(t, owned.EditableBy(43))
}

func TestDeleteTopicQuery_Soft(t *testing.T) {
	var q DeleteTopicQuery
	assert.True(t, q.Soft(), "softDelete defaults to true")

	hard := false
	q.SoftDelete = &hard
	assert.False(t, q.Soft())

	soft := true
	q.SoftDelete = &soft
	assert.True(t, q.Soft())
}

func TestUserPhrasesSettings_View(t *testing.T) {
	s := UserPhrasesSettings{
		Count:        20,
		Level:        "B2",
		PhraseLength: 8,
	}

	view := s.View()
	require.NotNil(t, view.TopicIDs, "nil topic list becomes an empty slice")
	assert.Empty(t, view.TopicIDs)
	assert.Equal(t, 20, view.Count)
	assert.Equal(t, "B2", view.Level)
	assert.Equal(t, 8, view.PhraseLength)
}
