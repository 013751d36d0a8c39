package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"phraseapp/internal/models"
	contextutils "phraseapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleTopic(owner *int) *models.Topic {
	return &models.Topic{
		ID:              testTopicID,
		Title:           "Ordering Food",
		Description:     sql.NullString{String: "Restaurant and cafe phrases", Valid: true},
		Category:        sql.NullString{String: "daily-life", Valid: true},
		Level:           "A2",
		Difficulty:      2,
		IsActive:        true,
		CreatedByUserID: owner,
	}
}

func TestListTopics(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	env.topics.On("ListTopics", mock.Anything, 7, mock.Anything).
		Return([]models.Topic{*sampleTopic(nil)}, nil).Once()

	w := env.doJSON(t, http.MethodGet, "/v1/topics?category=daily-life", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ordering Food")
	env.topics.AssertExpectations(t)
}

func TestGetTopic_NotFound(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	unknownID := "00000000-0000-4000-8000-000000000000"
	env.topics.On("GetTopic", mock.Anything, unknownID).Return(nil, nil).Once()

	w := env.doJSON(t, http.MethodGet, "/v1/topics/"+unknownID, nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "TOPIC_NOT_FOUND")
}

func TestGetTopic_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.doJSON(t, http.MethodGet, "/v1/topics/not-a-uuid", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.topics.AssertNotCalled(t, "GetTopic", mock.Anything, mock.Anything)
}

func TestCreateTopic(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	owner := 7
	env.topics.On("CreateTopic", mock.Anything, 7, mock.MatchedBy(func(req *models.CreateTopicRequest) bool {
		return req.Title == "Travel"
	})).Return(sampleTopic(&owner), nil).Once()

	w := env.doJSON(t, http.MethodPost, "/v1/topics", models.CreateTopicRequest{
		Title:      "Travel",
		Difficulty: 2,
	}, cookies)

	assert.Equal(t, http.StatusCreated, w.Code)
	env.topics.AssertExpectations(t)
}

func TestCreateTopic_MissingTitle(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	w := env.doJSON(t, http.MethodPost, "/v1/topics", models.CreateTopicRequest{
		Difficulty: 2,
	}, cookies)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.topics.AssertNotCalled(t, "CreateTopic", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTopic_ForeignOwner(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	env.topics.On("UpdateTopic", mock.Anything, 7, testTopicID, mock.Anything).
		Return(nil, contextutils.WrapError(contextutils.ErrForbidden, "topic belongs to another user")).Once()

	title := "Renamed"
	w := env.doJSON(t, http.MethodPut, "/v1/topics/"+testTopicID, models.UpdateTopicRequest{
		Title: &title,
	}, cookies)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteTopic_SoftByDefault(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	env.topics.On("DeleteTopic", mock.Anything, 7, testTopicID, true).
		Return(sampleTopic(nil), nil).Once()

	w := env.doJSON(t, http.MethodDelete, "/v1/topics/"+testTopicID, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Topic deactivated")
	env.topics.AssertExpectations(t)
}

func TestDeleteTopic_Hard(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.login(t)

	env.topics.On("DeleteTopic", mock.Anything, 7, testTopicID, false).
		Return(sampleTopic(nil), nil).Once()

	w := env.doJSON(t, http.MethodDelete, "/v1/topics/"+testTopicID+"?softDelete=false", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Topic deleted")
	env.topics.AssertExpectations(t)
}
