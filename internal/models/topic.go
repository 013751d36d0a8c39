package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Topic is a theme that phrase generation can draw from. Topics created
// without an owner are shared and editable by anyone.
type Topic struct {
	ID              string         `json:"id" yaml:"id"`
	Title           string         `json:"title" yaml:"title"`
	Description     sql.NullString `json:"description" yaml:"description"`
	Category        sql.NullString `json:"category" yaml:"category"`
	Level           string         `json:"level" yaml:"level"`
	Difficulty      int            `json:"difficulty" yaml:"difficulty"`
	IsActive        bool           `json:"isActive" yaml:"is_active"`
	CreatedByUserID *int           `json:"createdByUserId" yaml:"created_by_user_id"`
	CreatedAt       time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for Topic to handle sql.Null types properly
func (t Topic) MarshalJSON() (result0 []byte, err error) {
	var description, category *string
	if t.Description.Valid {
		description = &t.Description.String
	}
	if t.Category.Valid {
		category = &t.Category.String
	}
	return json.Marshal(&struct {
		ID              string    `json:"id"`
		Title           string    `json:"title"`
		Description     *string   `json:"description"`
		Category        *string   `json:"category"`
		Level           string    `json:"level"`
		Difficulty      int       `json:"difficulty"`
		IsActive        bool      `json:"isActive"`
		CreatedByUserID *int      `json:"createdByUserId"`
		CreatedAt       time.Time `json:"createdAt"`
		UpdatedAt       time.Time `json:"updatedAt"`
	}{
		ID:              t.ID,
		Title:           t.Title,
		Description:     description,
		Category:        category,
		Level:           t.Level,
		Difficulty:      t.Difficulty,
		IsActive:        t.IsActive,
		CreatedByUserID: t.CreatedByUserID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	})
}

// EditableBy reports whether the given user may modify or delete this topic.
// Unowned topics are editable by everyone.
func (t *Topic) EditableBy(userID int) bool {
	return t.CreatedByUserID == nil || *t.CreatedByUserID == userID
}

// CreateTopicRequest is the body for POST /v1/topics
type CreateTopicRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Category    string `json:"category" binding:"omitempty,max=50"`
	Level       string `json:"level" binding:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	Difficulty  int    `json:"difficulty" binding:"omitempty,min=1,max=5"`
}

// UpdateTopicRequest is the body for PUT /v1/topics/:id. All fields are
// optional; absent fields leave the stored value unchanged.
type UpdateTopicRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Category    *string `json:"category" binding:"omitempty,max=50"`
	Level       *string `json:"level" binding:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	Difficulty  *int    `json:"difficulty" binding:"omitempty,min=1,max=5"`
	IsActive    *bool   `json:"isActive"`
}

// TopicListQuery holds the query parameters for GET /v1/topics
type TopicListQuery struct {
	Category      string `form:"category" binding:"omitempty,max=50"`
	Level         string `form:"level" binding:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	Difficulty    int    `form:"difficulty" binding:"omitempty,min=1,max=5"`
	IncludeCustom bool   `form:"includeCustom"`
	ActiveOnly    *bool  `form:"activeOnly"`
	Limit         int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Active reports whether inactive topics should be excluded.
// Defaults to true when the parameter is absent.
func (q *TopicListQuery) Active() bool {
	return q.ActiveOnly == nil || *q.ActiveOnly
}

// DeleteTopicQuery holds the query parameters for DELETE /v1/topics/:id.
// Soft deletion deactivates the topic instead of removing the row.
type DeleteTopicQuery struct {
	SoftDelete *bool `form:"softDelete"`
}

// Soft reports whether the delete should deactivate rather than remove.
// Defaults to true when the parameter is absent.
func (q *DeleteTopicQuery) Soft() bool {
	return q.SoftDelete == nil || *q.SoftDelete
}

// DeleteTopicResponse is the body returned by DELETE /v1/topics/:id
type DeleteTopicResponse struct {
	Message string `json:"message"`
	Topic   *Topic `json:"topic"`
}
