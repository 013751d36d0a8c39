// Package models contains the data structures shared between the database
// layer, services, and HTTP handlers.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// User represents an account in the system
type User struct {
	ID           int            `json:"id" yaml:"id"`
	Username     string         `json:"username" yaml:"username"`
	Email        sql.NullString `json:"email" yaml:"email"`
	PasswordHash sql.NullString `json:"-" yaml:"-"` // Omit from JSON responses
	LastActive   sql.NullTime   `json:"last_active" yaml:"last_active"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for User to handle sql.Null types properly
func (u User) MarshalJSON() (result0 []byte, err error) {
	var email *string
	if u.Email.Valid {
		email = &u.Email.String
	}
	var lastActive *time.Time
	if u.LastActive.Valid {
		lastActive = &u.LastActive.Time
	}
	return json.Marshal(&struct {
		ID         int        `json:"id"`
		Username   string     `json:"username"`
		Email      *string    `json:"email"`
		LastActive *time.Time `json:"last_active"`
		CreatedAt  time.Time  `json:"created_at"`
		UpdatedAt  time.Time  `json:"updated_at"`
	}{
		ID:         u.ID,
		Username:   u.Username,
		Email:      email,
		LastActive: lastActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	})
}

// SignupRequest is the body for POST /v1/auth/signup
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the body for POST /v1/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
