package models

import "time"

// UserPhrasesSettings stores a user's saved defaults for phrase generation.
// TopicIDs lives in a join table and is loaded alongside the row.
type UserPhrasesSettings struct {
	ID           string    `json:"id" yaml:"id"`
	UserID       int       `json:"userId" yaml:"user_id"`
	TopicIDs     []string  `json:"topicIds" yaml:"topic_ids"`
	Count        int       `json:"count" yaml:"count"`
	Instruction  string    `json:"instruction" yaml:"instruction"`
	Level        string    `json:"level" yaml:"level"`
	PhraseLength int       `json:"phraseLength" yaml:"phrase_length"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updated_at"`
}

// SaveSettingsRequest is the body for POST and PUT /v1/phrases/settings.
// From and To optionally update the user's language pair in the same call.
type SaveSettingsRequest struct {
	TopicIDs     []string `json:"topicIds" binding:"required,min=1,max=5,dive,uuid"`
	Count        int      `json:"count" binding:"required,min=10,max=50"`
	Instruction  string   `json:"instruction" binding:"omitempty,max=500"`
	Level        string   `json:"level" binding:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	PhraseLength int      `json:"phraseLength" binding:"required,min=5,max=20"`
	From         string   `json:"from" binding:"omitempty,min=2,max=10"`
	To           string   `json:"to" binding:"omitempty,min=2,max=10"`
}

// SettingsView is the shape returned to clients for saved settings
type SettingsView struct {
	TopicIDs     []string `json:"topicIds"`
	Count        int      `json:"count"`
	Instruction  string   `json:"instruction"`
	Level        string   `json:"level"`
	PhraseLength int      `json:"phraseLength"`
}

// View converts stored settings to the client-facing shape
func (s *UserPhrasesSettings) View() *SettingsView {
	topicIDs := s.TopicIDs
	if topicIDs == nil {
		topicIDs = []string{}
	}
	return &SettingsView{
		TopicIDs:     topicIDs,
		Count:        s.Count,
		Instruction:  s.Instruction,
		Level:        s.Level,
		PhraseLength: s.PhraseLength,
	}
}

// UserPreferences stores a user's language pair for generation and feedback
type UserPreferences struct {
	UserID    int       `json:"userId" yaml:"user_id"`
	From      string    `json:"from" yaml:"from"`
	To        string    `json:"to" yaml:"to"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// PreferencesRequest is the body for PUT /v1/preferences
type PreferencesRequest struct {
	From string `json:"from" binding:"required,min=2,max=10"`
	To   string `json:"to" binding:"required,min=2,max=10"`
}

// PreferencesView is the shape returned to clients for the language pair
type PreferencesView struct {
	From string `json:"from"`
	To   string `json:"to"`
}
