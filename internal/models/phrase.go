package models

import "time"

// TopicRef carries the topic fields the generator needs for prompting
type TopicRef struct {
	ID          string `json:"id" binding:"required,uuid"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// GeneratePhrasesRequest is the body for POST /v1/phrases
type GeneratePhrasesRequest struct {
	From         string     `json:"from" binding:"required,min=1,max=50"`
	To           string     `json:"to" binding:"required,min=1,max=50"`
	Topics       []TopicRef `json:"topics" binding:"required,min=1,max=5,dive"`
	Count        int        `json:"count" binding:"omitempty,min=1,max=50"`
	Instruction  string     `json:"instruction" binding:"omitempty,max=500"`
	Level        string     `json:"level" binding:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	PhraseLength int        `json:"phraseLength" binding:"omitempty,min=1,max=20"`
}

// GeneratedPhrase pairs a phrase with the topic it was generated for.
// TopicID is always one of the requested topic IDs.
type GeneratedPhrase struct {
	Text    string `json:"text"`
	TopicID string `json:"topicId"`
}

// GeneratePhrasesResponse is the body returned by POST /v1/phrases
type GeneratePhrasesResponse struct {
	Phrases []GeneratedPhrase `json:"phrases"`
}

// FeedbackRequest is the body for POST /v1/phrases/feedback
type FeedbackRequest struct {
	TopicID         string `json:"topicId" binding:"required,uuid"`
	PhraseText      string `json:"phraseText" binding:"required,min=1,max=200"`
	UserTranslation string `json:"userTranslation" binding:"required,min=1,max=200"`
}

// FeedbackResult is the evaluation produced by the language model
type FeedbackResult struct {
	IsCorrect   bool     `json:"isCorrect"`
	Feedback    string   `json:"feedback,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// FeedbackResponse is the body returned by POST /v1/phrases/feedback
type FeedbackResponse struct {
	IsCorrect   bool     `json:"isCorrect"`
	Feedback    string   `json:"feedback,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	TopicID     string   `json:"topicId"`
}

// Phrase is a session-scoped practice phrase with its submission state.
// IsLoading marks a translation submission in flight; IsCorrect is nil
// until feedback arrives.
type Phrase struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	TopicID         string    `json:"topicId"`
	UserTranslation string    `json:"userTranslation,omitempty"`
	IsSubmitted     bool      `json:"isSubmitted"`
	IsLoading       bool      `json:"isLoading"`
	IsCorrect       *bool     `json:"isCorrect,omitempty"`
	Feedback        string    `json:"feedback,omitempty"`
	Suggestions     []string  `json:"suggestions,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SubmitTranslationRequest is the body for POST /v1/phrases/session/:id/translation
type SubmitTranslationRequest struct {
	UserTranslation string `json:"userTranslation" binding:"required,min=1,max=200"`
}

// TranscriptionResponse is the body returned by POST /v1/speech/transcribe
type TranscriptionResponse struct {
	Text string `json:"text"`
}
