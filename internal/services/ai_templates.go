// Package services provides business logic services for the phrase application.
package services

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var aiTemplatesFS embed.FS

// Template names as constants
const (
	PhraseGenerationTemplate      = "phrase_generation.tmpl"
	TranslationFeedbackTemplate   = "translation_feedback.tmpl"
	JSONStructureGuidanceTemplate = "json_structure_guidance.tmpl"
)

// PromptTopic is a topic as rendered into the generation prompt
type PromptTopic struct {
	ID          string
	Title       string
	Description string
}

// AITemplateData holds data for rendering AI prompt templates
type AITemplateData struct {
	// Generation fields
	From             string
	To               string
	Count            int
	Level            string
	LevelDescription string
	Topics           []PromptTopic
	TopicsText       string
	HasInstruction   bool
	Instruction      string
	PhraseLength     int
	MinWords         int
	MaxWords         int

	// Feedback fields
	TopicTitle       string
	TopicDescription string
	TopicCategory    string
	TopicDifficulty  int
	PhraseText       string
	UserTranslation  string

	// Schema for direct inclusion in prompt for non-grammar providers
	SchemaForPrompt string
}

// AITemplateManager manages AI prompt templates
type AITemplateManager struct {
	templates *template.Template
}

// NewAITemplateManager creates a new template manager
func NewAITemplateManager() (result0 *AITemplateManager, err error) {
	templates, err := template.New("").ParseFS(aiTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &AITemplateManager{
		templates: templates,
	}, nil
}

// RenderTemplate renders a template with the given data
func (tm *AITemplateManager) RenderTemplate(templateName string, data AITemplateData) (result0 string, err error) {
	var buf strings.Builder
	err = tm.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
