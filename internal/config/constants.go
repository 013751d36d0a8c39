package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	AIRequestTimeout   = 3 * time.Minute
	AIShutdownTimeout  = 30 * time.Second
	ServerReadTimeout  = 30 * time.Second
	ServerWriteTimeout = 4 * time.Minute
	ShutdownTimeout    = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Server defaults
const (
	DefaultServerPort      = "8080"
	DefaultMaxAIConcurrent = 10
	DefaultMaxAIPerUser    = 2
)

// AI defaults
const (
	DefaultMaxTokens     = 4096
	DefaultAITemperature = 0.7
)

// Transcription defaults
const (
	DefaultTranscriptionModel = "whisper-1"
	// MaxTranscriptionUploadBytes caps audio uploads at 25MB, the Whisper API limit
	MaxTranscriptionUploadBytes = 25 * 1024 * 1024
)

// Generation defaults. Request bounds live in the binding tags on the
// request types in internal/models.
const (
	GenerationCountDefault     = 10
	GenerationPhraseLenDefault = 5
	MaxFeedbackSuggestions     = 3
	DefaultInstruction         = "None"
)

// Topic listing defaults
const (
	TopicListDefaultLimit = 20
	TopicListMaxLimit     = 100
)

// Session configuration constants
const (
	// Session settings
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "phrase-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob: data:;"
)

// AI service constants
const (
	// Polling intervals
	AIShutdownPollInterval = 100 * time.Millisecond
)
