// Package language provides CEFR proficiency levels and ISO 639-1 language
// code/name normalization used for display and prompt construction.
package language

import (
	"sort"
	"strings"
)

// Level is a CEFR proficiency tier (A1 lowest, C2 highest)
type Level string

// CEFR levels
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// DefaultLevel is used when a request does not specify a proficiency level
const DefaultLevel = LevelB1

// Levels lists all CEFR levels in ascending order
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// levelDescriptions characterize what learners can handle at each tier.
// Embedded verbatim into generation prompts.
var levelDescriptions = map[Level]string{
	LevelA1: "Beginner - basic phrases, present tense, simple vocabulary, everyday expressions",
	LevelA2: "Elementary - simple past/future, common topics, basic connectors, familiar situations",
	LevelB1: "Intermediate - various tenses, opinions, hypothetical situations, complex sentences",
	LevelB2: "Upper-intermediate - complex grammar, abstract topics, nuanced expression, detailed descriptions",
	LevelC1: "Advanced - sophisticated structures, idiomatic expressions, formal/informal registers, subtle meanings",
	LevelC2: "Proficient - near-native complexity, subtle distinctions, advanced discourse, specialized terminology",
}

// IsValidLevel reports whether s is a recognized CEFR level
func IsValidLevel(s string) bool {
	_, ok := levelDescriptions[Level(s)]
	return ok
}

// ParseLevel returns the level for s, falling back to DefaultLevel when s is
// empty or unrecognized
func ParseLevel(s string) Level {
	if IsValidLevel(s) {
		return Level(s)
	}
	return DefaultLevel
}

// Description returns the prompt-facing description of a level
func (l Level) Description() string {
	if d, ok := levelDescriptions[l]; ok {
		return d
	}
	return levelDescriptions[DefaultLevel]
}

// String implements fmt.Stringer
func (l Level) String() string {
	return string(l)
}

// codeToName maps ISO 639-1 codes to English language names
var codeToName = map[string]string{
	"af": "Afrikaans",
	"ar": "Arabic",
	"bg": "Bulgarian",
	"bn": "Bengali",
	"ca": "Catalan",
	"cs": "Czech",
	"cy": "Welsh",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"et": "Estonian",
	"eu": "Basque",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"ga": "Irish",
	"gl": "Galician",
	"he": "Hebrew",
	"hi": "Hindi",
	"hr": "Croatian",
	"hu": "Hungarian",
	"hy": "Armenian",
	"id": "Indonesian",
	"is": "Icelandic",
	"it": "Italian",
	"ja": "Japanese",
	"ka": "Georgian",
	"kk": "Kazakh",
	"ko": "Korean",
	"lt": "Lithuanian",
	"lv": "Latvian",
	"mk": "Macedonian",
	"mn": "Mongolian",
	"ms": "Malay",
	"mt": "Maltese",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sk": "Slovak",
	"sl": "Slovenian",
	"sq": "Albanian",
	"sr": "Serbian",
	"sv": "Swedish",
	"sw": "Swahili",
	"ta": "Tamil",
	"th": "Thai",
	"tl": "Tagalog",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

var nameToCode = func() map[string]string {
	m := make(map[string]string, len(codeToName))
	for code, name := range codeToName {
		m[strings.ToLower(name)] = code
	}
	return m
}()

// Language pairs a code with its English name
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages returns all known languages sorted by name
func Languages() []Language {
	out := make([]Language, 0, len(codeToName))
	for code, name := range codeToName {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsCode reports whether value is a known ISO 639-1 language code
func IsCode(value string) bool {
	_, ok := codeToName[strings.ToLower(value)]
	return ok
}

// NameFromCode converts an ISO 639-1 code to the English language name,
// falling back to the input when the code is unknown
func NameFromCode(code string) string {
	if name, ok := codeToName[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// CodeFromName converts an English language name to its ISO 639-1 code,
// falling back to the input when the name is unknown
func CodeFromName(name string) string {
	if code, ok := nameToCode[strings.ToLower(name)]; ok {
		return code
	}
	return name
}

// NormalizeToName converts a code or name to an English language name.
// Values that are neither are returned unchanged.
func NormalizeToName(value string) string {
	if value == "" {
		return value
	}
	if IsCode(value) {
		return NameFromCode(value)
	}
	return value
}

// NormalizeToCode converts a code or name to an ISO 639-1 code.
// Values that are neither are returned unchanged.
func NormalizeToCode(value string) string {
	if value == "" {
		return value
	}
	if IsCode(value) {
		return strings.ToLower(value)
	}
	return CodeFromName(value)
}
