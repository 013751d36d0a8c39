package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelA1, ParseLevel("A1"))
	assert.Equal(t, LevelC2, ParseLevel("C2"))

	// Unknown or empty input falls back to the default
	assert.Equal(t, DefaultLevel, ParseLevel(""))
	assert.Equal(t, DefaultLevel, ParseLevel("D1"))
	assert.Equal(t, DefaultLevel, ParseLevel("b1"))
}

func TestIsValidLevel(t *testing.T) {
	for _, l := range Levels {
		assert.True(t, IsValidLevel(string(l)))
	}
	assert.False(t, IsValidLevel("A3"))
	assert.False(t, IsValidLevel(""))
}

func TestLevelDescription(t *testing.T) {
	assert.Contains(t, LevelA1.Description(), "Beginner")
	assert.Contains(t, LevelB1.Description(), "Intermediate")
	assert.Contains(t, LevelC2.Description(), "near-native")

	// Unknown levels use the default description
	assert.Equal(t, DefaultLevel.Description(), Level("X9").Description())
}

func TestNameFromCode(t *testing.T) {
	assert.Equal(t, "English", NameFromCode("en"))
	assert.Equal(t, "Spanish", NameFromCode("es"))
	assert.Equal(t, "German", NameFromCode("DE"))

	// Unknown codes pass through
	assert.Equal(t, "xx", NameFromCode("xx"))
}

func TestCodeFromName(t *testing.T) {
	assert.Equal(t, "en", CodeFromName("English"))
	assert.Equal(t, "it", CodeFromName("italian"))

	// Unknown names pass through
	assert.Equal(t, "Klingon", CodeFromName("Klingon"))
}

func TestNormalizeToName(t *testing.T) {
	assert.Equal(t, "English", NormalizeToName("en"))
	assert.Equal(t, "English", NormalizeToName("English"))
	assert.Equal(t, "Esperanto", NormalizeToName("Esperanto"))
	assert.Equal(t, "", NormalizeToName(""))
}

func TestNormalizeToCode(t *testing.T) {
	assert.Equal(t, "en", NormalizeToCode("en"))
	assert.Equal(t, "en", NormalizeToCode("EN"))
	assert.Equal(t, "en", NormalizeToCode("English"))
	assert.Equal(t, "Esperanto", NormalizeToCode("Esperanto"))
	assert.Equal(t, "", NormalizeToCode(""))
}
