package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("d9428888-122b-11e1-b85c-61cd3cbb3210"))
	assert.True(t, IsValidUUID("16fd2706-8baf-433b-82eb-8c7fada847da"))

	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("16fd2706-8baf-433b-82eb"))
	assert.False(t, IsValidUUID("16fd2706-8baf-433b-82eb-8c7fada847daff"))
}

func TestIsValidLanguage(t *testing.T) {
	assert.True(t, IsValidLanguage("en"))
	assert.True(t, IsValidLanguage("Italian"))

	assert.False(t, IsValidLanguage(""))
}
