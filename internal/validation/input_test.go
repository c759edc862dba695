package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.NoError(t, ValidateEmail("user.name+tag@sub.example.org"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("user@"))
}

func TestValidateLength_CountsRunes(t *testing.T) {
	// Кириллица считается посимвольно, а не побайтово.
	assert.NoError(t, ValidateLength("заголовок", "Три", MinTitleLength, MaxTitleLength))
	assert.Error(t, ValidateLength("заголовок", "аб", MinTitleLength, MaxTitleLength))
	assert.Error(t, ValidateLength("заголовок", strings.Repeat("а", MaxTitleLength+1), MinTitleLength, MaxTitleLength))
}

func TestValidateArtifactHash(t *testing.T) {
	assert.NoError(t, ValidateArtifactHash("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"))
	assert.NoError(t, ValidateArtifactHash(strings.ToUpper("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")))
	assert.Error(t, ValidateArtifactHash(""))
	assert.Error(t, ValidateArtifactHash("9f86d0"))
	assert.Error(t, ValidateArtifactHash(strings.Repeat("g", 64)))
}

func TestValidateSkills(t *testing.T) {
	assert.NoError(t, ValidateSkills([]string{"go", "postgresql"}))
	assert.Error(t, ValidateSkills(nil))
	assert.Error(t, ValidateSkills([]string{" "}))
	assert.Error(t, ValidateSkills([]string{strings.Repeat("x", MaxSkillLength+1)}))

	many := make([]string, MaxSkillsCount+1)
	for i := range many {
		many[i] = "skill"
	}
	assert.Error(t, ValidateSkills(many))
}
