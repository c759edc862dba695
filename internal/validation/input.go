package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinTitleLength       = 3
	MaxTitleLength       = 200
	MinDescriptionLength = 10
	MaxDescriptionLength = 5000
	MinProposalLength    = 10
	MaxProposalLength    = 2000
	MaxNotesLength       = 2000
	MaxSkillLength       = 50
	MaxSkillsCount       = 50
)

var (
	emailPattern        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	artifactHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("некорректный формат email")
	}
	return nil
}

// ValidateArtifactHash проверяет формат хэша артефакта (SHA-256, hex).
func ValidateArtifactHash(hash string) error {
	if !artifactHashPattern.MatchString(hash) {
		return fmt.Errorf("хэш артефакта должен быть 64 hex символа")
	}
	return nil
}

// ValidateSkills проверяет список требуемых навыков.
func ValidateSkills(skills []string) error {
	if len(skills) == 0 {
		return fmt.Errorf("требуемые навыки обязательны")
	}
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("не более %d навыков", MaxSkillsCount)
	}
	for _, skill := range skills {
		if strings.TrimSpace(skill) == "" {
			return fmt.Errorf("навык не может быть пустым")
		}
		if utf8.RuneCountInString(skill) > MaxSkillLength {
			return fmt.Errorf("навык должен быть не более %d символов", MaxSkillLength)
		}
	}
	return nil
}
