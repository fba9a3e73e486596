package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxMessageLength bounds an inbound message, in characters.
const DefaultMaxMessageLength = 2000

// injectionPatterns catch attempts to override the chat system instruction
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)new\s+system\s+prompt\s*:`),
	regexp.MustCompile(`(?i)you\s+are\s+no\s+longer\s+a`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// MessageValidator screens inbound chat messages before they are routed
type MessageValidator struct {
	maxLength int
}

func NewMessageValidator(maxLength int) *MessageValidator {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &MessageValidator{maxLength: maxLength}
}

// Validate checks length, emptiness and instruction-override attempts.
func (v *MessageValidator) Validate(message string) ValidationResult {
	if strings.TrimSpace(message) == "" {
		return ValidationResult{Valid: false, Message: "message cannot be empty"}
	}
	if n := utf8.RuneCountInString(message); n > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("message too long: %d chars (max %d)", n, v.maxLength),
		}
	}
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(message) {
			return ValidationResult{
				Valid:   false,
				Message: "message attempts to override the assistant instructions",
			}
		}
	}
	return ValidationResult{Valid: true, Message: "ok"}
}
