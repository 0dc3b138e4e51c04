package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// CleanText trims the text and collapses every run of whitespace into one space
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
