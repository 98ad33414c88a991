package utils

import (
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Excerpt returns the first maxRunes characters of text.
// Word boundaries are not preserved.
func (tp *TextProcessor) Excerpt(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	n := 0
	for i := range text {
		if n == maxRunes {
			tp.logger.Debug("Text truncated",
				zap.Int("original_size", len(text)),
				zap.Int("truncated_size", i),
				zap.Int("max_runes", maxRunes))
			return text[:i]
		}
		n++
	}
	return text
}

// Lower returns a lowercased copy of text for matching.
// A new Caser is built per call since Casers are stateful.
func (tp *TextProcessor) Lower(text string) string {
	return cases.Lower(language.Und).String(text)
}

// Length returns the number of characters in text
func (tp *TextProcessor) Length(text string) int {
	return utf8.RuneCountInString(text)
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	// Drop invalid UTF-8 sequences
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}

// ProcessText sanitizes and then truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxRunes int) string {
	return tp.Excerpt(tp.SanitizeUTF8(text), maxRunes)
}
