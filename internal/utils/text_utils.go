package utils

import (
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TruncationMarker is appended to text cut down to a size limit
const TruncationMarker = "\n[... Content truncated due to size limits ...]"

// TextProcessor provides utilities for preparing message text for external analyzers
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to the specified maximum size in bytes
// without splitting a multi-byte character
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + TruncationMarker
}

// Normalize replaces ill-formed UTF-8 and applies NFKC so look-alike
// compatibility characters reach the analyzer in canonical form
func (tp *TextProcessor) Normalize(text string) string {
	t := transform.Chain(runes.ReplaceIllFormed(), norm.NFKC)
	out, _, err := transform.String(t, text)
	if err != nil {
		tp.logger.Debug("Text normalization failed", zap.Error(err))
		return text
	}
	return out
}

// ProcessText normalizes and truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.TruncateText(tp.Normalize(text), maxSize)
}
