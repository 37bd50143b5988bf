// Package sanitizer provides content redaction for prompts and transport
// sanitization for access configuration.
package sanitizer

import (
	"regexp"
	"strings"
)

// Sanitizer masks personal and secret data in free text before it is sent
// to a model, and enforces a size limit.
type Sanitizer struct {
	patterns []*regexp.Regexp
	maxSize  int
}

// redacted replaces a match. Group 1, when a pattern has one, is a label
// that stays in the text.
const redacted = "${1}[REDACTED]"

// Pattern definitions for identifiers and secrets that must not leave the host.
var defaultPatterns = []*regexp.Regexp{
	// Resident identity card numbers (18 digits, last may be X)
	regexp.MustCompile(`\b\d{17}[\dXx]\b`),

	// Mobile phone numbers
	regexp.MustCompile(`\b1[3-9]\d{9}\b`),

	// Bank card numbers
	regexp.MustCompile(`\b\d{16,19}\b`),

	// Email addresses
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),

	// Model provider keys
	regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{16,}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),

	// Authentication tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.]+`),
	regexp.MustCompile(`(?i)((?:password|passwd|pwd)\s*[:=]\s*)['"]?[^\s'"]{4,}['"]?`),
}

// New creates a new Sanitizer with default patterns.
func New(maxSize int) *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns,
		maxSize:  maxSize,
	}
}

// NewWithPatterns creates a Sanitizer with custom patterns.
func NewWithPatterns(maxSize int, patterns []*regexp.Regexp) *Sanitizer {
	return &Sanitizer{
		patterns: patterns,
		maxSize:  maxSize,
	}
}

// Sanitize trims the text, redacts sensitive values and enforces the size
// limit. Redaction always runs on the full text before it is cut.
func (s *Sanitizer) Sanitize(text string) string {
	text = s.redact(text)

	if s.IsTooLarge(text) {
		text = truncateRunes(text, s.maxSize)
	}

	return text
}

func (s *Sanitizer) redact(text string) string {
	text = strings.TrimSpace(text)
	for _, pattern := range s.patterns {
		text = pattern.ReplaceAllString(text, redacted)
	}
	return text
}

// IsEmpty checks if the text is empty or whitespace only.
func (s *Sanitizer) IsEmpty(text string) bool {
	return strings.TrimSpace(text) == ""
}

// IsTooLarge checks if the text exceeds the maximum size.
func (s *Sanitizer) IsTooLarge(text string) bool {
	return s.maxSize > 0 && len(text) > s.maxSize
}

// Stats describes what a sanitization pass did.
type Stats struct {
	OriginalSize  int
	SanitizedSize int
	Truncated     bool
	Masked        int
}

// SanitizeWithStats performs sanitization and returns statistics.
func (s *Sanitizer) SanitizeWithStats(text string) (string, Stats) {
	stats := Stats{OriginalSize: len(text)}

	for _, pattern := range s.patterns {
		stats.Masked += len(pattern.FindAllString(text, -1))
	}

	sanitized := s.redact(text)
	if s.IsTooLarge(sanitized) {
		stats.Truncated = true
		sanitized = truncateRunes(sanitized, s.maxSize)
	}
	stats.SanitizedSize = len(sanitized)

	return sanitized, stats
}

// Mask renders a secret so that it can appear in logs and API responses.
func Mask(value string) string {
	if len(value) <= 8 {
		return "[REDACTED]"
	}

	if idx := strings.IndexAny(value, ":="); idx != -1 {
		return value[:idx+1] + "[REDACTED]"
	}

	return value[:4] + "****" + value[len(value)-4:]
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
