package util

import (
	"strings"
	"unicode"
)

// CleanText prepares free text from clients for the audit trail. Control and
// invisible format characters are dropped so a stored reason or user agent
// cannot forge log lines or hide content, and the result is cut to maxRunes.
func CleanText(raw string, maxRunes int) string {
	builder := strings.Builder{}
	builder.Grow(len(raw))

	for _, char := range raw {
		if char == '\n' || char == '\t' {
			builder.WriteRune(' ')
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}

	return cleaned
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
