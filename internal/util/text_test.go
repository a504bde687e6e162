package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		maxRunes int
		expected string
	}{
		{name: "plain", input: "  duplicate upload ", maxRunes: 100, expected: "duplicate upload"},
		{name: "newlines flattened", input: "line one\nline two", maxRunes: 100, expected: "line one line two"},
		{name: "control stripped", input: "ok\x00\x1b[31mred", maxRunes: 100, expected: "ok[31mred"},
		{name: "zero width stripped", input: "se\u200bcret\u200d", maxRunes: 100, expected: "secret"},
		{name: "rune truncation", input: "ñandú ñandú", maxRunes: 5, expected: "ñandú"},
		{name: "no limit", input: strings.Repeat("a", 300), maxRunes: 0, expected: strings.Repeat("a", 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, CleanText(tt.input, tt.maxRunes))
		})
	}
}
