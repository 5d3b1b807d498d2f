package pdf

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		limit         int
		want          string
		wantTruncated bool
	}{
		{name: "short", text: "abc", limit: 5, want: "abc"},
		{name: "exact", text: "abcde", limit: 5, want: "abcde"},
		{name: "ascii", text: "abcdef", limit: 4, want: "abcd", wantTruncated: true},
		{name: "inside a rune", text: "ab€cd", limit: 4, want: "ab", wantTruncated: true},
		{name: "rune boundary", text: "ab€cd", limit: 5, want: "ab€", wantTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := truncateText(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTruncated, truncated)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestTruncateText_LongMultiByteText(t *testing.T) {
	text := strings.Repeat("é", maxPageText)

	got, truncated := truncateText(text, maxPageText)

	assert.True(t, truncated)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxPageText)
	assert.NotContains(t, got, string(utf8.RuneError))
}
