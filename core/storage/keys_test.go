package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "cat.png", "cat.png"},
		{"LeadingSlash", "/2024-01-05/cat.png", "2024-01-05/cat.png"},
		{"DoubleSlash", "a//b.txt", "a/b.txt"},
		{"DotSegments", "./a/./b.txt", "a/b.txt"},
		{"ParentSegment", "a/../b.txt", "b.txt"},
		{"Empty", "", ""},
		{"Dot", ".", ""},
		{"Root", "/", ""},
		{"TrailingSlash", "a/b/", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestISODatePrefix(t *testing.T) {
	got := ISODatePrefix("cat.png")

	parts := strings.SplitN(got, "/", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "cat.png", parts[1])

	// The date folder must be zero-padded ISO-8601.
	_, err := time.Parse("2006-01-02", parts[0])
	require.NoError(t, err)
	assert.Len(t, parts[0], 10)
	assert.Equal(t, ISODate(), parts[0])
}

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		explicit string
		want     string
	}{
		{"ExplicitWins", "cat.png", "text/plain", "text/plain"},
		{"FromExtension", "cat.png", "", "image/png"},
		{"JSON", "data/config.json", "", "application/json"},
		{"UnknownExtension", "blob.xyzzy", "", "application/octet-stream"},
		{"NoExtension", "README", "", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guessContentType(tt.key, tt.explicit))
		})
	}
}
