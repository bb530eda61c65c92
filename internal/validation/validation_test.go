package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_IsValidURL(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"https url", "https://example.com/a", true},
		{"http url with query", "http://example.com/path?q=1#frag", true},
		{"ftp url", "ftp://files.example.com/file.txt", true},
		{"empty", "", false},
		{"plain text", "not a url", false},
		{"missing scheme", "example.com/a", false},
		{"scheme only", "https://", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsValidURL(tt.candidate))
		})
	}
}

func TestValidator_IsValidShortCode(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"letters and digits", "abc123", true},
		{"underscore and hyphen", "my_link-2024", true},
		{"single char", "a", true},
		{"empty", "", false},
		{"space", "my link", false},
		{"slash", "a/b", false},
		{"dot", "a.b", false},
		{"non ascii", "ссылка", false},
		{"percent", "100%", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsValidShortCode(tt.candidate))
		})
	}
}
