package services

import (
	"testing"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "phone number without country code",
			input:    "11912345678",
			expected: "5511912345678@c.us",
		},
		{
			name:     "phone number with country code",
			input:    "5511912345678",
			expected: "5511912345678@c.us",
		},
		{
			name:     "formatted number",
			input:    "+55 (11) 91234-5678",
			expected: "5511912345678@c.us",
		},
		{
			name:     "trunk prefix",
			input:    "011912345678",
			expected: "5511912345678@c.us",
		},
		{
			name:     "group id",
			input:    "120363407813232111@g.us",
			expected: "120363407813232111@g.us",
		},
		{
			name:     "number with suffix",
			input:    "11912345678@c.us",
			expected: "5511912345678@c.us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeChatID(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeChatID(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}
