package logutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 100, "short"},
		{"line1\nline2", 100, "line1\\nline2"},
		{"tab\there", 100, "tab\\there"},
		{"ctrl\x01char", 100, "ctrl?char"},
		{"abcdefghij", 4, "abcd..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
