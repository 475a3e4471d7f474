package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Autumn Leaves", "Autumn Leaves"},
		{"AC/DC", "AC-DC"},
		{"What? No!", "What No!"},
		{"  padded  ", "padded"},
		{"a:b*c", "a-b-c"},
		{"CON", "CON_"},
		{"nul", "nul_"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
