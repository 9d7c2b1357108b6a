package postgres

import "testing"

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"report", "%report%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\tmp`, `%c:\\tmp%`},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := ContainsPattern(tt.query); got != tt.want {
				t.Errorf("ContainsPattern(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
