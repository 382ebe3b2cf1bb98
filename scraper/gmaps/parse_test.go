package gmaps

import "testing"

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"4.5", 4.5},
		{"4,5", 4.5},
		{" 3.0 ", 3.0},
		{"", 0},
		{"not a number", 0},
		{"9.9", 0}, // outside the 0-5 band
		{"-1", 0},
	}
	for _, tt := range tests {
		if got := parseRating(tt.in); got != tt.want {
			t.Errorf("parseRating(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseReviews(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"(1,234)", 1234},
		{"(7)", 7},
		{"12 reviews", 12},
		{"", 0},
		{"()", 0},
	}
	for _, tt := range tests {
		if got := parseReviews(tt.in); got != tt.want {
			t.Errorf("parseReviews(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSafeFileName(t *testing.T) {
	got := safeFileName("error_state_Cafes in Bristol / UK")
	if got != "error_state_cafes_in_bristol___uk" {
		t.Errorf("safeFileName = %q", got)
	}
}
