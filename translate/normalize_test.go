package translate

import (
	"errors"
	"testing"

	"github.com/carebridge/carebridge/tools"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9am", "09:00"},
		{"9 AM", "09:00"},
		{"9:30am", "09:30"},
		{"9:30 pm", "21:30"},
		{"5pm", "17:00"},
		{"17:00", "17:00"},
		{"09:00", "09:00"},
		{" 21:15 ", "21:15"},
	}

	for _, tt := range tests {
		got, err := NormalizeTime(tt.input)
		if err != nil {
			t.Errorf("NormalizeTime(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTimeUnparsable(t *testing.T) {
	for _, input := range []string{"", "noonish", "25:99", "o'clock"} {
		if _, err := NormalizeTime(input); !errors.Is(err, ErrUnparsableValue) {
			t.Errorf("NormalizeTime(%q): expected ErrUnparsableValue, got %v", input, err)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10 June 2025", "2025-06-10"},
		{"June 10, 2025", "2025-06-10"},
		{"10 Jun 2025", "2025-06-10"},
		{"2025-06-10", "2025-06-10"},
		{"10/06/2025", "2025-06-10"},
		{"2025/06/10", "2025-06-10"},
	}

	for _, tt := range tests {
		got, err := NormalizeDate(tt.input)
		if err != nil {
			t.Errorf("NormalizeDate(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeDateUnparsable(t *testing.T) {
	for _, input := range []string{"", "sometime soon", "32 June 2025"} {
		if _, err := NormalizeDate(input); !errors.Is(err, ErrUnparsableValue) {
			t.Errorf("NormalizeDate(%q): expected ErrUnparsableValue, got %v", input, err)
		}
	}
}

func TestNormalizeValueByType(t *testing.T) {
	got, err := NormalizeValue(tools.FieldString, "  Maria  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Maria" {
		t.Errorf("FieldString = %q, want 'Maria'", got)
	}

	if _, err := NormalizeValue(tools.FieldEmail, "not-an-email"); !errors.Is(err, ErrUnparsableValue) {
		t.Errorf("expected ErrUnparsableValue for bad email, got %v", err)
	}

	got, err = NormalizeValue(tools.FieldEmail, "pat@example.org")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "pat@example.org" {
		t.Errorf("FieldEmail = %q", got)
	}
}
