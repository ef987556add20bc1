package usecase

import (
	"errors"
	"testing"
	"time"
)

func newTestParser(t *testing.T) *ScheduleParser {
	t.Helper()

	parser, err := NewScheduleParser("Europe/London", "Asia/Ulaanbaatar")
	if err != nil {
		t.Fatalf("NewScheduleParser: %v", err)
	}
	parser.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}

	return parser
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	parser := newTestParser(t)
	description, start, err := parser.Parse("North London derby / 14 March at 20:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if description != "North London derby" {
		t.Fatalf("description: got=%q", description)
	}

	london, _ := time.LoadLocation("Europe/London")
	want := time.Date(2026, 3, 14, 20, 0, 0, 0, london)
	if !start.Equal(want) {
		t.Fatalf("start: got=%v want=%v", start, want)
	}
	if start.Location().String() != "Asia/Ulaanbaatar" {
		t.Fatalf("start location: got=%s", start.Location())
	}
}

func TestParseScheduleWithoutDescription(t *testing.T) {
	t.Parallel()

	parser := newTestParser(t)
	description, start, err := parser.Parse("14 March at 20:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if description != "" {
		t.Fatalf("description: got=%q want empty", description)
	}
	if start.IsZero() {
		t.Fatalf("start must be set")
	}
}

func TestParseScheduleMalformed(t *testing.T) {
	t.Parallel()

	parser := newTestParser(t)
	for _, raw := range []string{"", "derby / soon", "derby / 14 March", "derby / March at 20:00 maybe"} {
		if _, _, err := parser.Parse(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("raw=%q: expected ErrInvalidInput, got %v", raw, err)
		}
	}
}
