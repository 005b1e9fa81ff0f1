package schedule

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{"09:00", Clock{9, 0}, false},
		{"23:59", Clock{23, 59}, false},
		{"0:5", Clock{0, 5}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"-1:00", Clock{}, true},
		{"garbage", Clock{}, true},
		{"", Clock{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockString(t *testing.T) {
	if got := (Clock{9, 5}).String(); got != "09:05" {
		t.Errorf("String() = %q, want %q", got, "09:05")
	}
}

func TestClockJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Clock{14, 30})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"14:30"` {
		t.Errorf("Marshal = %s, want %q", b, `"14:30"`)
	}

	var c Clock
	if err := json.Unmarshal(b, &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c != (Clock{14, 30}) {
		t.Errorf("round trip = %v, want {14 30}", c)
	}

	if err := json.Unmarshal([]byte(`"25:00"`), &c); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("expected ErrInvalidClock, got %v", err)
	}
}

func TestParseWeekday(t *testing.T) {
	for token, want := range map[string]time.Weekday{
		"Sun": time.Sunday,
		"Mon": time.Monday,
		"Wed": time.Wednesday,
		"Sat": time.Saturday,
	} {
		got, err := ParseWeekday(token)
		if err != nil {
			t.Errorf("ParseWeekday(%q): %v", token, err)
		}
		if got != want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", token, got, want)
		}
	}

	if _, err := ParseWeekday("Monday"); !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("expected ErrInvalidWeekday for long form, got %v", err)
	}
}

func TestWeekdayToken(t *testing.T) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		token := WeekdayToken(day)
		back, err := ParseWeekday(token)
		if err != nil {
			t.Fatalf("ParseWeekday(WeekdayToken(%v)): %v", day, err)
		}
		if back != day {
			t.Errorf("token round trip for %v: got %v", day, back)
		}
	}
}
