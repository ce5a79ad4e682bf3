package feed

import "testing"

func TestParseDurationText(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1:23:45", 83},
		{"45", 1},
		{"8:45", 9},
		{"8:29", 8},
		{"0:20", 0},
		{"10:00", 10},
		{"2:00:00", 120},
		{"", 0},
		{"Unknown", 0},
		{"1:2:3:4", 0},
		{"abc", 0},
		{"x:30", 1},
		{"12:xx", 12},
		{" 3:30 ", 4},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseDurationText(tc.in); got != tc.want {
				t.Errorf("ParseDurationText(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestMinutesFromSeconds(t *testing.T) {
	tests := []struct {
		sec  int
		want int
	}{
		{0, 0},
		{-5, 0},
		{29, 0},
		{30, 1},
		{599, 10},
		{600, 10},
		{5025, 84},
	}
	for _, tc := range tests {
		if got := MinutesFromSeconds(tc.sec); got != tc.want {
			t.Errorf("MinutesFromSeconds(%d) = %d, want %d", tc.sec, got, tc.want)
		}
	}
}

func TestNormalizeDuration(t *testing.T) {
	min, sec := NormalizeDuration(TextDuration("1:23:45"))
	if min != 83 || sec != 5025 {
		t.Errorf("text path = (%d, %d), want (83, 5025)", min, sec)
	}

	min, sec = NormalizeDuration(SecondsDuration(480))
	if min != 8 || sec != 480 {
		t.Errorf("seconds path = (%d, %d), want (8, 480)", min, sec)
	}

	min, sec = NormalizeDuration(Duration{})
	if min != 0 || sec != 0 {
		t.Errorf("absent = (%d, %d), want (0, 0)", min, sec)
	}
}
