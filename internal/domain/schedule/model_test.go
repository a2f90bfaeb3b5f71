package schedule

import (
	"reflect"
	"testing"
	"time"
)

func TestWeekdayName(t *testing.T) {
	// 2026-03-08 is a Sunday.
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		offset int
		want   string
	}{
		{0, "DOMINGO"},
		{1, "LUNES"},
		{3, "MIÉRCOLES"},
		{6, "SÁBADO"},
	}
	for _, tc := range cases {
		if got := WeekdayName(sunday.AddDate(0, 0, tc.offset)); got != tc.want {
			t.Errorf("day +%d: got %q, want %q", tc.offset, got, tc.want)
		}
	}
}

func TestSlotsBetween(t *testing.T) {
	cases := []struct {
		start, end string
		want       []string
	}{
		{"09:00", "10:00", []string{"09:00", "09:30"}},
		{"09:00", "09:30", []string{"09:00"}},
		{"14:00", "16:30", []string{"14:00", "14:30", "15:00", "15:30", "16:00"}},
		{"09:15", "10:15", []string{"09:15", "09:45"}},
	}
	for _, tc := range cases {
		got := SlotsBetween(tc.start, tc.end)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s–%s: got %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestSlotsBetween_DegenerateSpans(t *testing.T) {
	cases := [][2]string{
		{"10:00", "09:00"}, // inverted
		{"10:00", "10:00"}, // empty
		{"banana", "10:00"},
		{"09:00", "25:00"},
		{"09:60", "10:00"},
	}
	for _, tc := range cases {
		if got := SlotsBetween(tc[0], tc[1]); got != nil {
			t.Errorf("%s–%s: expected no slots, got %v", tc[0], tc[1], got)
		}
	}
}
