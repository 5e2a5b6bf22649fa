package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrportal/attendance-service/internal/domain"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  Evaluation
	}{
		{"full day exact window", "09:30", "18:30", Evaluation{Allowed: true, Type: domain.AttendanceFullDay}},
		{"late start misses full day", "09:40", "18:30", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: true}},
		{"grace period start", "09:35", "18:30", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: false}},
		{"morning half", "09:30", "14:00", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay}},
		{"morning half to split", "09:30", "14:30", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay}},
		{"morning half late", "09:50", "13:00", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: true}},
		{"afternoon half never late", "14:30", "18:30", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay}},
		{"afternoon half short", "15:00", "17:00", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay}},
		{"catch-all late", "10:00", "13:00", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: true}},
		{"straddles split", "11:00", "16:00", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: true}},
		{"straddles split on time", "09:30", "16:00", Evaluation{Allowed: true, Type: domain.AttendanceHalfDay}},
		{"before office start", "09:00", "19:00", Evaluation{Reason: ReasonTooEarly}},
		{"early check-in", "09:29", "12:00", Evaluation{Reason: ReasonTooEarly}},
		{"late check-out", "10:00", "18:31", Evaluation{Reason: ReasonTooLate}},
		{"equal times", "10:00", "10:00", Evaluation{Reason: ReasonInvalidRange}},
		{"reversed times", "12:00", "10:00", Evaluation{Reason: ReasonInvalidRange}},
		{"reversed and early", "09:00", "08:00", Evaluation{Reason: ReasonInvalidRange}},
		{"bad format", "9:30", "18:30", Evaluation{Reason: ReasonInvalidFormat}},
		{"bad hour", "25:00", "26:00", Evaluation{Reason: ReasonInvalidFormat}},
		{"empty", "", "18:30", Evaluation{Reason: ReasonInvalidFormat}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.start, tc.end))
		})
	}
}

func TestEvaluateEarlyCheckInAlwaysRejected(t *testing.T) {
	for start := 0; start < OfficeStart; start++ {
		for end := start + 1; end < 24*60; end += 7 {
			got := EvaluateMinutes(start, end)
			assert.False(t, got.Allowed)
			assert.Equal(t, ReasonTooEarly, got.Reason, "start=%s end=%s", FormatClock(start), FormatClock(end))
		}
	}
}

func TestEvaluateLateCheckOutAlwaysRejected(t *testing.T) {
	for end := OfficeEnd + 1; end < 24*60; end++ {
		for start := OfficeStart; start < end; start += 11 {
			got := EvaluateMinutes(start, end)
			assert.False(t, got.Allowed)
			assert.Equal(t, ReasonTooLate, got.Reason)
		}
	}
}

func TestEvaluateInvalidRange(t *testing.T) {
	for start := 0; start < 24*60; start += 13 {
		for end := 0; end <= start; end += 17 {
			got := EvaluateMinutes(start, end)
			assert.Equal(t, Evaluation{Reason: ReasonInvalidRange}, got)
		}
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	for start := OfficeStart; start < OfficeEnd; start += 5 {
		for end := start + 1; end <= OfficeEnd; end += 5 {
			s, e := FormatClock(start), FormatClock(end)
			assert.Equal(t, Evaluate(s, e), Evaluate(s, e))
		}
	}
}

func TestLeave(t *testing.T) {
	got := Leave()
	assert.True(t, got.Allowed)
	assert.Equal(t, domain.AttendanceAbsent, got.Type)
	assert.False(t, got.Late)
}

func TestParseClock(t *testing.T) {
	v, ok := ParseClock("09:35")
	assert.True(t, ok)
	assert.Equal(t, LateAfter, v)

	for _, bad := range []string{"0935", "9:35", "09:5", "+9:30", "09:60", "24:00", "ab:cd"} {
		_, ok := ParseClock(bad)
		assert.False(t, ok, bad)
	}
	assert.Equal(t, "14:30", FormatClock(HalfPoint))
}
