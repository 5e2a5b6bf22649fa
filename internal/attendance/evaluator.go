// Package attendance classifies a check-in/check-out pair against the office
// time policy.
package attendance

import (
	"strconv"
	"strings"

	"github.com/hrportal/attendance-service/internal/domain"
)

// Policy constants, in minutes since midnight.
const (
	OfficeStart = 9*60 + 30  // 09:30
	OfficeEnd   = 18*60 + 30 // 18:30
	HalfPoint   = 14*60 + 30 // 14:30
	LateAfter   = 9*60 + 35  // 09:35
)

// Rejection reasons.
const (
	ReasonInvalidFormat = "Invalid time format"
	ReasonInvalidRange  = "Invalid time range"
	ReasonTooEarly      = "Check-in cannot be before 09:30 AM"
	ReasonTooLate       = "Check-out cannot be after 06:30 PM"
)

// Evaluation is the tagged result of Evaluate. When Allowed is false only
// Reason is meaningful.
type Evaluation struct {
	Allowed bool
	Type    domain.AttendanceType
	Late    bool
	Reason  string
}

func rejected(reason string) Evaluation {
	return Evaluation{Allowed: false, Reason: reason}
}

// Evaluate classifies the HH:MM pair. The rule order below is the policy;
// do not reorder.
func Evaluate(startTime, endTime string) Evaluation {
	in, ok := ParseClock(startTime)
	if !ok {
		return rejected(ReasonInvalidFormat)
	}
	out, ok := ParseClock(endTime)
	if !ok {
		return rejected(ReasonInvalidFormat)
	}
	return EvaluateMinutes(in, out)
}

// EvaluateMinutes is Evaluate over minutes-since-midnight values.
func EvaluateMinutes(in, out int) Evaluation {
	if in >= out {
		return rejected(ReasonInvalidRange)
	}
	if in < OfficeStart {
		return rejected(ReasonTooEarly)
	}
	if out > OfficeEnd {
		return rejected(ReasonTooLate)
	}

	isLate := in > LateAfter

	// morning half
	if in >= OfficeStart && out <= HalfPoint {
		return Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: isLate}
	}
	// afternoon half, never late
	if in >= HalfPoint && out <= OfficeEnd {
		return Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: false}
	}
	if in <= OfficeStart && out >= OfficeEnd {
		return Evaluation{Allowed: true, Type: domain.AttendanceFullDay, Late: false}
	}
	// TODO: windows straddling 14:30 without covering the full day land here;
	// confirm with HR whether these should be Half Day.
	return Evaluation{Allowed: true, Type: domain.AttendanceHalfDay, Late: isLate}
}

// Leave is the fixed classification for a leave submission.
func Leave() Evaluation {
	return Evaluation{Allowed: true, Type: domain.AttendanceAbsent, Late: false}
}

// ParseClock converts a zero-padded 24-hour HH:MM string to minutes since
// midnight.
func ParseClock(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || !twoDigits(parts[0]) || !twoDigits(parts[1]) {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	h, m := minutes/60, minutes%60
	return pad2(h) + ":" + pad2(m)
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
