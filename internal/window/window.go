// Package window decides whether a host's patch window is open at a given
// instant. The window is an exact weekday/hour/minute match, not a range;
// the scheduler polls more often than once a minute, so a caller must
// de-duplicate repeated positive evaluations within the same minute.
package window

import "time"

// Day is a manifest weekday, Monday=0 through Sunday=6. Values outside
// that range map to DayInvalid and never match.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	// DayInvalid marks an out-of-range weekday from the manifest. It is
	// an explicit value so a bad manifest reads as "invalid" in logs
	// instead of being coerced to some real day.
	DayInvalid Day = -1
)

var dayNames = map[Day]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
	Sunday:    "sunday",
}

// DayOf maps a manifest weekday integer to a Day.
func DayOf(weekday int) Day {
	if weekday < 0 || weekday > 6 {
		return DayInvalid
	}
	return Day(weekday)
}

// String returns the lowercase day name, or "invalid".
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "invalid"
}

// FromTime converts Go's Sunday=0 weekday numbering to manifest numbering.
func FromTime(w time.Weekday) Day {
	if w == time.Sunday {
		return Sunday
	}
	return Day(int(w) - 1)
}

// Reason explains an eligibility decision.
type Reason string

const (
	// ReasonEligible: the window is open and patching is enabled.
	ReasonEligible Reason = "eligible"
	// ReasonDisabled: policy.patch is false; the host is never eligible.
	// Distinct from a time mismatch so operators can tell "turned off"
	// from "not yet".
	ReasonDisabled Reason = "patching_disabled"
	// ReasonOutsideWindow: patching is enabled but now is not the window.
	ReasonOutsideWindow Reason = "outside_window"
)

// Policy is the subset of a host policy the evaluator needs.
type Policy struct {
	Patch   bool
	Weekday int
	Hour    int
	Minute  int
}

// Decision is the ephemeral result of one evaluation. It is recomputed
// every cycle and never stored.
type Decision struct {
	Eligible bool
	Reason   Reason
	Day      Day
}

// Evaluate reports whether the policy's window is open at now. The host is
// eligible only when patching is enabled and now's weekday, hour, and minute
// all equal the policy's. An invalid policy weekday never matches.
func Evaluate(now time.Time, p Policy) Decision {
	day := DayOf(p.Weekday)

	if !p.Patch {
		return Decision{Eligible: false, Reason: ReasonDisabled, Day: day}
	}

	if day == DayInvalid {
		return Decision{Eligible: false, Reason: ReasonOutsideWindow, Day: day}
	}

	if FromTime(now.Weekday()) == day && now.Hour() == p.Hour && now.Minute() == p.Minute {
		return Decision{Eligible: true, Reason: ReasonEligible, Day: day}
	}

	return Decision{Eligible: false, Reason: ReasonOutsideWindow, Day: day}
}
