package rules

import (
	"fmt"
	"time"
)

// RuleAttendanceNotInFuture rejects attendance postings dated after today.
const RuleAttendanceNotInFuture = 204

// AttendanceValidator guards attendance entry dates.
type AttendanceValidator struct {
	Now func() time.Time
}

func (v *AttendanceValidator) RuleNumbers() []int {
	return []int{RuleAttendanceNotInFuture}
}

func (v *AttendanceValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.AttendanceDate == nil {
		return nil
	}
	if truncateToDay(*rc.AttendanceDate).After(truncateToDay(v.now())) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Attendance date (%s) cannot be in the future.", rc.AttendanceDate.Format("2006-01-02")),
			Hint:       "Attendance can only be posted for today or past dates.",
		}
	}
	return nil
}

func (v *AttendanceValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
