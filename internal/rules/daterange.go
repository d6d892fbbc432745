package rules

import (
	"fmt"
	"time"
)

// Rule numbers handled by DateRangeValidator.
const (
	RuleStartDateNotInFuture = 201 // task dates may not start in the future
	RuleWbsDateRange         = 202 // WBS end date must not precede its start
)

// DateRangeValidator guards task and WBS date ranges.
type DateRangeValidator struct {
	Now func() time.Time
}

func (v *DateRangeValidator) RuleNumbers() []int {
	return []int{RuleStartDateNotInFuture, RuleWbsDateRange}
}

func (v *DateRangeValidator) Validate(rule *BusinessRule, rc *Context) error {
	switch rule.RuleNumber {
	case RuleStartDateNotInFuture:
		return v.validateTaskDates(rule, rc)
	case RuleWbsDateRange:
		return v.validateWbsDates(rule, rc)
	}
	return nil
}

func (v *DateRangeValidator) validateTaskDates(rule *BusinessRule, rc *Context) error {
	today := truncateToDay(v.now())

	candidate := rc.ConfirmationDate
	if candidate == nil {
		candidate = rc.TaskStartDate
	}
	if candidate != nil && truncateToDay(*candidate).After(today) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Date %s cannot be in the future.", candidate.Format("2006-01-02")),
			Hint:       "Select today or a past date.",
		}
	}
	if rc.TaskStartDate != nil && rc.TaskEndDate != nil && rc.TaskEndDate.Before(*rc.TaskStartDate) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Task end date (%s) cannot be before start date (%s).",
				rc.TaskEndDate.Format("2006-01-02"), rc.TaskStartDate.Format("2006-01-02")),
			Hint: "End date must be on or after the start date.",
		}
	}
	return nil
}

func (v *DateRangeValidator) validateWbsDates(rule *BusinessRule, rc *Context) error {
	if rc.WbsStartDate != nil && rc.WbsEndDate != nil && rc.WbsEndDate.Before(*rc.WbsStartDate) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("WBS end date (%s) cannot be before start date (%s).",
				rc.WbsEndDate.Format("2006-01-02"), rc.WbsStartDate.Format("2006-01-02")),
			Hint: "End date must be on or after the start date.",
		}
	}
	return nil
}

func (v *DateRangeValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
