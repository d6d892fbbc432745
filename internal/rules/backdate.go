package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rule numbers handled by BackdateValidator.
const (
	RuleBackdateAllowedTill      = 101 // max days an update may be backdated
	RuleBackdateAllowedAfterLock = 102 // whether backdating past the lock date is allowed
)

// BackdateValidator enforces the backdating window. Rule 101 interprets
// RuleValue as the number of days backdating is allowed; rule 102 interprets
// RuleValue "Y" as permission to date entries before the lock date.
type BackdateValidator struct {
	// Now overrides the time source in tests; nil means time.Now.
	Now func() time.Time
}

func (v *BackdateValidator) RuleNumbers() []int {
	return []int{RuleBackdateAllowedTill, RuleBackdateAllowedAfterLock}
}

func (v *BackdateValidator) Validate(rule *BusinessRule, rc *Context) error {
	dateToCheck := rc.UpdateDate
	if dateToCheck == nil {
		dateToCheck = rc.ConfirmationDate
	}
	if dateToCheck == nil {
		return nil
	}
	today := truncateToDay(v.now())

	switch rule.RuleNumber {
	case RuleBackdateAllowedTill:
		return v.validateAllowedTill(rule, truncateToDay(*dateToCheck), today)
	case RuleBackdateAllowedAfterLock:
		return v.validateAfterLock(rule, truncateToDay(*dateToCheck), rc.LockDate)
	}
	return nil
}

func (v *BackdateValidator) validateAllowedTill(rule *BusinessRule, dateToCheck, today time.Time) error {
	if dateToCheck.After(today) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Cannot backdate to a future date: %s", dateToCheck.Format("2006-01-02")),
			Hint:       "Update date cannot be in the future.",
		}
	}
	if dateToCheck.Before(today) {
		allowedDays, err := strconv.Atoi(strings.TrimSpace(rule.RuleValue))
		if err != nil {
			return &Violation{
				RuleNumber: rule.RuleNumber,
				Message:    fmt.Sprintf("Invalid rule value for BACKDATE_ALLOWED_TILL: %s", rule.RuleValue),
				Hint:       "Please contact the administrator to configure this rule correctly.",
			}
		}
		days := int(today.Sub(dateToCheck).Hours() / 24)
		if days > allowedDays {
			return &Violation{
				RuleNumber: rule.RuleNumber,
				Message:    fmt.Sprintf("Backdating is only allowed for %d days. Attempted to backdate by %d days.", allowedDays, days),
				Hint:       fmt.Sprintf("You can only backdate up to %d days from today.", allowedDays),
			}
		}
	}
	return nil
}

func (v *BackdateValidator) validateAfterLock(rule *BusinessRule, dateToCheck time.Time, lockDate *time.Time) error {
	if lockDate == nil {
		return nil
	}
	if dateToCheck.Before(truncateToDay(*lockDate)) && !strings.EqualFold(rule.RuleValue, ApplicabilityYes) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Cannot backdate before lock date (%s). Update date: %s",
				lockDate.Format("2006-01-02"), dateToCheck.Format("2006-01-02")),
			Hint: "Backdating before the lock date is not allowed.",
		}
	}
	return nil
}

func (v *BackdateValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
