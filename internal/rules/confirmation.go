package rules

import "fmt"

// RuleConfirmationLocked prevents overwriting confirmed or locked entries.
const RuleConfirmationLocked = 301

// ConfirmationLockValidator blocks modification of entries that have been
// confirmed or administratively locked.
type ConfirmationLockValidator struct{}

func (v *ConfirmationLockValidator) RuleNumbers() []int {
	return []int{RuleConfirmationLocked}
}

func (v *ConfirmationLockValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.Confirmed != nil && *rc.Confirmed {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Cannot modify confirmed entry. Entry ID: %s", rc.EntityID),
			Hint:       "Once an entry is confirmed, it cannot be modified. Contact the administrator if changes are required.",
		}
	}
	if rc.Locked != nil && *rc.Locked {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Cannot modify locked entry. Entry ID: %s", rc.EntityID),
			Hint:       "This entry has been locked and cannot be modified.",
		}
	}
	return nil
}
