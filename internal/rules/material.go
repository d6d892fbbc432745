package rules

import (
	"fmt"
	"time"
)

// RuleMaterialUsageEntry guards material usage postings: no future dates and
// no negative quantities.
const RuleMaterialUsageEntry = 205

// MaterialUsageValidator checks material usage date and quantity.
type MaterialUsageValidator struct {
	Now func() time.Time
}

func (v *MaterialUsageValidator) RuleNumbers() []int {
	return []int{RuleMaterialUsageEntry}
}

func (v *MaterialUsageValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.MaterialUsageDate != nil && truncateToDay(*rc.MaterialUsageDate).After(truncateToDay(v.now())) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Material usage date (%s) cannot be in the future.", rc.MaterialUsageDate.Format("2006-01-02")),
			Hint:       "Material usage can only be recorded for today or past dates.",
		}
	}
	if rc.UpdateQty != nil && *rc.UpdateQty < 0 {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    fmt.Sprintf("Material usage quantity cannot be negative: %.2f", *rc.UpdateQty),
			Hint:       "Material usage quantity must be zero or positive.",
		}
	}
	return nil
}

func (v *MaterialUsageValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
