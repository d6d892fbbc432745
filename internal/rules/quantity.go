package rules

import "fmt"

// RuleUpdateWithinPlannedQty prevents daily updates from pushing the actual
// quantity past the planned quantity.
const RuleUpdateWithinPlannedQty = 401

// QuantityValidator guards planned-versus-actual quantity limits.
type QuantityValidator struct{}

func (v *QuantityValidator) RuleNumbers() []int {
	return []int{RuleUpdateWithinPlannedQty}
}

func (v *QuantityValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.PlannedQty == nil {
		return nil
	}

	newActual := 0.0
	if rc.ActualQty != nil {
		newActual = *rc.ActualQty
	}
	switch {
	case rc.DailyUpdateQty != nil:
		newActual += *rc.DailyUpdateQty
	case rc.UpdateQty != nil:
		newActual = *rc.UpdateQty
	}

	if newActual > *rc.PlannedQty {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Daily update quantity (%.2f) cannot exceed planned quantity (%.2f).",
				newActual, *rc.PlannedQty),
			Hint: fmt.Sprintf("The total actual quantity (%.2f) exceeds the planned quantity (%.2f). Please adjust the update quantity.",
				newActual, *rc.PlannedQty),
		}
	}
	return nil
}
