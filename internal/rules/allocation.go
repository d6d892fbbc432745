package rules

import "fmt"

// Rule numbers handled by the allocation validators.
const (
	RuleAllocationDateOrder      = 203 // allocation end must not precede its start
	RuleAllocationDatesRequired  = 501 // allocation start and end dates are mandatory
	RuleAllocationWithinWbsDates = 601 // allocation must lie within its WBS dates
	RuleAllocationNoOverlap      = 602 // allocation must not overlap existing ones
)

// ParamExistingAllocations is the Context parameter key for the resource's
// already-committed allocation ranges, as []DateRange. The caller populates
// it for rule 602.
const ParamExistingAllocations = "existing_allocations"

// AllocationDateValidator checks the allocation period itself: the dates must
// be ordered, and rule 501 additionally requires both to be present.
type AllocationDateValidator struct{}

func (v *AllocationDateValidator) RuleNumbers() []int {
	return []int{RuleAllocationDateOrder, RuleAllocationDatesRequired}
}

func (v *AllocationDateValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.AllocationStartDate != nil && rc.AllocationEndDate != nil &&
		rc.AllocationEndDate.Before(*rc.AllocationStartDate) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Allocation end date (%s) cannot be before start date (%s).",
				rc.AllocationEndDate.Format("2006-01-02"), rc.AllocationStartDate.Format("2006-01-02")),
			Hint: "Allocation end date must be on or after the start date.",
		}
	}
	if rule.RuleNumber == RuleAllocationDatesRequired &&
		(rc.AllocationStartDate == nil || rc.AllocationEndDate == nil) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message:    "Allocation start date and end date are required.",
			Hint:       "Please provide both start and end dates for the allocation.",
		}
	}
	return nil
}

// AllocationWindowValidator ensures a resource allocation stays inside the
// date window of the WBS element it is booked against.
type AllocationWindowValidator struct{}

func (v *AllocationWindowValidator) RuleNumbers() []int {
	return []int{RuleAllocationWithinWbsDates}
}

func (v *AllocationWindowValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.AllocationStartDate == nil || rc.AllocationEndDate == nil {
		return nil
	}
	if rc.AllocationEndDate.Before(*rc.AllocationStartDate) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Allocation end date (%s) cannot be before start date (%s).",
				rc.AllocationEndDate.Format("2006-01-02"), rc.AllocationStartDate.Format("2006-01-02")),
			Hint: "End date must be on or after the start date.",
		}
	}
	if rc.WbsStartDate != nil && rc.AllocationStartDate.Before(*rc.WbsStartDate) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Allocation start (%s) is before the WBS start date (%s).",
				rc.AllocationStartDate.Format("2006-01-02"), rc.WbsStartDate.Format("2006-01-02")),
			Hint: "Allocations must stay within the WBS date window.",
		}
	}
	if rc.WbsEndDate != nil && rc.AllocationEndDate.After(*rc.WbsEndDate) {
		return &Violation{
			RuleNumber: rule.RuleNumber,
			Message: fmt.Sprintf("Allocation end (%s) is after the WBS end date (%s).",
				rc.AllocationEndDate.Format("2006-01-02"), rc.WbsEndDate.Format("2006-01-02")),
			Hint: "Allocations must stay within the WBS date window.",
		}
	}
	return nil
}

// AllocationOverlapValidator rejects allocations that intersect an existing
// allocation of the same resource. Existing ranges arrive through the
// ParamExistingAllocations context parameter.
type AllocationOverlapValidator struct{}

func (v *AllocationOverlapValidator) RuleNumbers() []int {
	return []int{RuleAllocationNoOverlap}
}

func (v *AllocationOverlapValidator) Validate(rule *BusinessRule, rc *Context) error {
	if rc.AllocationStartDate == nil || rc.AllocationEndDate == nil {
		return nil
	}
	candidate := DateRange{Start: *rc.AllocationStartDate, End: *rc.AllocationEndDate}
	for _, existing := range rc.ParamDateRanges(ParamExistingAllocations) {
		if candidate.Overlaps(existing) {
			return &Violation{
				RuleNumber: rule.RuleNumber,
				Message: fmt.Sprintf("Allocation %s..%s overlaps an existing allocation %s..%s.",
					candidate.Start.Format("2006-01-02"), candidate.End.Format("2006-01-02"),
					existing.Start.Format("2006-01-02"), existing.End.Format("2006-01-02")),
				Hint: "Choose a period that does not overlap the resource's existing allocations.",
			}
		}
	}
	return nil
}

// DefaultValidators returns the full validator set wired at startup.
func DefaultValidators() []Validator {
	return []Validator{
		&BackdateValidator{},
		&DateRangeValidator{},
		&AllocationDateValidator{},
		&AttendanceValidator{},
		&MaterialUsageValidator{},
		&ConfirmationLockValidator{},
		&QuantityValidator{},
		&AllocationWindowValidator{},
		&AllocationOverlapValidator{},
	}
}
