package rules

import "time"

// DateRange is a closed interval used by window and overlap checks.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two closed date ranges intersect.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Context carries the inputs for one validation call. It is created by the
// calling operation, consumed once and discarded, never persisted or shared.
// Known fields are typed; Params remains for truly validator-specific inputs,
// documented per validator.
type Context struct {
	TenantID string
	UserID   string

	EntityType string
	EntityID   string

	PlannedQty     *float64
	ActualQty      *float64
	UpdateQty      *float64
	DailyUpdateQty *float64

	UpdateDate          *time.Time
	ConfirmationDate    *time.Time
	LockDate            *time.Time
	TaskStartDate       *time.Time
	TaskEndDate         *time.Time
	WbsStartDate        *time.Time
	WbsEndDate          *time.Time
	AllocationStartDate *time.Time
	AllocationEndDate   *time.Time
	AttendanceDate      *time.Time
	MaterialUsageDate   *time.Time

	TaskStatus         string
	WbsStatus          string
	ConfirmationStatus string
	Locked             *bool
	Confirmed          *bool

	Params map[string]any
}

// WithParam attaches a validator-specific parameter and returns the context
// for chaining.
func (c *Context) WithParam(key string, value any) *Context {
	if c.Params == nil {
		c.Params = make(map[string]any)
	}
	c.Params[key] = value
	return c
}

// ParamString returns the named parameter as a string, or "" when absent.
func (c *Context) ParamString(key string) string {
	if c.Params == nil {
		return ""
	}
	if v, ok := c.Params[key].(string); ok {
		return v
	}
	return ""
}

// ParamDateRanges returns the named parameter as a slice of date ranges, or
// nil when absent or of a different type.
func (c *Context) ParamDateRanges(key string) []DateRange {
	if c.Params == nil {
		return nil
	}
	if v, ok := c.Params[key].([]DateRange); ok {
		return v
	}
	return nil
}
