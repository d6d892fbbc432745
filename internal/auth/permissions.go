package auth

// Permission codes checked by the administrative API surface.
const (
	PermManageRules = "rules.manage"
	PermViewRules   = "rules.view"
)
