package auth

import "context"

// Principal is the verified caller: identity plus the authority claims taken
// from the presented credential. It is immutable for the request lifetime.
type Principal struct {
	UserID      string
	TenantID    string
	Roles       []string
	Permissions []string
}

// HasPermission reports whether the credential carried the permission code.
func (p Principal) HasPermission(code string) bool {
	for _, c := range p.Permissions {
		if c == code {
			return true
		}
	}
	return false
}

// HasRole reports whether the credential carried the role code.
func (p Principal) HasRole(code string) bool {
	for _, c := range p.Roles {
		if c == code {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}
