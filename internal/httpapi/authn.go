package httpapi

import (
	"net/http"
	"strings"

	"elina.dev/internal/auth"
	"elina.dev/internal/tenant"
)

// publicPaths are reachable without a bearer token.
var publicPaths = map[string]bool{
	"/healthz":         true,
	"/readyz":          true,
	"/metrics":         true,
	"/v1/info":         true,
	"/v1/auth/login":   true,
	"/v1/auth/refresh": true,
}

// withAuth verifies the bearer token, binds the tenant scope and the caller's
// principal into the request context, and rejects everything else with 401.
// Refresh tokens are not credentials for ordinary endpoints.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := extractBearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if claims.IsRefresh() {
			writeError(w, http.StatusUnauthorized, "refresh token is not valid for API access")
			return
		}

		principal := auth.Principal{
			UserID:      claims.Subject,
			TenantID:    claims.TenantID,
			Roles:       claims.Roles,
			Permissions: claims.Permissions,
		}
		ctx := tenant.WithTenant(r.Context(), claims.TenantID)
		ctx = auth.ContextWithPrincipal(ctx, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// requirePermission fetches the principal and checks one permission code.
// Writes the response itself and reports whether the caller may proceed.
func requirePermission(w http.ResponseWriter, r *http.Request, code string) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Principal{}, false
	}
	if !principal.HasPermission(code) {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return auth.Principal{}, false
	}
	return principal, true
}
