package httpapi

import (
	"errors"
	"net/http"
	"time"

	"elina.dev/internal/audit"
	"elina.dev/internal/auth"
)

type loginRequest struct {
	TenantCode string `json:"tenant_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresAt    string   `json:"expires_at"`
	UserID       string   `json:"user_id"`
	TenantID     string   `json:"tenant_id"`
	TenantCode   string   `json:"tenant_code"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

func toSessionResponse(s auth.Session) sessionResponse {
	resp := sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    s.AccessExpiresAt.UTC().Format(time.RFC3339),
		Roles:        s.Roles,
		Permissions:  s.Permissions,
	}
	if s.User != nil {
		resp.UserID = s.User.ID
		resp.Email = s.User.Email
	}
	if s.Tenant != nil {
		resp.TenantID = s.Tenant.ID
		resp.TenantCode = s.Tenant.Code
	}
	return resp
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.authSvc.Login(r.Context(), req.TenantCode, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		handleServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":   session.User.ID,
		"tenant_id": session.Tenant.ID,
	})
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.authSvc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		handleServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id":   session.User.ID,
		"tenant_id": session.Tenant.ID,
	})
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}
