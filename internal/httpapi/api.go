// Package httpapi is the inbound boundary: it verifies bearer credentials,
// binds the tenant scope and the caller's principal, and exposes the login,
// refresh and rule-administration endpoints.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"elina.dev/internal/auth"
	"elina.dev/internal/obs"
	"elina.dev/internal/rules"
	"elina.dev/internal/tenant"
)

// ReadyProbe is a simple readiness check (e.g. DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	tokens  *auth.TokenService
	authSvc *auth.Service
	ruleSvc *rules.Service
	engine  *rules.Engine

	rateRPS   float64
	rateBurst int
}

// SetRateLimit configures the process-wide request rate limit. Call before
// Handler; zero rps disables limiting.
func (a *API) SetRateLimit(rps float64, burst int) {
	a.rateRPS = rps
	a.rateBurst = burst
}

// New wires the API with its collaborating services.
func New(rp ReadyProbe, version string, tokens *auth.TokenService, authSvc *auth.Service, ruleSvc *rules.Service, engine *rules.Engine) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		tokens:     tokens,
		authSvc:    authSvc,
		ruleSvc:    ruleSvc,
		engine:     engine,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)

	a.mux.HandleFunc("/v1/rules", a.handleRules)
	a.mux.HandleFunc("/v1/rules/", a.handleRuleScoped)
	a.mux.HandleFunc("/v1/rules:active", a.handleActiveRules)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the composed http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateRPS, a.rateBurst)
	h = RequestID(h)
	h = Logging(h)
	h = SecurityHeaders(h)
	h = MaxBodyBytes(h, 1<<20)
	return obs.Instrument(h)
}

// --- health handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "elina-authz",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "elina-authz",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// handleServiceError maps domain errors onto HTTP responses.
func handleServiceError(w http.ResponseWriter, err error) {
	var violation *rules.Violation
	var lookup *rules.LookupError
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, tenant.ErrScopeNotSet):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, rules.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &violation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       "business rule violated",
			"rule_number": violation.RuleNumber,
			"message":     violation.Message,
			"hint":        violation.Hint,
		})
	case errors.As(err, &lookup):
		writeError(w, http.StatusServiceUnavailable, "rule lookup failed, retry later")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
