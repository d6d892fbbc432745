package httpapi

import (
	"net/http"
	"strings"
	"time"

	"elina.dev/internal/audit"
	"elina.dev/internal/auth"
	"elina.dev/internal/rules"
)

type ruleRequest struct {
	RuleNumber    int    `json:"rule_number"`
	ControlPoint  string `json:"control_point"`
	Applicability string `json:"applicability"`
	RuleValue     string `json:"rule_value"`
	Description   string `json:"description"`
	Active        bool   `json:"active"`
}

func (req ruleRequest) input() rules.RuleInput {
	return rules.RuleInput{
		RuleNumber:    req.RuleNumber,
		ControlPoint:  req.ControlPoint,
		Applicability: req.Applicability,
		RuleValue:     req.RuleValue,
		Description:   req.Description,
		Active:        req.Active,
	}
}

type ruleResponse struct {
	RuleID        string `json:"rule_id"`
	RuleNumber    int    `json:"rule_number"`
	ControlPoint  string `json:"control_point"`
	Applicability string `json:"applicability"`
	RuleValue     string `json:"rule_value,omitempty"`
	Description   string `json:"description,omitempty"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func toRuleResponse(r rules.BusinessRule) ruleResponse {
	resp := ruleResponse{
		RuleID:        r.RuleID,
		RuleNumber:    r.RuleNumber,
		ControlPoint:  r.ControlPoint,
		Applicability: r.Applicability,
		RuleValue:     r.RuleValue,
		Description:   r.Description,
		Active:        r.Active,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		resp.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toRuleResponses(list []rules.BusinessRule) []ruleResponse {
	out := make([]ruleResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRuleResponse(r))
	}
	return out
}

// handleRules serves GET (list, optionally by control point) and POST
// (create) on /v1/rules.
func (a *API) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := requirePermission(w, r, auth.PermViewRules); !ok {
			return
		}
		var (
			list []rules.BusinessRule
			err  error
		)
		if cp := strings.TrimSpace(r.URL.Query().Get("control_point")); cp != "" {
			list, err = a.engine.RulesByControlPoint(r.Context(), cp)
		} else {
			list, err = a.ruleSvc.List(r.Context())
		}
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": toRuleResponses(list)})
	case http.MethodPost:
		if _, ok := requirePermission(w, r, auth.PermManageRules); !ok {
			return
		}
		var req ruleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule, err := a.ruleSvc.Create(r.Context(), req.input())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rules.create", map[string]any{
			"rule_id":     rule.RuleID,
			"rule_number": rule.RuleNumber,
		})
		writeJSON(w, http.StatusCreated, toRuleResponse(*rule))
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleRuleScoped serves GET, PUT and DELETE on /v1/rules/{id}.
func (a *API) handleRuleScoped(w http.ResponseWriter, r *http.Request) {
	ruleID := strings.TrimPrefix(r.URL.Path, "/v1/rules/")
	if ruleID == "" || strings.Contains(ruleID, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := requirePermission(w, r, auth.PermViewRules); !ok {
			return
		}
		rule, err := a.ruleSvc.Get(r.Context(), ruleID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRuleResponse(*rule))
	case http.MethodPut:
		if _, ok := requirePermission(w, r, auth.PermManageRules); !ok {
			return
		}
		var req ruleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule, err := a.ruleSvc.Update(r.Context(), ruleID, req.input())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rules.update", map[string]any{
			"rule_id":     rule.RuleID,
			"rule_number": rule.RuleNumber,
		})
		writeJSON(w, http.StatusOK, toRuleResponse(*rule))
	case http.MethodDelete:
		if _, ok := requirePermission(w, r, auth.PermManageRules); !ok {
			return
		}
		if err := a.ruleSvc.Delete(r.Context(), ruleID); err != nil {
			handleServiceError(w, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rules.delete", map[string]any{
			"rule_id": ruleID,
		})
		writeJSON(w, http.StatusOK, map[string]any{"deleted": ruleID})
	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

// handleActiveRules lists the current tenant's enforceable rules, served
// through the engine cache.
func (a *API) handleActiveRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if _, ok := requirePermission(w, r, auth.PermViewRules); !ok {
		return
	}
	list, err := a.engine.ActiveRules(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": toRuleResponses(list)})
}
