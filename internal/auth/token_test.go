package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret", opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.IssueAccessToken("user-1", "tenant-1",
		[]string{"admin"}, []string{"rules.manage", "rules.view"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("tenant = %q, want tenant-1", claims.TenantID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Errorf("roles = %v, want [admin]", claims.Roles)
	}
	if len(claims.Permissions) != 2 {
		t.Errorf("permissions = %v, want two codes", claims.Permissions)
	}
	if claims.IsRefresh() {
		t.Error("access token must not read as refresh")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.IssueAccessToken("user-1", "tenant-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := svc.Verify(tampered); !errors.Is(err, ErrInvalidSignature) && !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Verify tampered = %v, want signature or malformed error", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newTestTokenService(t)
	verifier, err := NewTokenService("other-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := issuer.IssueAccessToken("user-1", "tenant-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t,
		WithAccessTTL(time.Minute),
		WithClock(func() time.Time { return clock }),
	)

	token, err := svc.IssueAccessToken("user-1", "tenant-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := svc.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t)
	for _, token := range []string{"", "   ", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, ErrMalformedToken) && !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify(%q) = %v, want malformed or signature error", token, err)
		}
	}
}

func TestRefreshTokenDetection(t *testing.T) {
	svc := newTestTokenService(t)

	refresh, err := svc.IssueRefreshToken("user-1", "tenant-1")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	claims, err := svc.Verify(refresh)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.IsRefresh() {
		t.Error("refresh token must carry the refresh type claim")
	}
	if len(claims.Roles) != 0 || len(claims.Permissions) != 0 {
		t.Errorf("refresh token must not carry authority claims, got roles=%v perms=%v",
			claims.Roles, claims.Permissions)
	}
	if !svc.IsRefresh(refresh) {
		t.Error("IsRefresh = false, want true")
	}

	access, err := svc.IssueAccessToken("user-1", "tenant-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if svc.IsRefresh(access) {
		t.Error("IsRefresh(access) = true, want false")
	}
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	issuer := newTestTokenService(t, WithIssuer("other-system"))
	verifier := newTestTokenService(t)

	token, err := issuer.IssueAccessToken("user-1", "tenant-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Verify = %v, want ErrMalformedToken", err)
	}
}

func TestIssueRequiresSubjectAndTenant(t *testing.T) {
	svc := newTestTokenService(t)
	if _, err := svc.IssueAccessToken("", "tenant-1", nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing user = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.IssueAccessToken("user-1", "", nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing tenant = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.IssueRefreshToken("", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing pair = %v, want ErrInvalidInput", err)
	}
}
