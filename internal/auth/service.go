package auth

import (
	"context"
	"strings"
	"time"
)

// Service handles login and token refresh. It authenticates credentials,
// resolves the caller's authority and mints signed token pairs.
type Service struct {
	store    Store
	tokens   *TokenService
	resolver *Resolver
	now      func() time.Time
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	User            *User
	Tenant          *Tenant
	Roles           []string
	Permissions     []string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the login/refresh service.
func NewService(store Store, tokens *TokenService, resolver *Resolver, opts ...ServiceOption) (*Service, error) {
	if store == nil || tokens == nil || resolver == nil {
		return nil, ErrInvalidInput
	}
	svc := &Service{store: store, tokens: tokens, resolver: resolver, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Login authenticates (tenantCode, email, password) and issues a token pair.
// Every failure is reported as ErrUnauthorized so responses never reveal
// whether the tenant, the account or the password was wrong.
func (s *Service) Login(ctx context.Context, tenantCode, email, password string) (Session, error) {
	tenantCode = strings.TrimSpace(tenantCode)
	email = strings.TrimSpace(strings.ToLower(email))
	if tenantCode == "" || email == "" || password == "" {
		return Session{}, ErrUnauthorized
	}

	ten, err := s.store.Tenants().FindByCode(ctx, tenantCode)
	if err != nil || !ten.Active {
		return Session{}, ErrUnauthorized
	}
	user, err := s.store.Users().FindByEmail(ctx, ten.ID, email)
	if err != nil || !user.Active {
		return Session{}, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrUnauthorized
	}

	if err := s.store.Users().RecordLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return Session{}, err
	}
	return s.mint(ctx, ten, user)
}

// Refresh exchanges a valid refresh token for a fresh pair. Claims are
// re-resolved from the store so revoked roles or grants fall out of the new
// access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || !claims.IsRefresh() {
		return Session{}, ErrUnauthorized
	}

	ten, err := s.store.Tenants().Find(ctx, claims.TenantID)
	if err != nil || !ten.Active {
		return Session{}, ErrUnauthorized
	}
	user, err := s.store.Users().Find(ctx, ten.ID, claims.Subject)
	if err != nil || !user.Active {
		return Session{}, ErrUnauthorized
	}
	return s.mint(ctx, ten, user)
}

func (s *Service) mint(ctx context.Context, ten *Tenant, user *User) (Session, error) {
	roles, err := s.resolver.ActiveRoleCodes(ctx, ten.ID, user.ID)
	if err != nil {
		return Session{}, err
	}
	perms, err := s.resolver.EffectivePermissions(ctx, ten.ID, user.ID)
	if err != nil {
		return Session{}, err
	}

	access, err := s.tokens.IssueAccessToken(user.ID, ten.ID, roles, perms)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID, ten.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: s.now().UTC().Add(s.tokens.AccessTTL()),
		User:            user,
		Tenant:          ten,
		Roles:           roles,
		Permissions:     perms,
	}, nil
}
