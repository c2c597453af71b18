package auth

import (
	"context"
)

// ClaimTypes names the claims and request keys the gateway reads when making
// authorization decisions. The values come from configuration so the same code
// works against Keycloak realms that use different claim names.
type ClaimTypes struct {
	SubjectClaimType   string
	ScopeClaimType     string
	RouteIdentifierKey string
}

// DefaultClaimTypes returns the claim names issued by the Health Gateway realm.
func DefaultClaimTypes() ClaimTypes {
	return ClaimTypes{
		SubjectClaimType:   "hdid",
		ScopeClaimType:     "scope",
		RouteIdentifierKey: "hdid",
	}
}

// Principal is the authenticated caller as described by its token claims.
type Principal struct {
	claims map[string]any
}

// NewPrincipal wraps a claim set. The map is copied.
func NewPrincipal(claims map[string]any) *Principal {
	cp := make(map[string]any, len(claims))
	for k, v := range claims {
		cp[k] = v
	}
	return &Principal{claims: cp}
}

// Claim returns the string value of a claim. Claims that are missing, empty or
// not strings are reported as absent.
func (p *Principal) Claim(claimType string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.claims[claimType].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// HasClaim reports whether a non-empty string claim is present.
func (p *Principal) HasClaim(claimType string) bool {
	_, ok := p.Claim(claimType)
	return ok
}

// Authenticated reports whether the principal carries any claims at all.
func (p *Principal) Authenticated() bool {
	return p != nil && len(p.claims) > 0
}

// Subject returns the "sub" registered claim. It keys rate limits and logs,
// never ownership decisions.
func (p *Principal) Subject() string {
	v, _ := p.Claim("sub")
	return v
}

const principalKey contextKey = "principal"

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by the auth middleware, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
