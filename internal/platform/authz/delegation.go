package authz

import (
	"context"

	"github.com/healthgateway/gateway/internal/platform/auth"
)

// IsDelegated reports whether the principal holds a scope that delegates the
// requirement's access to it. System delegation is checked first; user
// delegation is recognised but never granted, since patient-to-patient
// delegation has no backing relationship store.
func (e *Engine) IsDelegated(ctx context.Context, p *auth.Principal, r ResourceRequirement) bool {
	log := e.log(ctx)

	raw, _ := p.Claim(e.claims.ScopeClaimType)
	granted := auth.GrantedScopes(raw)
	access := r.AccessType().String()

	if r.SupportsSystemDelegation() {
		accepted := auth.AcceptedScopes(string(SystemDelegation), access, r.ResourceType())
		if auth.Intersects(granted, accepted) {
			return true
		}
		log.Debug().Str("requirement", r.String()).Msg("system delegation scope not granted")
	}

	if !r.SupportsUserDelegation() {
		return false
	}

	if !p.HasClaim(e.claims.SubjectClaimType) {
		log.Info().Str("requirement", r.String()).
			Msg("user delegation requires a subject identifier claim")
		return false
	}

	accepted := auth.AcceptedScopes(string(UserDelegation), access, r.ResourceType())
	if !auth.Intersects(granted, accepted) {
		log.Info().Str("requirement", r.String()).Msg("user delegation scope not granted")
		return false
	}

	// TODO: grant once patient-to-patient delegate relationships are stored.
	log.Warn().Str("requirement", r.String()).
		Msg("delegation validation failed: user delegation is not implemented")
	return false
}
