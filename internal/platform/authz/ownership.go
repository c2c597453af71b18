package authz

import (
	"context"

	"github.com/healthgateway/gateway/internal/platform/auth"
)

// IsOwner reports whether the principal is the subject identified by
// resourceID. The comparison is exact and case-sensitive.
func (e *Engine) IsOwner(ctx context.Context, p *auth.Principal, resourceID string) bool {
	subject, ok := p.Claim(e.claims.SubjectClaimType)
	if !ok {
		e.log(ctx).Debug().Str("claim_type", e.claims.SubjectClaimType).
			Msg("cannot confirm ownership: no subject identifier claim")
		return false
	}
	return resourceID != "" && subject == resourceID
}
