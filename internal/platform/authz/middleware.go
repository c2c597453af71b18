package authz

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthgateway/gateway/internal/platform/audit"
	"github.com/healthgateway/gateway/internal/platform/auth"
)

// Problem is the JSON body returned when a policy denies access.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// resourceIDKey is the echo context key holding the identifier a policy was
// evaluated against.
const resourceIDKey = "authz.resource_id"

// ResourceID returns the patient identifier the enforcer authorized for this
// request, or "" when the route carries no resource requirement.
func ResourceID(c echo.Context) string {
	id, _ := c.Get(resourceIDKey).(string)
	return id
}

type EnforcerConfig struct {
	Policies *PolicyRegistry
	Handlers []Handler
	Claims   auth.ClaimTypes
	Recorder audit.Recorder
	Logger   zerolog.Logger
}

// Enforcer turns named policies into echo middleware.
type Enforcer struct {
	policies *PolicyRegistry
	handlers []Handler
	claims   auth.ClaimTypes
	resolver Resolver
	recorder audit.Recorder
	logger   zerolog.Logger
}

func NewEnforcer(cfg EnforcerConfig) *Enforcer {
	return &Enforcer{
		policies: cfg.Policies,
		handlers: cfg.Handlers,
		claims:   cfg.Claims,
		resolver: Resolver{Key: cfg.Claims.RouteIdentifierKey},
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

// Require returns middleware that lets the request through only when every
// requirement of the named policy succeeds. Unauthenticated requests get 401,
// denied ones 403. An unregistered policy name is a wiring error and yields 500.
func (en *Enforcer) Require(policy string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			p := auth.PrincipalFromContext(ctx)
			if !p.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			reqs, err := en.policies.Requirements(policy)
			if err != nil {
				en.logger.Error().Err(err).Str("policy", policy).Msg("authorization policy lookup failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "authorization misconfigured")
			}

			req := EchoRequest(c)
			resource := en.resourceID(req, reqs)
			ledger := NewLedger(reqs...)
			allowed := Authorize(ctx, p, req, ledger, en.handlers...)

			en.record(c, p, resource, policy, allowed)

			if !allowed {
				return c.JSON(http.StatusForbidden, Problem{
					Type:   "forbidden",
					Title:  "Forbidden",
					Status: http.StatusForbidden,
					Detail: fmt.Sprintf("access denied by policy %s", policy),
				})
			}
			c.Set(resourceIDKey, resource)
			return next(c)
		}
	}
}

func (en *Enforcer) record(c echo.Context, p *auth.Principal, resource, policy string, allowed bool) {
	if en.recorder == nil {
		return
	}

	outcome := audit.OutcomeDenied
	if allowed {
		outcome = audit.OutcomeAllowed
	}
	subject, _ := p.Claim(en.claims.SubjectClaimType)
	if subject == "" {
		subject = p.Subject()
	}
	rid, _ := c.Get("request_id").(string)

	event := audit.Event{
		Subject:    subject,
		ResourceID: resource,
		Policy:     policy,
		Outcome:    outcome,
		Method:     c.Request().Method,
		Path:       c.Request().URL.Path,
		RequestID:  rid,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}

	if err := en.recorder.Record(c.Request().Context(), event); err != nil {
		en.logger.Error().Err(err).Str("request_id", rid).Msg("failed to record access audit")
	}
}

// resourceID resolves the subject of the first resource requirement, if any.
func (en *Enforcer) resourceID(req Request, reqs []Requirement) string {
	for _, r := range reqs {
		if rr, ok := r.(ResourceRequirement); ok {
			return en.resolver.Resolve(rr.LookupMethod(), req)
		}
	}
	return ""
}
