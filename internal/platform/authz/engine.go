package authz

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthgateway/gateway/internal/platform/auth"
)

// Handler evaluates the pending requirements of a ledger. Implementations
// must not mutate the ledger; they report verdicts and the caller merges them.
type Handler interface {
	Evaluate(ctx context.Context, p *auth.Principal, req Request, ledger *Ledger) EvaluationResult
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, p *auth.Principal, req Request, ledger *Ledger) EvaluationResult

func (f HandlerFunc) Evaluate(ctx context.Context, p *auth.Principal, req Request, ledger *Ledger) EvaluationResult {
	return f(ctx, p, req, ledger)
}

// Authorize runs the handlers in order against one ledger, merging each
// result before the next handler runs, and reports whether every
// requirement succeeded.
func Authorize(ctx context.Context, p *auth.Principal, req Request, ledger *Ledger, handlers ...Handler) bool {
	for _, h := range handlers {
		ledger.Merge(h.Evaluate(ctx, p, req, ledger))
	}
	return ledger.AllSucceeded()
}

const componentName = "patient_authorization"

// Engine is the patient authorization handler. It keeps no per-request state.
type Engine struct {
	claims   auth.ClaimTypes
	resolver Resolver
	logger   zerolog.Logger
	metrics  *Metrics
}

type Option func(*Engine)

// WithMetrics records every verdict on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(claims auth.ClaimTypes, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		claims:   claims,
		resolver: Resolver{Key: claims.RouteIdentifierKey},
		logger:   logger.With().Str("component", componentName).Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides every pending requirement this engine understands.
// Requirements it does not recognise get no entry in the result.
func (e *Engine) Evaluate(ctx context.Context, p *auth.Principal, req Request, ledger *Ledger) EvaluationResult {
	start := time.Now()
	log := e.log(ctx)
	result := make(EvaluationResult)

	for _, pending := range ledger.Pending() {
		var verdict Verdict
		switch r := pending.Requirement.(type) {
		case ResourceRequirement:
			verdict = e.evaluateResource(ctx, p, req, r)
		case PatientRequirement:
			verdict = e.evaluatePatient(ctx, p, r)
		default:
			log.Debug().Str("requirement", r.String()).Msg("requirement not handled by patient authorization")
			continue
		}
		result[pending.ID] = verdict
		e.metrics.observe(pending.Requirement, verdict)
	}

	e.metrics.observeDuration(time.Since(start))
	return result
}

func (e *Engine) evaluateResource(ctx context.Context, p *auth.Principal, req Request, r ResourceRequirement) Verdict {
	log := e.log(ctx)

	resourceID := e.resolver.Resolve(r.LookupMethod(), req)
	if resourceID == "" {
		log.Info().Str("requirement", r.String()).
			Msg("patient authorization invoked without route resource being specified")
		return Pending
	}

	if e.IsOwner(ctx, p, resourceID) {
		log.Debug().Str("requirement", r.String()).Str("resource_id", resourceID).Msg("owner access granted")
		return Succeeded
	}

	if e.IsDelegated(ctx, p, r) {
		log.Debug().Str("requirement", r.String()).Str("resource_id", resourceID).Msg("delegated access granted")
		return Succeeded
	}

	log.Info().Str("requirement", r.String()).Str("resource_id", resourceID).
		Msg("non-owner access rejected")
	return Pending
}

func (e *Engine) evaluatePatient(ctx context.Context, p *auth.Principal, r PatientRequirement) Verdict {
	if p.HasClaim(e.claims.SubjectClaimType) {
		return Succeeded
	}
	e.log(ctx).Info().Str("requirement", r.String()).
		Str("claim_type", e.claims.SubjectClaimType).
		Msg("principal has no subject identifier claim")
	return Pending
}

// log prefers a request-scoped logger placed on the context by the request
// logging middleware.
func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("component", componentName).Logger()
		return &scoped
	}
	return &e.logger
}
