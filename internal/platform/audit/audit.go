// Package audit records who was allowed or denied access to which patient's
// resources.
package audit

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outcome values for Event.Outcome.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// Event is one authorization decision on a protected route.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Subject    string    `json:"subject"`
	ResourceID string    `json:"resource_id"`
	Policy     string    `json:"policy"`
	Outcome    string    `json:"outcome"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	RequestID  string    `json:"request_id"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Recorded   time.Time `json:"recorded"`
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// RecorderFunc is a function adapter for Recorder.
type RecorderFunc func(ctx context.Context, e Event) error

func (f RecorderFunc) Record(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// MaxFieldLen bounds the caller-controlled string fields of an Event.
const MaxFieldLen = 256

// prepare fills the id and timestamp when the caller left them empty and
// clamps request-derived fields to valid UTF-8 of at most MaxFieldLen bytes.
func prepare(e *Event) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Recorded.IsZero() {
		e.Recorded = time.Now().UTC()
	}
	for _, f := range []*string{&e.Subject, &e.ResourceID, &e.Policy, &e.Method, &e.RequestID, &e.IPAddress, &e.UserAgent} {
		*f = clamp(*f, MaxFieldLen)
	}
	e.Path = clamp(e.Path, 4*MaxFieldLen)
}

func clamp(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

type logRecorder struct {
	logger zerolog.Logger
}

// LogRecorder writes audit events as structured log lines. It is used when no
// database is configured.
func LogRecorder(logger zerolog.Logger) Recorder {
	return &logRecorder{logger: logger.With().Str("component", "audit").Logger()}
}

func (r *logRecorder) Record(_ context.Context, e Event) error {
	prepare(&e)
	r.logger.Info().
		Str("audit_id", e.ID.String()).
		Str("subject", e.Subject).
		Str("resource_id", e.ResourceID).
		Str("policy", e.Policy).
		Str("outcome", e.Outcome).
		Str("method", e.Method).
		Str("path", e.Path).
		Str("request_id", e.RequestID).
		Str("ip_address", e.IPAddress).
		Time("recorded", e.Recorded).
		Msg("access audit")
	return nil
}
