package authz

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// Request is the part of an inbound request the resolver can look into.
type Request interface {
	Param(name string) string
	QueryParam(name string) string
	Body() ([]byte, error)
}

// maxBodyPeek bounds how much of a request body the resolver will buffer.
const maxBodyPeek = 1 << 20

type echoRequest struct {
	c echo.Context
}

// EchoRequest adapts an echo context. Reading the body restores it so the
// handler can still bind it afterwards.
func EchoRequest(c echo.Context) Request {
	return echoRequest{c: c}
}

func (r echoRequest) Param(name string) string      { return r.c.Param(name) }
func (r echoRequest) QueryParam(name string) string { return r.c.QueryParam(name) }

func (r echoRequest) Body() ([]byte, error) {
	req := r.c.Request()
	if req.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(io.LimitReader(req.Body, maxBodyPeek))
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(b))
	return b, err
}

// Resolver extracts the subject identifier of the resource being accessed.
type Resolver struct {
	Key string
}

// Resolve returns the identifier found via method, or "" when it cannot be
// located. It never fails; a missing identifier means "cannot authorize".
func (r Resolver) Resolve(method SubjectLookupMethod, req Request) string {
	switch method {
	case Route:
		return req.Param(r.Key)
	case Query:
		return req.QueryParam(r.Key)
	case Body:
		return r.fromBody(req)
	default:
		return ""
	}
}

func (r Resolver) fromBody(req Request) string {
	b, err := req.Body()
	if err != nil || len(b) == 0 {
		return ""
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return ""
	}
	// Struct binding matches keys case-insensitively, so a second key that
	// folds to the same name could override the one checked here.
	var raw json.RawMessage
	for k, v := range doc {
		if !strings.EqualFold(k, r.Key) {
			continue
		}
		if raw != nil {
			return ""
		}
		raw = v
	}
	if raw == nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}
