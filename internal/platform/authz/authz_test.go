package authz

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/healthgateway/gateway/internal/platform/auth"
)

// fakeRequest is a Request backed by plain maps.
type fakeRequest struct {
	params  map[string]string
	query   map[string]string
	body    []byte
	bodyErr error
}

func (r fakeRequest) Param(name string) string      { return r.params[name] }
func (r fakeRequest) QueryParam(name string) string { return r.query[name] }
func (r fakeRequest) Body() ([]byte, error)         { return r.body, r.bodyErr }

func routeRequest(hdid string) fakeRequest {
	return fakeRequest{params: map[string]string{"hdid": hdid}}
}

var errBody = errors.New("read failed")

func principal(hdid, scope string) *auth.Principal {
	claims := map[string]any{"sub": "kc-user"}
	if hdid != "" {
		claims["hdid"] = hdid
	}
	if scope != "" {
		claims["scope"] = scope
	}
	return auth.NewPrincipal(claims)
}

type logLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// newTestEngine returns an engine logging JSON into the returned buffer.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewEngine(auth.DefaultClaimTypes(), zerolog.New(&buf), opts...), &buf
}

func parseLogs(t *testing.T, buf *bytes.Buffer) []logLine {
	t.Helper()
	var lines []logLine
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var l logLine
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("invalid log line %q: %v", sc.Text(), err)
		}
		lines = append(lines, l)
	}
	return lines
}

func expectLog(t *testing.T, buf *bytes.Buffer, level, contains string) {
	t.Helper()
	for _, l := range parseLogs(t, buf) {
		if l.Level == level && strings.Contains(l.Message, contains) {
			return
		}
	}
	t.Errorf("expected %s log containing %q, got:\n%s", level, contains, buf.String())
}
