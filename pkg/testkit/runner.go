package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flow runs scenarios in order against one handler, carrying cookies and
// captured variables between them.
type Flow struct {
	Handler   http.Handler
	Transport *MockTransport

	vars    map[string]string
	cookies map[string]*http.Cookie
}

// NewFlow starts an empty flow. transport may be nil when the handler makes
// no outgoing calls.
func NewFlow(handler http.Handler, transport *MockTransport) *Flow {
	return &Flow{
		Handler:   handler,
		Transport: transport,
		vars:      map[string]string{},
		cookies:   map[string]*http.Cookie{},
	}
}

// Set defines {{name}} for later steps.
func (f *Flow) Set(name, value string) { f.vars[name] = value }

// Var returns a captured or preset variable.
func (f *Flow) Var(name string) string { return f.vars[name] }

// RunFile loads path and runs each scenario as a subtest.
func (f *Flow) RunFile(t *testing.T, path string) {
	t.Helper()
	scenarios, err := Load(path)
	require.NoError(t, err)
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) { f.Run(t, s) })
	}
}

// Run executes one scenario and returns the recorded response.
func (f *Flow) Run(t *testing.T, s Scenario) *httptest.ResponseRecorder {
	t.Helper()

	if f.Transport != nil {
		f.Transport.Load(s.Mocks)
	} else if len(s.Mocks) > 0 {
		t.Fatalf("[%s] scenario has mocks but the flow has no transport", s.Name)
	}

	var body io.Reader
	if len(s.Body) > 0 {
		body = strings.NewReader(f.expand(string(s.Body)))
	}
	req := httptest.NewRequest(strings.ToUpper(s.Method), f.expand(s.URL), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, f.expand(v))
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	f.Handler.ServeHTTP(rec, req)
	f.keepCookies(rec.Result().Cookies())

	raw := rec.Body.Bytes()
	assert.Equal(t, s.ExpectedCode, rec.Code, "[%s] status code mismatch, body: %s", s.Name, raw)
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, []byte(f.expand(string(s.ExpectedBody))), raw, "[%s]", s.Name)
	}
	for name, path := range s.Capture {
		v, ok := Lookup(raw, path)
		if assert.True(t, ok, "[%s] capture %q: path %q not in response", s.Name, name, path) {
			f.vars[name] = fmt.Sprint(v)
		}
	}
	if f.Transport != nil {
		assert.Empty(t, f.Transport.Uncalled(), "[%s] mocks never called", s.Name)
	}
	return rec
}

func (f *Flow) keepCookies(cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" {
			delete(f.cookies, c.Name)
			continue
		}
		f.cookies[c.Name] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
}

// Cookie returns the value the flow currently holds for name.
func (f *Flow) Cookie(name string) string {
	if c, ok := f.cookies[name]; ok {
		return c.Value
	}
	return ""
}

func (f *Flow) expand(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	var b bytes.Buffer
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			b.WriteString(s)
			break
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			b.WriteString(s)
			break
		}
		name := strings.TrimSpace(s[start+2 : start+end])
		b.WriteString(s[:start])
		if v, ok := f.vars[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start : start+end+2])
		}
		s = s[start+end+2:]
	}
	return b.String()
}
