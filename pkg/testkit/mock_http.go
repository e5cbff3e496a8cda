package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport is an http.RoundTripper that answers from MockSteps.
// Install it on the client under test:
//
//	mt := testkit.NewMockTransport()
//	gw.Client.HTTP.Transport = mt
type MockTransport struct {
	mu    sync.Mutex
	steps []*mockEntry
	// Calls records every request URL seen, matched or not.
	calls []string
}

type mockEntry struct {
	step  MockStep
	count int
}

func NewMockTransport() *MockTransport { return &MockTransport{} }

// Load replaces the active steps.
func (mt *MockTransport) Load(steps []MockStep) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.steps = mt.steps[:0]
	for _, s := range steps {
		mt.steps = append(mt.steps, &mockEntry{step: s})
	}
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.calls = append(mt.calls, req.Method+" "+req.URL.String())

	for _, e := range mt.steps {
		if e.step.Method != "" && !strings.EqualFold(e.step.Method, req.Method) {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), e.step.MatchURL) {
			continue
		}
		e.count++
		code := e.step.StatusCode
		if code == 0 {
			code = http.StatusOK
		}
		h := http.Header{}
		h.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: code,
			Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
			Header:     h,
			Body:       io.NopCloser(bytes.NewReader(e.step.Body)),
			Request:    req,
		}, nil
	}
	return nil, fmt.Errorf("testkit: no mock for %s %s", req.Method, req.URL)
}

// Uncalled lists steps that were never matched.
func (mt *MockTransport) Uncalled() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var out []string
	for _, e := range mt.steps {
		if e.count == 0 {
			out = append(out, e.step.Method+" "+e.step.MatchURL)
		}
	}
	return out
}

// Calls returns every outgoing request seen so far.
func (mt *MockTransport) Calls() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]string(nil), mt.calls...)
}
