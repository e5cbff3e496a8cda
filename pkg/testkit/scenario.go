// Package testkit drives HTTP API tests from JSON scenario files.
//
// A file holds an ordered array of scenarios that run against one handler
// as a single flow: cookies set by one step are sent by the next, values
// captured from a response can be referenced later as {{name}}, and
// outgoing HTTP calls (the payment gateway) are answered by mock steps.
//
//	[
//	  {"name": "login", "method": "POST", "url": "/api/auth/login",
//	   "body": {"email": "a@b.co", "password": "Secr3t!pw"},
//	   "expectedCode": 200, "expectedBody": {"success": true}},
//	  {"name": "place order", "method": "POST", "url": "/api/order/razorpay",
//	   "body": {...}, "expectedCode": 200,
//	   "mocks": [{"method": "POST", "matchUrl": "http://gateway.test/orders",
//	              "body": {"id": "order_gw_1", "amount": 500, "currency": "INR"}}],
//	   "capture": {"gatewayOrder": "order.id"}}
//	]
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one request/response step.
type Scenario struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Body    json.RawMessage   `json:"body"`
	Headers map[string]string `json:"headers"`

	ExpectedCode int `json:"expectedCode"`
	// ExpectedBody is matched as a subset of the response; "<any>" matches
	// any present value.
	ExpectedBody json.RawMessage `json:"expectedBody"`

	// Capture maps a variable name to a dotted path in the response body,
	// e.g. "orders.0._id".
	Capture map[string]string `json:"capture"`

	Mocks []MockStep `json:"mocks"`
}

// MockStep answers one outgoing HTTP call.
type MockStep struct {
	Method     string          `json:"method"`
	MatchURL   string          `json:"matchUrl"` // prefix; empty matches anything
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// Load reads a scenario array from path.
func Load(path string) ([]Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}
	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	for i := range scenarios {
		if err := scenarios[i].validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q item %d: %w", abs, i, err)
		}
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = 200
	}
	return nil
}
