package testkit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Any matches any value that is present.
const Any = "<any>"

// AssertJSONSubset checks that every key in expected exists in actual with
// an equal value. Arrays must have the same length.
func AssertJSONSubset(t *testing.T, expected, actual []byte, msgAndArgs ...any) bool {
	t.Helper()
	var exp, act any
	if err := json.Unmarshal(expected, &exp); err != nil {
		t.Fatalf("testkit: expected body is not valid JSON: %v", err)
	}
	if !assert.NoError(t, json.Unmarshal(actual, &act), "response is not JSON: %s", actual) {
		return false
	}
	diffs := subset("", exp, act)
	if len(diffs) > 0 {
		return assert.Fail(t, "response body mismatch:\n"+strings.Join(diffs, "\n")+"\nbody: "+string(actual), msgAndArgs...)
	}
	return true
}

func subset(path string, exp, act any) []string {
	if s, ok := exp.(string); ok && s == Any {
		return nil
	}
	switch e := exp.(type) {
	case map[string]any:
		a, ok := act.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("  %s: expected object, got %T", at(path), act)}
		}
		var diffs []string
		for k, ev := range e {
			av, exists := a[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing", at(path+"."+k)))
				continue
			}
			diffs = append(diffs, subset(path+"."+k, ev, av)...)
		}
		return diffs
	case []any:
		a, ok := act.([]any)
		if !ok {
			return []string{fmt.Sprintf("  %s: expected array, got %T", at(path), act)}
		}
		if len(e) != len(a) {
			return []string{fmt.Sprintf("  %s: array length expected=%d actual=%d", at(path), len(e), len(a))}
		}
		var diffs []string
		for i := range e {
			diffs = append(diffs, subset(fmt.Sprintf("%s.%d", path, i), e[i], a[i])...)
		}
		return diffs
	case string:
		// A templated id arrives as a string; let it match the number.
		if n, ok := act.(float64); ok && strconv.FormatFloat(n, 'f', -1, 64) == e {
			return nil
		}
		if !assert.ObjectsAreEqual(exp, act) {
			return []string{fmt.Sprintf("  %s:\n    - %v\n    + %v", at(path), exp, act)}
		}
		return nil
	default:
		if !assert.ObjectsAreEqual(exp, act) {
			return []string{fmt.Sprintf("  %s:\n    - %v\n    + %v", at(path), exp, act)}
		}
		return nil
	}
}

func at(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}

// Lookup walks a dotted path ("orders.0._id") through decoded JSON.
func Lookup(body []byte, path string) (any, bool) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, false
	}
	for _, part := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}
	return v, true
}
