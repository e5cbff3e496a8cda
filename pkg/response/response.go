// Package response writes the JSON bodies returned by the storefront API.
// Every body carries a boolean "success" so the web and admin clients can
// branch on one field.
package response

import (
	"encoding/json"
	"net/http"
)

// Body is a free-form response object.
type Body map[string]interface{}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends 200 with body plus success=true.
func OK(w http.ResponseWriter, body Body) {
	JSON(w, http.StatusOK, withSuccess(body, true))
}

// Created sends 201 with body plus success=true.
func Created(w http.ResponseWriter, body Body) {
	JSON(w, http.StatusCreated, withSuccess(body, true))
}

// Fail sends {"success":false,"message":message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Body{"success": false, "message": message})
}

// ValidationError sends a 400 with a field-level error map. The first
// message is also copied to "message" for clients that only show one line.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusBadRequest, Body{
		"success": false,
		"message": firstMessage(errs),
		"errors":  errs,
	})
}

func Unauthorized(w http.ResponseWriter) {
	Fail(w, http.StatusUnauthorized, "Not Authorized Login Again")
}

func Forbidden(w http.ResponseWriter) {
	Fail(w, http.StatusForbidden, "Forbidden")
}

func NotFound(w http.ResponseWriter) {
	Fail(w, http.StatusNotFound, "Not found")
}

func withSuccess(body Body, ok bool) Body {
	out := make(Body, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	out["success"] = ok
	return out
}

func firstMessage(errs map[string]string) string {
	best := ""
	for field := range errs {
		// Deterministic pick: lowest field name.
		if best == "" || field < best {
			best = field
		}
	}
	if best == "" {
		return "Validation failed"
	}
	return errs[best]
}
