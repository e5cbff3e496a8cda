// Package controllers adapts HTTP requests to the storefront services.
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// fail writes the response for a service error.
func fail(c *ctx.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrNoPasswordSet),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidOrExpiredToken),
		errors.Is(err, services.ErrEmptyCart):
		c.Fail(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnverified):
		c.Fail(http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrVerificationFailed):
		c.JSON(http.StatusOK, response.Body{"success": false, "message": err.Error()})
	case errors.Is(err, services.ErrGatewayUnavailable):
		c.Log().Error("payment gateway error", "error", err)
		c.Fail(http.StatusBadGateway, services.ErrGatewayUnavailable.Error())
	default:
		c.Log().Error("request failed", "path", c.R.URL.Path, "error", err)
		c.Fail(http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// looseID accepts an id sent either as a JSON number or a string.
type looseID string

func (id *looseID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = looseID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = looseID(n.String())
	return nil
}

// Uint parses the id as an order number.
func (id looseID) Uint() (uint, bool) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	return uint(n), err == nil && n > 0
}
