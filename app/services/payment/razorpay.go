// Package payment talks to the hosted payment gateway.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/storefront/pkg/crypt"
	"github.com/shashiranjanraj/storefront/pkg/http"
)

// ErrNotConfigured is returned when no gateway credentials are set.
var ErrNotConfigured = errors.New("payment: gateway credentials not configured")

// Session is the gateway order the hosted checkout is opened against.
// Amount is in minor units (paise).
type Session struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Callback is what the hosted checkout posts back after payment.
type Callback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Gateway opens payment sessions and authenticates callbacks.
type Gateway interface {
	CreateSession(ctx context.Context, amountMinor int64, currency, receipt string) (Session, error)
	VerifyCallback(cb Callback) bool
}

// Razorpay implements Gateway against the Razorpay orders API.
type Razorpay struct {
	Client *http.Client
	keyID  string
	secret string
}

func NewRazorpay(baseURL, keyID, secret string) *Razorpay {
	return &Razorpay{Client: http.NewClient(baseURL), keyID: keyID, secret: secret}
}

// KeyID is the public key the checkout widget needs.
func (r *Razorpay) KeyID() string { return r.keyID }

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (r *Razorpay) CreateSession(ctx context.Context, amountMinor int64, currency, receipt string) (Session, error) {
	if r.keyID == "" || r.secret == "" {
		return Session{}, ErrNotConfigured
	}
	if amountMinor <= 0 {
		return Session{}, fmt.Errorf("payment: amount must be positive, got %d", amountMinor)
	}

	resp, err := r.Client.Post(ctx, "/orders").
		BasicAuth(r.keyID, r.secret).
		Body(map[string]any{
			"amount":   amountMinor,
			"currency": currency,
			"receipt":  receipt,
		}).
		Send()
	if err != nil {
		return Session{}, fmt.Errorf("payment: create order: %w", err)
	}
	if !resp.OK() {
		var apiErr apiError
		if resp.JSON(&apiErr) == nil && apiErr.Error.Description != "" {
			return Session{}, fmt.Errorf("payment: create order: %s (%s)", apiErr.Error.Description, apiErr.Error.Code)
		}
		return Session{}, fmt.Errorf("payment: create order: %w", resp.Throw())
	}

	var s Session
	if err := resp.JSON(&s); err != nil {
		return Session{}, fmt.Errorf("payment: create order: %w", err)
	}
	if s.ID == "" {
		return Session{}, errors.New("payment: create order: response has no id")
	}
	return s, nil
}

// VerifyCallback checks signature = hex(HMAC-SHA256(order_id|payment_id)).
func (r *Razorpay) VerifyCallback(cb Callback) bool {
	if r.secret == "" || cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return false
	}
	return crypt.VerifyHMACSHA256Hex(r.secret, cb.OrderID+"|"+cb.PaymentID, cb.Signature)
}

// Sign produces the signature the gateway would send for cb. Used by the
// seeded demo flow and tests.
func Sign(secret string, cb Callback) string {
	return crypt.HMACSHA256Hex(secret, cb.OrderID+"|"+cb.PaymentID)
}
