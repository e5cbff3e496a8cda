// Package notification posts operational alerts, such as a new order, to a
// Slack incoming webhook.
//
//	n := notification.NewSlack(webhookURL)
//	n.Notify(ctx, notification.Message{Text: "Order #12 placed"})
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/http"
)

// ErrNoWebhook is returned by Notify when the webhook URL is empty.
var ErrNoWebhook = errors.New("notification: slack webhook URL not configured")

// Attachment is one Slack attachment block.
type Attachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

// Message is the JSON body Slack expects.
type Message struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Notifier delivers a Message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Slack posts messages to one incoming webhook.
type Slack struct {
	client *http.Client
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{client: http.NewClient(webhookURL)}
}

// Client exposes the underlying HTTP client so callers can swap the
// transport.
func (s *Slack) Client() *http.Client { return s.client }

func (s *Slack) Notify(ctx context.Context, msg Message) error {
	if s.client.BaseURL == "" {
		return ErrNoWebhook
	}
	resp, err := s.client.Post(ctx, "").Body(msg).Send()
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	if err := resp.Throw(); err != nil {
		return fmt.Errorf("notification: slack: %w", err)
	}
	return nil
}

// Recorder keeps messages in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
