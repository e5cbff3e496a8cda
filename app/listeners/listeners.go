// Package listeners reacts to order events: confirmation mail and the
// shopper's live order feed.
package listeners

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/mails"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/notification"
)

// Feed delivers a message to every live connection of a user. *ws.Hub
// and *sse.Broker satisfy it.
type Feed interface {
	Publish(userID string, v any) error
}

// Feeds publishes to each of its members.
type Feeds []Feed

func (fs Feeds) Publish(userID string, v any) error {
	var errs []error
	for _, f := range fs {
		if err := f.Publish(userID, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OrderUpdate is what the websocket feed sends.
type OrderUpdate struct {
	Type      string             `json:"type"`
	OrderID   uint               `json:"orderId"`
	Status    models.OrderStatus `json:"status"`
	Payment   bool               `json:"payment"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Register wires the order listeners onto bus.
func Register(bus *event.Bus, dispatcher services.Dispatcher, feed Feed, currency string) {
	confirm := func(paid bool) event.Handler {
		return func(ctx context.Context, payload any) error {
			order, err := orderOf(payload)
			if err != nil {
				return err
			}
			msg, err := mails.OrderConfirmation(order.Address.Email, order, currency, paid)
			if err != nil {
				return err
			}
			return dispatcher.Dispatch(ctx, &jobs.SendMail{Message: msg})
		}
	}
	push := func(kind string) event.Handler {
		return func(_ context.Context, payload any) error {
			order, err := orderOf(payload)
			if err != nil {
				return err
			}
			return feed.Publish(strconv.FormatUint(uint64(order.UserID), 10), OrderUpdate{
				Type:      kind,
				OrderID:   order.ID,
				Status:    order.Status,
				Payment:   order.Payment,
				UpdatedAt: time.Now().UTC(),
			})
		}
	}

	bus.Listen(services.EventOrderPlaced, confirm(false))
	bus.Listen(services.EventOrderPaid, confirm(true))
	bus.Listen(services.EventOrderPaid, push(services.EventOrderPaid))
	bus.Listen(services.EventOrderStatus, push(services.EventOrderStatus))
}

// RegisterOps alerts the operations channel about new and paid orders.
func RegisterOps(bus *event.Bus, dispatcher services.Dispatcher, currency string) {
	alert := func(title, color string) event.Handler {
		return func(ctx context.Context, payload any) error {
			order, err := orderOf(payload)
			if err != nil {
				return err
			}
			return dispatcher.Dispatch(ctx, &jobs.NotifyOps{Message: notification.Message{
				Text: fmt.Sprintf("Order #%d %s", order.ID, title),
				Attachments: []notification.Attachment{{
					Color:  color,
					Title:  fmt.Sprintf("%s %d via %s", currency, order.Amount, order.PaymentMethod),
					Text:   fmt.Sprintf("%d item(s) for %s %s, %s", len(order.Items), order.Address.FirstName, order.Address.LastName, order.Address.City),
					Footer: order.Receipt(),
				}},
			}})
		}
	}

	bus.Listen(services.EventOrderPlaced, alert("placed", "warning"))
	bus.Listen(services.EventOrderPaid, alert("paid", "good"))
}

func orderOf(payload any) (*models.Order, error) {
	ev, ok := payload.(services.OrderEvent)
	if !ok || ev.Order == nil {
		return nil, fmt.Errorf("listeners: unexpected payload %T", payload)
	}
	return ev.Order, nil
}
