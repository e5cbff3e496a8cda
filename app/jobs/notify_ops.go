package jobs

import (
	"context"

	"github.com/shashiranjanraj/storefront/pkg/notification"
)

// NotifyOps posts an alert to the operations channel.
type NotifyOps struct {
	Message  notification.Message `json:"message"`
	notifier notification.Notifier
}

func (j *NotifyOps) JobName() string { return "ops.notify" }

func (j *NotifyOps) Handle(ctx context.Context) error {
	return j.notifier.Notify(ctx, j.Message)
}
