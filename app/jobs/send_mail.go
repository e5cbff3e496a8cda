// Package jobs holds the background jobs the storefront queues.
package jobs

import (
	"context"

	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

// SendMail delivers one email. Only Message is serialized; the mailer is
// injected by Register.
type SendMail struct {
	Message mail.Message `json:"message"`
	mailer  mail.Mailer
}

func (j *SendMail) JobName() string { return "mail.send" }

func (j *SendMail) Handle(ctx context.Context) error {
	return j.mailer.Send(ctx, j.Message)
}

// Register makes every storefront job decodable by q. A nil notifier
// leaves ops alerts unregistered.
func Register(q *queue.Manager, mailer mail.Mailer, notifier notification.Notifier) {
	q.Register("mail.send", func() queue.Job { return &SendMail{mailer: mailer} })
	if notifier != nil {
		q.Register("ops.notify", func() queue.Job { return &NotifyOps{notifier: notifier} })
	}
}
