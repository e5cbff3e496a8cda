package jobs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

func TestSendMailRoundTripsThroughQueue(t *testing.T) {
	driver := queue.NewMemoryDriver()
	q := queue.New(driver)
	rec := &mail.Recorder{}
	jobs.Register(q, rec, nil)

	ctx := context.Background()
	msg := mail.Message{To: "asha@example.com", Subject: "Email Verification", HTML: "<p>hi</p>"}
	require.NoError(t, q.Dispatch(ctx, &jobs.SendMail{Message: msg}))

	raw, err := driver.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Process(ctx, raw))

	assert.Equal(t, []mail.Message{msg}, rec.Sent())
}

func TestNotifyOpsRoundTripsThroughQueue(t *testing.T) {
	driver := queue.NewMemoryDriver()
	q := queue.New(driver)
	ops := &notification.Recorder{}
	jobs.Register(q, &mail.Recorder{}, ops)

	ctx := context.Background()
	msg := notification.Message{Text: "Order #9 placed"}
	require.NoError(t, q.Dispatch(ctx, &jobs.NotifyOps{Message: msg}))

	raw, err := driver.Pop(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Process(ctx, raw))

	assert.Equal(t, []notification.Message{msg}, ops.Sent())
}
