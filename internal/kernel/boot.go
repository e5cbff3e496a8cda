package kernel

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/payment"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// Boot connects everything named by the environment and returns the wired
// kernel. Redis is optional: without it the cache and queue stay in memory.
func Boot(ctx context.Context) (*Kernel, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("kernel: load config: %w", err)
	}

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	if err := cache.Connect(); err != nil {
		logger.Warn("kernel: redis unavailable, using memory cache", "error", err)
	}

	disks, err := storage.FromConfig(ctx)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	driver := queue.Driver(queue.NewMemoryDriver())
	if config.QueueDriver() == "redis" && cache.RDB != nil {
		driver = queue.NewRedisDriver(cache.RDB)
	}

	opts := Options{
		DB:      db,
		Mailer:  mail.FromConfig(),
		Gateway: payment.NewRazorpay(config.RazorpayBaseURL(), config.RazorpayKeyID(), config.RazorpayKeySecret()),
		Disk:    disks.Default(),
		Queue:   queue.New(driver),
		Auth: services.AuthConfig{
			FrontendURL:   config.FrontendURL(),
			AdminEmail:    config.AdminEmail(),
			AdminPassword: config.AdminPassword(),
		},
		Order: services.OrderConfig{
			DeliveryFee: config.DeliveryFee(),
			Currency:    config.Currency(),
		},
		CORSOrigins: config.CORSOrigins(),
		RateLimit:   200,
	}
	if hook := config.SlackWebhookURL(); hook != "" {
		opts.Notifier = notification.NewSlack(hook)
	}
	if local, ok := disks.Local(); ok {
		opts.Static = local.Handler()
	}

	k, err := New(opts)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return k, nil
}
