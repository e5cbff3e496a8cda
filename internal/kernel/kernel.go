// Package kernel assembles the storefront: repositories, services, event
// listeners, background machinery and the HTTP handler.
//
//	k, err := kernel.New(kernel.Options{DB: db, Mailer: mailer, Gateway: gw, Disk: disk})
//	http.ListenAndServe(":8000", k.Handler())
package kernel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/listeners"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/schema"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/payment"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
	"github.com/shashiranjanraj/storefront/pkg/session"
	"github.com/shashiranjanraj/storefront/pkg/sse"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

// Options are the external dependencies of a Kernel. Queue, Sessions and
// UploadWorkers have defaults.
type Options struct {
	DB            *gorm.DB
	Mailer        mail.Mailer
	Notifier      notification.Notifier // optional ops alerts
	Gateway       payment.Gateway
	Disk          storage.Disk
	Queue         *queue.Manager
	Sessions      *session.Manager
	UploadWorkers int

	Auth  services.AuthConfig
	Order services.OrderConfig

	CORSOrigins []string
	// Static, when set, is mounted at /storage.
	Static http.Handler
	// RateLimit is requests per minute per client IP; zero disables it.
	RateLimit int
}

// Kernel holds the wired application.
type Kernel struct {
	DB        *gorm.DB
	Queue     *queue.Manager
	Events    *event.Bus
	Hub       *ws.Hub
	Broker    *sse.Broker
	Pool      *workerpool.Pool
	Sessions  *session.Manager
	Scheduler *schedule.Scheduler

	Auth     *services.AuthService
	Cart     *services.CartService
	Orders   *services.OrderService
	Products *services.ProductService

	opts   Options
	router *router.Router
}

// New wires every component. It does not start any goroutine besides the
// upload worker pool.
func New(opts Options) (*Kernel, error) {
	if opts.DB == nil {
		return nil, errors.New("kernel: DB is required")
	}
	if opts.Mailer == nil {
		opts.Mailer = &mail.Recorder{}
	}
	if opts.Queue == nil {
		opts.Queue = queue.New(queue.NewMemoryDriver())
	}
	if opts.Sessions == nil {
		opts.Sessions = session.New(session.DefaultOptions())
	}
	if opts.UploadWorkers < 1 {
		opts.UploadWorkers = 4
	}

	k := &Kernel{
		DB:        opts.DB,
		Queue:     opts.Queue,
		Events:    event.New(),
		Hub:       ws.NewHub(opts.CORSOrigins...),
		Broker:    sse.NewBroker(),
		Pool:      workerpool.New(opts.UploadWorkers),
		Sessions:  opts.Sessions,
		Scheduler: schedule.New(),
		opts:      opts,
	}

	k.Queue.UseDB(opts.DB)
	jobs.Register(k.Queue, opts.Mailer, opts.Notifier)
	listeners.Register(k.Events, k.Queue, listeners.Feeds{k.Hub, k.Broker}, opts.Order.Currency)
	if opts.Notifier != nil {
		listeners.RegisterOps(k.Events, k.Queue, opts.Order.Currency)
	}

	users := repositories.NewUserRepository(opts.DB)
	products := repositories.NewProductRepository(opts.DB)
	orders := repositories.NewOrderRepository(opts.DB)
	tx := repositories.NewTransactor(opts.DB)

	k.Auth = services.NewAuthService(users, k.Queue, opts.Auth)
	k.Cart = services.NewCartService(users, products, tx)
	k.Orders = services.NewOrderService(users, products, orders, tx, opts.Gateway, k.Events, opts.Order)
	k.Products = services.NewProductService(products, opts.Disk, k.Pool)

	k.Scheduler.Hourly().Name("tokens:purge").WithoutOverlapping().Run(func(ctx context.Context) error {
		n, err := k.Auth.PurgeExpiredTokens(ctx)
		if err == nil && n > 0 {
			logger.Info("schedule: expired verification tokens cleared", "count", n)
		}
		return err
	})

	catalog, err := schema.New(k.Products)
	if err != nil {
		return nil, err
	}

	k.router = router.New()
	k.buildRouter(graphql.Handler(catalog))
	return k, nil
}

// buildRouter installs the global middleware stack, outermost first:
// metrics, panic recovery, request id, access log, session, CORS and the
// rate limiter.
func (k *Kernel) buildRouter(gql http.Handler) {
	r := k.router
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(k.Sessions.Middleware)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(k.opts.CORSOrigins...)))
	if k.opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(k.opts.RateLimit, time.Minute))
	}

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", k.health)
	if k.opts.Static != nil {
		r.Mount("/storage", http.StripPrefix("/storage", k.opts.Static))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })

	routes.RegisterAPI(r, Controllers(k, gql))
}

// Controllers builds the controller set for k. Passing a nil kernel gives
// controllers with no services, enough to list routes.
func Controllers(k *Kernel, gql http.Handler) routes.Controllers {
	if k == nil {
		return routes.Controllers{GraphQL: gql}
	}
	return routes.Controllers{
		Auth:    controllers.NewAuthController(k.Auth, k.Sessions),
		Cart:    controllers.NewCartController(k.Cart),
		Product: controllers.NewProductController(k.Products),
		Order:   controllers.NewOrderController(k.Orders),
		User:    controllers.NewUserController(k.Auth, k.Hub, k.Broker),
		GraphQL: gql,
	}
}

func (k *Kernel) health(w http.ResponseWriter, r *http.Request) {
	if err := k.Ping(r.Context()); err != nil {
		response.Fail(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	response.OK(w, response.Body{"status": "ok"})
}

// Ping checks the database.
func (k *Kernel) Ping(ctx context.Context) error {
	sqlDB, err := k.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Handler is the root HTTP handler.
func (k *Kernel) Handler() http.Handler { return k.router.Handler() }

// Router exposes the route table.
func (k *Kernel) Router() *router.Router { return k.router }

// Close waits for async event handlers, stops the upload pool and closes
// the database.
func (k *Kernel) Close() error {
	k.Events.Wait()
	k.Pool.Shutdown()
	return database.Close(k.DB)
}
