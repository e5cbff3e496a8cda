package services_test

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/payment"
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

const (
	testSecret  = "rzp_test_secret"
	deliveryFee = 40
)

// recordingDispatcher keeps jobs instead of queueing them.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job queue.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) mails() []*jobs.SendMail {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*jobs.SendMail
	for _, j := range d.jobs {
		if m, ok := j.(*jobs.SendMail); ok {
			out = append(out, m)
		}
	}
	return out
}

var tokenRE = regexp.MustCompile(`token=([0-9a-f]+)`)

// lastToken pulls the raw verification token out of the newest mail.
func (d *recordingDispatcher) lastToken(t *testing.T) string {
	t.Helper()
	mails := d.mails()
	require.NotEmpty(t, mails)
	m := tokenRE.FindStringSubmatch(mails[len(mails)-1].Message.HTML)
	require.Len(t, m, 2)
	return m[1]
}

// mockGateway stubs session creation and checks signatures for real.
type mockGateway struct {
	mock.Mock
}

func (g *mockGateway) CreateSession(_ context.Context, amountMinor int64, currency, receipt string) (payment.Session, error) {
	args := g.Called(amountMinor, currency, receipt)
	return args.Get(0).(payment.Session), args.Error(1)
}

func (g *mockGateway) VerifyCallback(cb payment.Callback) bool {
	return payment.NewRazorpay("", "key", testSecret).VerifyCallback(cb)
}

type eventLog struct {
	mu     sync.Mutex
	counts map[string]int
	last   map[string]services.OrderEvent
}

func (l *eventLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[name]
}

type fixture struct {
	db       *gorm.DB
	users    *repositories.UserRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	jobs     *recordingDispatcher
	gateway  *mockGateway
	events   *eventLog
	disk     *storage.LocalDisk

	auth    *services.AuthService
	cart    *services.CartService
	order   *services.OrderService
	catalog *services.ProductService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cache.Flush()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, migration.New(db).Quiet().Run())

	f := &fixture{
		db:       db,
		users:    repositories.NewUserRepository(db),
		products: repositories.NewProductRepository(db),
		orders:   repositories.NewOrderRepository(db),
		jobs:     &recordingDispatcher{},
		gateway:  &mockGateway{},
		events:   &eventLog{counts: map[string]int{}, last: map[string]services.OrderEvent{}},
		disk:     storage.NewLocalDisk(t.TempDir(), "http://cdn.test/storage"),
	}

	bus := event.New()
	for _, name := range []string{services.EventOrderPlaced, services.EventOrderPaid, services.EventOrderStatus} {
		name := name
		bus.Listen(name, func(_ context.Context, payload any) error {
			f.events.mu.Lock()
			defer f.events.mu.Unlock()
			f.events.counts[name]++
			f.events.last[name] = payload.(services.OrderEvent)
			return nil
		})
	}

	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)

	tx := repositories.NewTransactor(db)
	f.auth = services.NewAuthService(f.users, f.jobs, services.AuthConfig{
		FrontendURL:   "http://shop.test",
		AdminEmail:    "ops@shop.test",
		AdminPassword: "Adm1n!pass",
	})
	f.cart = services.NewCartService(f.users, f.products, tx)
	f.order = services.NewOrderService(f.users, f.products, f.orders, tx, f.gateway, bus, services.OrderConfig{
		DeliveryFee: deliveryFee,
		Currency:    "INR",
	})
	f.catalog = services.NewProductService(f.products, f.disk, pool)
	return f
}

// product inserts a catalog entry with sizes S, M and L.
func (f *fixture) product(t *testing.T, name string, price int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Price:    price,
		Category: "Men",
		Sizes:    []string{"S", "M", "L"},
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

// shopper inserts a verified user holding cart.
func (f *fixture) shopper(t *testing.T, email string, cart models.Cart) *models.User {
	t.Helper()
	if cart == nil {
		cart = models.Cart{}
	}
	u := &models.User{Name: "Asha", Email: email, IsVerified: true, CartData: cart}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := f.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func testAddress() models.Address {
	return models.Address{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@example.com",
		Street:    "12 MG Road",
		City:      "Bengaluru",
		State:     "KA",
		PinCode:   "560001",
		Country:   "India",
		Phone:     "9999999999",
	}
}
