package kernel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/payment"
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

const gatewaySecret = "rzp_test_secret"

type harness struct {
	k         *kernel.Kernel
	driver    *queue.MemoryDriver
	mails     *mail.Recorder
	ops       *notification.Recorder
	transport *testkit.MockTransport
	product   *models.Product
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cache.Flush()

	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, migration.New(db).Quiet().Run())

	h := &harness{
		driver:    queue.NewMemoryDriver(),
		mails:     &mail.Recorder{},
		ops:       &notification.Recorder{},
		transport: testkit.NewMockTransport(),
	}

	gw := payment.NewRazorpay("http://gateway.test", "rzp_test_key", gatewaySecret)
	gw.Client.HTTP = &http.Client{Transport: h.transport}
	gw.Client.Attempts = 1

	h.k, err = kernel.New(kernel.Options{
		DB:       db,
		Mailer:   h.mails,
		Notifier: h.ops,
		Gateway:  gw,
		Disk:     storage.NewLocalDisk(t.TempDir(), "http://cdn.test/storage"),
		Queue:    queue.New(h.driver),
		Auth: services.AuthConfig{
			FrontendURL:   "http://shop.test",
			AdminEmail:    "ops@shop.test",
			AdminPassword: "Adm1n!pass",
		},
		Order: services.OrderConfig{DeliveryFee: 40, Currency: "INR"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.k.Close() })

	h.product = &models.Product{
		Name:     "Linen Shirt",
		Price:    500,
		Category: "Men",
		Sizes:    []string{"S", "M", "L"},
	}
	require.NoError(t, repositories.NewProductRepository(db).Create(context.Background(), h.product))
	return h
}

// drain runs every queued job.
func (h *harness) drain(t *testing.T) {
	t.Helper()
	for h.driver.Len() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		raw, err := h.driver.Pop(ctx)
		cancel()
		require.NoError(t, err)
		require.NoError(t, h.k.Queue.Process(context.Background(), raw))
	}
}

var tokenRE = regexp.MustCompile(`token=([0-9a-f]+)`)

// register signs Asha up and returns a flow primed with the verification
// token and product id.
func (h *harness) register(t *testing.T) *testkit.Flow {
	t.Helper()
	f := testkit.NewFlow(h.k.Handler(), h.transport)
	f.Run(t, testkit.Scenario{
		Name:         "register",
		Method:       http.MethodPost,
		URL:          "/api/auth/registration",
		Body:         []byte(`{"name":"Asha","email":"asha@example.com","password":"Str0ng!pass"}`),
		ExpectedCode: http.StatusCreated,
		ExpectedBody: []byte(`{"success":true,"user":{"email":"asha@example.com"}}`),
	})

	h.drain(t)
	sent := h.mails.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Email Verification", sent[0].Subject)
	m := tokenRE.FindStringSubmatch(sent[0].HTML)
	require.Len(t, m, 2)

	f.Set("verifyToken", m[1])
	f.Set("productId", h.product.ID)
	return f
}

func TestShopperFlow(t *testing.T) {
	h := newHarness(t)
	f := h.register(t)
	f.RunFile(t, "testdata/shopper_flow.json")

	h.drain(t)
	sent := h.mails.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Order #"+f.Var("orderId")+" placed", sent[1].Subject)

	alerts := h.ops.Sent()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Order #"+f.Var("orderId")+" placed", alerts[0].Text)
}

func TestRazorpayFlow(t *testing.T) {
	h := newHarness(t)
	f := h.register(t)
	f.Run(t, testkit.Scenario{
		Name:         "verify email",
		Method:       http.MethodGet,
		URL:          "/api/auth/verify-email?token={{verifyToken}}",
		ExpectedCode: http.StatusOK,
	})
	f.Set("signature", payment.Sign(gatewaySecret, payment.Callback{OrderID: "order_gw_1", PaymentID: "pay_1"}))

	f.RunFile(t, "testdata/razorpay_flow.json")

	h.drain(t)
	var paid []string
	for _, m := range h.mails.Sent() {
		if strings.HasPrefix(m.Subject, "Payment received") {
			paid = append(paid, m.Subject)
		}
	}
	assert.Equal(t, []string{"Payment received for order #" + f.Var("orderId")}, paid)
	assert.Len(t, h.ops.Sent(), 1, "only settlement alerts, once")
}

func TestAdminFlow(t *testing.T) {
	h := newHarness(t)
	shopper := h.register(t)
	shopper.RunFile(t, "testdata/shopper_flow.json")

	admin := testkit.NewFlow(h.k.Handler(), nil)
	admin.Set("orderId", shopper.Var("orderId"))
	admin.RunFile(t, "testdata/admin_flow.json")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_")
}

func TestGraphQLCatalog(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/graphql",
		strings.NewReader(`{"query":"{ products(category: \"men\") { id name price } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.k.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"data":{"products":[{"id":"`+h.product.ID+`","name":"Linen Shirt","price":500}]}}`,
		rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.k.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduledPurgeIsRegistered(t *testing.T) {
	h := newHarness(t)
	list := h.k.Scheduler.List()
	require.Len(t, list, 1)
	assert.Contains(t, list[0], "tokens:purge")
	require.NoError(t, h.k.Scheduler.RunAll(context.Background()))
}

func TestRouteTable(t *testing.T) {
	h := newHarness(t)
	names := map[string]bool{}
	for _, r := range h.k.Router().Routes() {
		names[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/registration",
		"GET /api/auth/verify-email",
		"POST /api/auth/login",
		"GET /api/auth/logout",
		"POST /api/auth/googlelogin",
		"POST /api/auth/adminlogin",
		"POST /api/order/placeorder",
		"POST /api/order/razorpay",
		"POST /api/order/verifyrazorpay",
		"POST /api/order/userorders",
		"POST /api/order/list",
		"POST /api/order/status",
		"GET /api/order/ws",
		"GET /api/order/stream",
		"GET /api/graphql",
	} {
		assert.True(t, names[want], "missing route %s", want)
	}
}
