package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/payment"
)

func TestPlaceOrderCOD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", models.Cart{p.ID: {"M": 2}})

	placed, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{
		Address:      testAddress(),
		Method:       models.PaymentCOD,
		ClientAmount: 1000 + deliveryFee,
	})
	require.NoError(t, err)
	assert.Nil(t, placed.Session)

	order, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.False(t, order.Payment)
	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.Equal(t, int64(1000+deliveryFee), order.Amount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Tee", order.Items[0].Name)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "Bengaluru", order.Address.City)

	assert.True(t, f.reloadUser(t, u.ID).CartData.IsEmpty())
	assert.Equal(t, 1, f.events.count(services.EventOrderPlaced))
}

func TestPlaceOrderUsesCurrentPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", models.Cart{p.ID: {"M": 1}})

	p.Price = 600
	require.NoError(t, f.products.Save(ctx, p))

	placed, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{
		Address:      testAddress(),
		Method:       models.PaymentCOD,
		ClientAmount: 500 + deliveryFee,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(600+deliveryFee), placed.Order.Amount)
	assert.Equal(t, int64(600), placed.Order.Items[0].Price)
}

func TestPlaceOrderSnapshotIsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", models.Cart{p.ID: {"M": 1}})

	placed, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{Address: testAddress(), Method: models.PaymentCOD})
	require.NoError(t, err)

	p.Name = "Renamed"
	p.Price = 900
	require.NoError(t, f.products.Save(ctx, p))

	order, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tee", order.Items[0].Name)
	assert.Equal(t, int64(500), order.Items[0].Price)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	empty := f.shopper(t, "empty@example.com", nil)
	full := f.shopper(t, "full@example.com", models.Cart{p.ID: {"M": 1}})

	_, err := f.order.PlaceOrder(ctx, empty.ID, services.PlaceOrderInput{Address: testAddress(), Method: models.PaymentCOD})
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	addr := testAddress()
	addr.City = "  "
	_, err = f.order.PlaceOrder(ctx, full.ID, services.PlaceOrderInput{Address: addr, Method: models.PaymentCOD})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "address.city")

	_, err = f.order.PlaceOrder(ctx, full.ID, services.PlaceOrderInput{Address: testAddress(), Method: "stripe"})
	assert.ErrorAs(t, err, &verr)

	orders, err := f.order.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.False(t, f.reloadUser(t, full.ID).CartData.IsEmpty())
}

func TestPlaceOrderSkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gone := f.product(t, "Gone", 300)
	u := f.shopper(t, "asha@example.com", models.Cart{gone.ID: {"M": 1}})
	require.NoError(t, f.products.Delete(ctx, gone.ID))

	_, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{Address: testAddress(), Method: models.PaymentCOD})
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

// placeGatewayOrder opens a gateway order for a 2 × 500 cart.
func placeGatewayOrder(t *testing.T, f *fixture, gatewayID string) (*models.User, *services.Placement) {
	t.Helper()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, gatewayID+"@example.com", models.Cart{p.ID: {"M": 2}})

	f.gateway.On("CreateSession", int64((1000+deliveryFee)*100), "INR", mock.AnythingOfType("string")).
		Return(payment.Session{ID: gatewayID, Amount: (1000 + deliveryFee) * 100, Currency: "INR", Receipt: "r"}, nil).
		Once()

	placed, err := f.order.PlaceOrder(context.Background(), u.ID, services.PlaceOrderInput{
		Address: testAddress(),
		Method:  models.PaymentRazorpay,
	})
	require.NoError(t, err)
	return u, placed
}

func signed(orderID, paymentID string) payment.Callback {
	cb := payment.Callback{OrderID: orderID, PaymentID: paymentID}
	cb.Signature = payment.Sign(testSecret, cb)
	return cb
}

func TestGatewayOrderIsPendingUntilVerified(t *testing.T) {
	f := newFixture(t)
	u, placed := placeGatewayOrder(t, f, "order_GW1")

	require.NotNil(t, placed.Session)
	assert.Equal(t, "order_GW1", placed.Session.ID)
	assert.Equal(t, fmt.Sprintf("order_%d", placed.Order.ID), f.gateway.Calls[0].Arguments.String(2))

	order, err := f.orders.FindByID(context.Background(), placed.Order.ID)
	require.NoError(t, err)
	assert.False(t, order.Payment)
	assert.Equal(t, "order_GW1", order.GatewayOrderID)
	assert.Equal(t, models.PaymentRazorpay, order.PaymentMethod)

	assert.False(t, f.reloadUser(t, u.ID).CartData.IsEmpty())
	assert.Zero(t, f.events.count(services.EventOrderPlaced))
	f.gateway.AssertExpectations(t)
}

func TestVerifyGatewayPaymentSettlesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, placed := placeGatewayOrder(t, f, "order_GW2")
	cb := signed("order_GW2", "pay_1")

	order, err := f.order.VerifyGatewayPayment(ctx, u.ID, cb)
	require.NoError(t, err)
	assert.True(t, order.Payment)
	assert.True(t, f.reloadUser(t, u.ID).CartData.IsEmpty())

	// The shopper fills a new cart; a replay must not touch it.
	_, err = f.cart.Update(ctx, u.ID, placed.Order.Items[0].ProductID, "S", 1)
	require.NoError(t, err)

	replay, err := f.order.VerifyGatewayPayment(ctx, u.ID, cb)
	require.NoError(t, err)
	assert.True(t, replay.Payment)
	assert.Equal(t, 1, f.reloadUser(t, u.ID).CartData.Count())
	assert.Equal(t, 1, f.events.count(services.EventOrderPaid))

	stored, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Payment)
	assert.Equal(t, "pay_1", stored.GatewayPaymentID)
}

func TestVerifyGatewayPaymentConcurrentCallbacks(t *testing.T) {
	f := newFixture(t)
	u, _ := placeGatewayOrder(t, f, "order_GW3")
	cb := signed("order_GW3", "pay_9")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.order.VerifyGatewayPayment(context.Background(), u.ID, cb)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.events.count(services.EventOrderPaid))
}

func TestVerifyGatewayPaymentRejectsTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, placed := placeGatewayOrder(t, f, "order_GW4")

	cb := signed("order_GW4", "pay_1")
	cb.PaymentID = "pay_2"
	_, err := f.order.VerifyGatewayPayment(ctx, u.ID, cb)
	assert.ErrorIs(t, err, services.ErrVerificationFailed)

	_, err = f.order.VerifyGatewayPayment(ctx, u.ID, payment.Callback{OrderID: "order_GW4", PaymentID: "pay_1", Signature: "00"})
	assert.ErrorIs(t, err, services.ErrVerificationFailed)

	order, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.False(t, order.Payment)
	assert.False(t, f.reloadUser(t, u.ID).CartData.IsEmpty())
	assert.Zero(t, f.events.count(services.EventOrderPaid))
}

func TestVerifyGatewayPaymentOtherUsersOrder(t *testing.T) {
	f := newFixture(t)
	_, _ = placeGatewayOrder(t, f, "order_GW5")
	intruder := f.shopper(t, "intruder@example.com", nil)

	_, err := f.order.VerifyGatewayPayment(context.Background(), intruder.ID, signed("order_GW5", "pay_1"))
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPlaceGatewayOrderGatewayDown(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", models.Cart{p.ID: {"M": 1}})
	f.gateway.On("CreateSession", mock.Anything, mock.Anything, mock.Anything).
		Return(payment.Session{}, errors.New("connection refused"))

	_, err := f.order.PlaceOrder(context.Background(), u.ID, services.PlaceOrderInput{
		Address: testAddress(),
		Method:  models.PaymentRazorpay,
	})
	assert.ErrorIs(t, err, services.ErrGatewayUnavailable)
	assert.False(t, f.reloadUser(t, u.ID).CartData.IsEmpty())

	mine, err := f.order.ListForUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	all, err := f.order.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateStatusVisibleToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", models.Cart{p.ID: {"M": 1}})
	other := f.shopper(t, "other@example.com", nil)

	placed, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{Address: testAddress(), Method: models.PaymentCOD})
	require.NoError(t, err)

	updated, err := f.order.UpdateStatus(ctx, placed.Order.ID, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)
	assert.Equal(t, 1, f.events.count(services.EventOrderStatus))

	mine, err := f.order.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.StatusShipped, mine[0].Status)

	theirs, err := f.order.ListForUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	updated, err = f.order.UpdateStatus(ctx, placed.Order.ID, "Out for delivery")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOutForDelivery, updated.Status)
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", models.Cart{p.ID: {"M": 1}})

	placed, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{Address: testAddress(), Method: models.PaymentCOD})
	require.NoError(t, err)
	_, err = f.order.UpdateStatus(ctx, placed.Order.ID, "Packing")
	require.NoError(t, err)

	var verr *services.ValidationError
	_, err = f.order.UpdateStatus(ctx, placed.Order.ID, "Order Placed")
	assert.ErrorAs(t, err, &verr)
	_, err = f.order.UpdateStatus(ctx, placed.Order.ID, "Packing")
	assert.ErrorAs(t, err, &verr)
	_, err = f.order.UpdateStatus(ctx, placed.Order.ID, "Lost")
	assert.ErrorAs(t, err, &verr)

	_, err = f.order.UpdateStatus(ctx, 9999, "Shipped")
	assert.ErrorIs(t, err, services.ErrNotFound)

	order, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPacking, order.Status)
}

func TestListAllNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Tee", 500)
	u := f.shopper(t, "asha@example.com", nil)

	var ids []uint
	for i := 0; i < 3; i++ {
		_, err := f.cart.Add(ctx, u.ID, p.ID, "M")
		require.NoError(t, err)
		placed, err := f.order.PlaceOrder(ctx, u.ID, services.PlaceOrderInput{Address: testAddress(), Method: models.PaymentCOD})
		require.NoError(t, err)
		ids = append(ids, placed.Order.ID)
	}

	orders, err := f.order.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[2].ID)
}
