package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/services/payment"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

// checkoutRequest is what the checkout page posts. Items are ignored: the
// order is built from the server-held cart.
type checkoutRequest struct {
	Address models.Address `json:"address"`
	Items   any            `json:"items"`
	Amount  int64          `json:"amount"`
}

func (oc *OrderController) place(c *ctx.Context, method models.PaymentMethod) (*services.Placement, bool) {
	var body checkoutRequest
	if !c.BindJSON(&body) {
		return nil, false
	}
	placed, err := oc.service.PlaceOrder(c.Context(), c.UserID(), services.PlaceOrderInput{
		Address:      body.Address,
		Method:       method,
		ClientAmount: body.Amount,
	})
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return placed, true
}

// PlaceOrder — POST /api/order/placeorder (cash on delivery)
func (oc *OrderController) PlaceOrder(c *ctx.Context) {
	placed, ok := oc.place(c, models.PaymentCOD)
	if !ok {
		return
	}
	c.OK(response.Body{"message": "Order Placed", "orderId": placed.Order.ID})
}

// Razorpay — POST /api/order/razorpay
func (oc *OrderController) Razorpay(c *ctx.Context) {
	placed, ok := oc.place(c, models.PaymentRazorpay)
	if !ok {
		return
	}
	s := placed.Session
	c.OK(response.Body{
		"orderId":  placed.Order.ID,
		"id":       s.ID,
		"amount":   s.Amount,
		"currency": s.Currency,
		"receipt":  s.Receipt,
	})
}

// VerifyRazorpay — POST /api/order/verifyrazorpay
func (oc *OrderController) VerifyRazorpay(c *ctx.Context) {
	var cb payment.Callback
	if !c.BindJSON(&cb) {
		return
	}
	order, err := oc.service.VerifyGatewayPayment(c.Context(), c.UserID(), cb)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Payment Successful", "orderId": order.ID})
}

// List — POST /api/order/list (admin)
func (oc *OrderController) List(c *ctx.Context) {
	orders, err := oc.service.ListAll(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"orders": orders})
}

// UserOrders — POST /api/order/userorders
func (oc *OrderController) UserOrders(c *ctx.Context) {
	orders, err := oc.service.ListForUser(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"orders": orders})
}

// UpdateStatus — POST /api/order/status (admin)
func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	var body struct {
		OrderID looseID `json:"orderId"`
		Status  string  `json:"status" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	id, ok := body.OrderID.Uint()
	if !ok {
		c.Fail(http.StatusNotFound, services.ErrOrderNotFound.Error())
		return
	}
	order, err := oc.service.UpdateStatus(c.Context(), id, body.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Status Updated", "order": order})
}
