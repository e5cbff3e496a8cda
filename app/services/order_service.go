package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services/payment"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// Order lifecycle events. The payload is an OrderEvent.
const (
	EventOrderPlaced = "order.placed"
	EventOrderPaid   = "order.paid"
	EventOrderStatus = "order.status"
)

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Order *models.Order
}

// Publisher fires domain events. *event.Bus satisfies it.
type Publisher interface {
	Fire(ctx context.Context, event string, payload any)
}

// OrderConfig carries the checkout settings.
type OrderConfig struct {
	DeliveryFee int64
	Currency    string
}

// OrderService turns carts into orders and tracks them to delivery.
type OrderService struct {
	users    *repositories.UserRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	tx       *repositories.Transactor
	gateway  payment.Gateway
	events   Publisher
	cfg      OrderConfig
}

func NewOrderService(
	users *repositories.UserRepository,
	products *repositories.ProductRepository,
	orders *repositories.OrderRepository,
	tx *repositories.Transactor,
	gateway payment.Gateway,
	events Publisher,
	cfg OrderConfig,
) *OrderService {
	return &OrderService{
		users:    users,
		products: products,
		orders:   orders,
		tx:       tx,
		gateway:  gateway,
		events:   events,
		cfg:      cfg,
	}
}

// PlaceOrderInput is the checkout request. ClientAmount is what the client
// displayed; the stored amount is always recomputed.
type PlaceOrderInput struct {
	Address      models.Address
	Method       models.PaymentMethod
	ClientAmount int64
}

// Placement is the result of PlaceOrder. Session is set for gateway orders.
type Placement struct {
	Order   *models.Order
	Session *payment.Session
}

// PlaceOrder snapshots the cart into a new order. Cash orders clear the cart
// immediately; gateway orders stay pending until VerifyGatewayPayment.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*Placement, error) {
	if errs := validate.Struct(&struct {
		Address models.Address `json:"address"`
	}{in.Address}); validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	switch in.Method {
	case models.PaymentCOD:
		return s.placeCOD(ctx, userID, in)
	case models.PaymentRazorpay:
		return s.placeGateway(ctx, userID, in)
	default:
		return nil, newValidationError("paymentMethod", fmt.Sprintf("Unsupported payment method %q", in.Method))
	}
}

func (s *OrderService) placeCOD(ctx context.Context, userID uint, in PlaceOrderInput) (*Placement, error) {
	var order *models.Order
	err := s.tx.Do(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		var err error
		order, err = s.draft(ctx, users, s.products.WithTx(tx), userID, in)
		if err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return fmt.Errorf("place order: create: %w", err)
		}
		return users.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.placed(ctx, order)
	return &Placement{Order: order}, nil
}

func (s *OrderService) placeGateway(ctx context.Context, userID uint, in PlaceOrderInput) (*Placement, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	order, err := s.draft(ctx, s.users, s.products, userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("place order: create: %w", err)
	}

	session, err := s.gateway.CreateSession(ctx, order.Amount*100, s.cfg.Currency, order.Receipt())
	if err != nil {
		log := logger.WithCtx(ctx)
		log.Error("payment session failed", "order_id", order.ID, "error", err)
		if derr := s.orders.Discard(context.WithoutCancel(ctx), order.ID); derr != nil {
			log.Error("discard unpaid draft failed", "order_id", order.ID, "error", derr)
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if err := s.orders.SetGatewayOrderID(ctx, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("place order: link session: %w", err)
	}
	order.GatewayOrderID = session.ID

	s.placed(ctx, order)
	return &Placement{Order: order, Session: &session}, nil
}

func (s *OrderService) placed(ctx context.Context, order *models.Order) {
	metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	logger.Audit(ctx, "order placed",
		"order_id", order.ID, "user_id", order.UserID,
		"amount", order.Amount, "method", order.PaymentMethod)
	if order.PaymentMethod == models.PaymentCOD {
		s.events.Fire(ctx, EventOrderPlaced, OrderEvent{Order: order})
	}
}

// draft builds an unsaved order from the user's cart priced at the current
// catalog.
func (s *OrderService) draft(
	ctx context.Context,
	users *repositories.UserRepository,
	products *repositories.ProductRepository,
	userID uint,
	in PlaceOrderInput,
) (*models.Order, error) {
	user, err := users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("place order: user: %w", err)
	}
	cart := user.EnsureCart()
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	catalog, err := products.Catalog(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("place order: catalog: %w", err)
	}
	items := snapshotItems(cart, catalog)
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	amount := cart.AmountTotal(catalog) + s.cfg.DeliveryFee
	if in.ClientAmount != 0 && in.ClientAmount != amount {
		logger.WithCtx(ctx).Warn("checkout amount differs from client",
			"user_id", userID, "client_amount", in.ClientAmount, "amount", amount)
	}

	return &models.Order{
		UserID:        userID,
		Items:         items,
		Address:       in.Address,
		Amount:        amount,
		PaymentMethod: in.Method,
		Payment:       false,
		Status:        models.StatusPlaced,
	}, nil
}

// snapshotItems copies each cart line with its product, ordered by product
// id then size. Products missing from the catalog are dropped.
func snapshotItems(cart models.Cart, catalog models.Catalog) []models.OrderItem {
	ids := cart.ProductIDs()
	sort.Strings(ids)

	var items []models.OrderItem
	for _, id := range ids {
		p, ok := catalog[id]
		if !ok {
			continue
		}
		sizes := make([]string, 0, len(cart[id]))
		for size := range cart[id] {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
		for _, size := range sizes {
			qty := cart[id][size]
			if qty <= 0 {
				continue
			}
			items = append(items, models.OrderItem{
				ProductID:   p.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				Category:    p.Category,
				SubCategory: p.SubCategory,
				Images:      p.Images,
				Size:        size,
				Quantity:    qty,
			})
		}
	}
	return items
}

// VerifyGatewayPayment settles the order named by the callback. A valid
// replay returns the order without changing anything.
func (s *OrderService) VerifyGatewayPayment(ctx context.Context, userID uint, cb payment.Callback) (*models.Order, error) {
	if s.gateway == nil || !s.gateway.VerifyCallback(cb) {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		logger.Audit(ctx, "payment signature rejected", "gateway_order_id", cb.OrderID, "user_id", userID)
		return nil, ErrVerificationFailed
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, cb.OrderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	var settled bool
	err = s.tx.Do(func(tx *gorm.DB) error {
		var err error
		settled, err = s.orders.WithTx(tx).MarkPaid(ctx, cb.OrderID, cb.PaymentID)
		if err != nil || !settled {
			return err
		}
		return s.users.WithTx(tx).ClearCart(ctx, order.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("verify payment: settle: %w", err)
	}

	if !settled {
		metrics.PaymentVerifications.WithLabelValues("duplicate").Inc()
		logger.WithCtx(ctx).Info("payment already settled", "order_id", order.ID)
		return order, nil
	}

	order.Payment = true
	order.GatewayPaymentID = cb.PaymentID
	metrics.PaymentVerifications.WithLabelValues("settled").Inc()
	logger.Audit(ctx, "payment settled",
		"order_id", order.ID, "gateway_order_id", cb.OrderID, "gateway_payment_id", cb.PaymentID)
	s.events.Fire(ctx, EventOrderPaid, OrderEvent{Order: order})
	return order, nil
}

// ListAll returns every order for the operator console.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListAll(ctx)
}

// ListForUser returns the shopper's own orders.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus advances an order. Moving backwards or staying put is
// rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, raw string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(raw)
	if err != nil {
		return nil, newValidationError("status", "Invalid order status")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !order.Status.CanAdvanceTo(next) {
		return nil, newValidationError("status",
			fmt.Sprintf("Cannot change status from %s to %s", order.Status, next))
	}

	ok, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		return nil, newValidationError("status", "Order was updated by someone else, reload and retry")
	}

	logger.Audit(ctx, "order status changed", "order_id", order.ID, "from", order.Status, "to", next)
	order.Status = next
	s.events.Fire(ctx, EventOrderStatus, OrderEvent{Order: order})
	return order, nil
}
