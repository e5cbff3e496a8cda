package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

// OrderRepository persists orders.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

// Discard soft-deletes an order that never reached the gateway.
func (r *OrderRepository) Discard(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, id).Error
}

// SetGatewayOrderID links a pending order to its gateway session.
func (r *OrderRepository) SetGatewayOrderID(ctx context.Context, id uint, gatewayOrderID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Update("gateway_order_id", gatewayOrderID).Error
}

// MarkPaid settles the order with a single conditional UPDATE. It reports
// true only for the call that flipped payment from false to true; replays
// and concurrent duplicates get false.
func (r *OrderRepository) MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("gateway_order_id = ? AND payment = ?", gatewayOrderID, false).
		Updates(map[string]any{"payment": true, "gateway_payment_id": gatewayPaymentID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStatus moves the order from one status to the next. It returns
// false when the stored status is no longer from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
