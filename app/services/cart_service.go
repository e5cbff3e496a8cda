package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
)

// CartService edits the cart held on the user record.
type CartService struct {
	users    *repositories.UserRepository
	products *repositories.ProductRepository
	tx       *repositories.Transactor
}

func NewCartService(users *repositories.UserRepository, products *repositories.ProductRepository, tx *repositories.Transactor) *CartService {
	return &CartService{users: users, products: products, tx: tx}
}

// Get returns the user's cart.
func (s *CartService) Get(ctx context.Context, userID uint) (models.Cart, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart get: %w", err)
	}
	return user.EnsureCart(), nil
}

// Add puts one more unit of (productID, size) in the cart.
func (s *CartService) Add(ctx context.Context, userID uint, productID, size string) (models.Cart, error) {
	if err := s.checkProduct(ctx, productID, size); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c models.Cart) error {
		c.Add(productID, size)
		return nil
	})
}

// Update sets the quantity of (productID, size). Zero removes the entry.
func (s *CartService) Update(ctx context.Context, userID uint, productID, size string, qty int) (models.Cart, error) {
	if qty < 0 {
		return nil, newValidationError("quantity", "Quantity cannot be negative")
	}
	if qty > 0 {
		if err := s.checkProduct(ctx, productID, size); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, userID, func(c models.Cart) error {
		return c.SetQuantity(productID, size, qty)
	})
}

func (s *CartService) checkProduct(ctx context.Context, productID, size string) error {
	if productID == "" {
		return newValidationError("itemId", "Select a product")
	}
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("cart: product: %w", err)
	}
	if !product.HasSize(size) {
		return newValidationError("size", "Select Product Size")
	}
	return nil
}

func (s *CartService) mutate(ctx context.Context, userID uint, fn func(models.Cart) error) (models.Cart, error) {
	var cart models.Cart
	err := s.tx.Do(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		user, err := users.FindByID(ctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		cart = user.EnsureCart()
		if err := fn(cart); err != nil {
			return newValidationError("quantity", err.Error())
		}
		return users.SaveCart(ctx, userID, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}
