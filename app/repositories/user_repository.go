package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

// UserRepository persists shopper accounts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindByEmail expects an already-normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindByVerificationDigest returns the user holding an unexpired token with
// the given digest.
func (r *UserRepository) FindByVerificationDigest(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("verification_token_hash = ? AND verification_token_expires > ?", digest, now).
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts u; a taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return duplicate(r.db.WithContext(ctx).Create(u).Error)
}

// Save writes every column of u.
func (r *UserRepository) Save(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// MarkVerified flips the flag and clears the token in one statement.
func (r *UserRepository) MarkVerified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"is_verified":                true,
			"verification_token_hash":    "",
			"verification_token_expires": nil,
		}).Error
}

// SaveCart writes only the cart column, leaving other fields untouched.
func (r *UserRepository) SaveCart(ctx context.Context, id uint, cart models.Cart) error {
	if cart == nil {
		cart = models.Cart{}
	}
	return r.db.WithContext(ctx).Model(&models.User{ID: id}).Select("CartData").
		Updates(&models.User{CartData: cart}).Error
}

// ClearCart empties the stored cart.
func (r *UserRepository) ClearCart(ctx context.Context, id uint) error {
	return r.SaveCart(ctx, id, models.Cart{})
}

// PurgeExpiredTokens clears verification tokens whose expiry has passed and
// returns how many accounts were touched.
func (r *UserRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("verification_token_expires IS NOT NULL AND verification_token_expires <= ?", now).
		Updates(map[string]any{
			"verification_token_hash":    "",
			"verification_token_expires": nil,
		})
	return res.RowsAffected, res.Error
}
