package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/mails"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/crypt"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// Dispatcher queues background jobs. *queue.Manager satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// AuthConfig carries the values AuthService reads from configuration.
type AuthConfig struct {
	FrontendURL   string
	AdminEmail    string
	AdminPassword string
}

// AuthService registers shoppers, verifies their email and signs them in.
type AuthService struct {
	users *repositories.UserRepository
	jobs  Dispatcher
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthService(users *repositories.UserRepository, jobs Dispatcher, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, jobs: jobs, cfg: cfg, now: time.Now}
}

// Session is the outcome of a successful sign-in.
type Session struct {
	User   *models.User
	Token  string
	Claims *auth.Claims
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and queues the verification email.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.UserSummary, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.UserSummary{}, newValidationError("fields", "All fields are required")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		recordAuth("register", false)
		return models.UserSummary{}, ErrConflict
	case !errors.Is(err, repositories.ErrNotFound):
		return models.UserSummary{}, fmt.Errorf("register: lookup: %w", err)
	}

	if !validate.Email(email) {
		return models.UserSummary{}, newValidationError("email", "Enter valid email")
	}
	if msg := auth.PasswordPolicyError(password); msg != "" {
		return models.UserSummary{}, newValidationError("password", msg)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("register: hash: %w", err)
	}
	token, err := auth.NewVerificationToken(s.now())
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("register: token: %w", err)
	}

	user := &models.User{
		Name:                     name,
		Email:                    email,
		Password:                 hash,
		VerificationTokenHash:    token.Digest,
		VerificationTokenExpires: &token.ExpiresAt,
		CartData:                 models.Cart{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			recordAuth("register", false)
			return models.UserSummary{}, ErrConflict
		}
		return models.UserSummary{}, fmt.Errorf("register: create: %w", err)
	}
	recordAuth("register", true)

	s.sendVerification(ctx, user, token.Raw)
	return user.Summary(), nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User, rawToken string) {
	link := strings.TrimRight(s.cfg.FrontendURL, "/") + "/verify-email?token=" + url.QueryEscape(rawToken)
	msg, err := mails.Verification(user.Email, link)
	if err == nil {
		err = s.jobs.Dispatch(ctx, &jobs.SendMail{Message: msg})
	}
	if err != nil {
		logger.WithCtx(ctx).Error("register: verification email not queued", "user_id", user.ID, "error", err)
	}
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrInvalidOrExpiredToken
	}
	user, err := s.users.FindByVerificationDigest(ctx, crypt.Hash(rawToken), s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	logger.WithCtx(ctx).Info("email verified", "user_id", user.ID)
	return nil
}

// Login checks a password sign-in and issues a user token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		recordAuth("login", false)
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	switch {
	case !user.IsVerified:
		err = ErrUnverified
	case !user.HasPassword():
		err = ErrNoPasswordSet
	case !auth.CheckPassword(user.Password, password):
		err = errWrongPassword
	}
	if err != nil {
		recordAuth("login", false)
		return nil, err
	}
	return s.issue(user, "login")
}

// LoginWithProvider signs in an externally authenticated shopper, creating
// the account on first use.
func (s *AuthService) LoginWithProvider(ctx context.Context, name, email, externalID string) (*Session, error) {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return nil, newValidationError("email", "Enter valid email")
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		user = &models.User{
			Name:       strings.TrimSpace(name),
			Email:      email,
			GoogleID:   externalID,
			IsVerified: true,
			CartData:   models.Cart{},
		}
		if user.Name == "" {
			user.Name = email
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("provider login: create: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("provider login: %w", err)
	case user.GoogleID == "":
		// Linking does not verify the email; password sign-in still waits
		// for the verification link.
		user.GoogleID = externalID
		if err := s.users.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("provider login: link: %w", err)
		}
	}
	return s.issue(user, "provider")
}

func (s *AuthService) issue(user *models.User, kind string) (*Session, error) {
	token, claims, err := auth.IssueToken(auth.ScopeUser, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	recordAuth(kind, true)
	return &Session{User: user, Token: token, Claims: claims}, nil
}

// AdminLogin compares against the configured operator credentials.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		logger.WithCtx(ctx).Warn("admin login attempted without configured credentials")
		recordAuth("admin", false)
		return nil, ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(s.cfg.AdminEmail))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword))
	if emailOK&passOK != 1 {
		recordAuth("admin", false)
		return nil, ErrInvalidCredentials
	}

	token, claims, err := auth.IssueToken(auth.ScopeAdmin, 0, s.cfg.AdminEmail)
	if err != nil {
		return nil, err
	}
	recordAuth("admin", true)
	logger.Audit(ctx, "admin signed in", "jti", claims.ID)
	return &Session{Token: token, Claims: claims}, nil
}

// PurgeExpiredTokens clears verification tokens past their expiry.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.users.PurgeExpiredTokens(ctx, s.now())
}

// Me loads the signed-in shopper.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func recordAuth(kind string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	metrics.AuthAttempts.WithLabelValues(kind, result).Inc()
}
