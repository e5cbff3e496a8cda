package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/session"
)

type AuthController struct {
	service  *services.AuthService
	sessions *session.Manager
}

func NewAuthController(service *services.AuthService, sessions *session.Manager) *AuthController {
	return &AuthController{service: service, sessions: sessions}
}

type registrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration — POST /api/auth/registration
func (ac *AuthController) Registration(c *ctx.Context) {
	var body registrationRequest
	if !c.BindJSON(&body) {
		return
	}
	user, err := ac.service.Register(c.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(response.Body{
		"message": "Registration successful! Please check your email to verify your account.",
		"user":    user,
	})
}

// VerifyEmail — GET /api/auth/verify-email?token=
func (ac *AuthController) VerifyEmail(c *ctx.Context) {
	if err := ac.service.VerifyEmail(c.Context(), c.Query("token")); err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Email verified successfully! You can now login."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login — POST /api/auth/login
func (ac *AuthController) Login(c *ctx.Context) {
	var body loginRequest
	if !c.BindJSON(&body) {
		return
	}
	sess, err := ac.service.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ac.sessions.Issue(c.W, sess.Token, sess.Claims.Scope)
	c.JSON(http.StatusOK, sess.User)
}

type providerLoginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required"`
	GoogleID string `json:"googleId" validate:"required"`
}

// GoogleLogin — POST /api/auth/googlelogin
func (ac *AuthController) GoogleLogin(c *ctx.Context) {
	var body providerLoginRequest
	if !c.BindJSON(&body) {
		return
	}
	sess, err := ac.service.LoginWithProvider(c.Context(), body.Name, body.Email, body.GoogleID)
	if err != nil {
		fail(c, err)
		return
	}
	ac.sessions.Issue(c.W, sess.Token, sess.Claims.Scope)
	c.JSON(http.StatusOK, sess.User)
}

// AdminLogin — POST /api/auth/adminlogin
func (ac *AuthController) AdminLogin(c *ctx.Context) {
	var body loginRequest
	if !c.BindJSON(&body) {
		return
	}
	sess, err := ac.service.AdminLogin(c.Context(), body.Email, body.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ac.sessions.Issue(c.W, sess.Token, sess.Claims.Scope)
	c.OK(response.Body{"token": sess.Token})
}

// Logout — GET /api/auth/logout. Always succeeds.
func (ac *AuthController) Logout(c *ctx.Context) {
	if claims, ok := c.Claims(); ok {
		if err := ac.sessions.Revoke(c.Context(), claims); err != nil {
			c.Log().Warn("logout: token not revoked", "error", err)
		}
	}
	ac.sessions.Clear(c.W)
	c.OK(response.Body{"message": "logOut successful"})
}
