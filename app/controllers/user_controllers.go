package controllers

import (
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/sse"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

type UserController struct {
	auth   *services.AuthService
	hub    *ws.Hub
	broker *sse.Broker
}

func NewUserController(auth *services.AuthService, hub *ws.Hub, broker *sse.Broker) *UserController {
	return &UserController{auth: auth, hub: hub, broker: broker}
}

// Me — GET /api/user/me
func (uc *UserController) Me(c *ctx.Context) {
	user, err := uc.auth.Me(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"user": user})
}

// Admin — GET /api/user/admin
func (uc *UserController) Admin(c *ctx.Context) {
	claims, _ := c.Claims()
	c.OK(response.Body{"email": claims.Email})
}

// Feed — GET /api/order/ws. Upgrades to a websocket carrying the
// shopper's order updates.
func (uc *UserController) Feed(c *ctx.Context) {
	claims, _ := c.Claims()
	if err := uc.hub.Upgrade(c.W, c.R, claims.Subject); err != nil {
		c.Log().Warn("ws: upgrade failed", "error", err)
	}
}

// Stream — GET /api/order/stream. The same updates as Feed, as
// Server-Sent Events.
func (uc *UserController) Stream(c *ctx.Context) {
	claims, _ := c.Claims()
	if err := uc.broker.Serve(c.W, c.R, claims.Subject); err != nil {
		c.Log().Warn("sse: stream ended", "error", err)
	}
}
