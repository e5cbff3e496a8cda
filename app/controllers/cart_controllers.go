package controllers

import (
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type CartController struct {
	service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{service: service}
}

type cartItemRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Add — POST /api/cart/add
func (cc *CartController) Add(c *ctx.Context) {
	var body cartItemRequest
	if !c.BindJSON(&body) {
		return
	}
	cart, err := cc.service.Add(c.Context(), c.UserID(), body.ItemID, body.Size)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Added To Cart", "cartData": cart})
}

// Update — POST /api/cart/update
func (cc *CartController) Update(c *ctx.Context) {
	var body cartItemRequest
	if !c.BindJSON(&body) {
		return
	}
	cart, err := cc.service.Update(c.Context(), c.UserID(), body.ItemID, body.Size, body.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"message": "Cart Updated", "cartData": cart})
}

// Get — POST /api/cart/get
func (cc *CartController) Get(c *ctx.Context) {
	cart, err := cc.service.Get(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.OK(response.Body{"cartData": cart})
}
