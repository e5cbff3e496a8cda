// Package routes declares the storefront HTTP API.
package routes

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Controllers is everything RegisterAPI mounts.
type Controllers struct {
	Auth    *controllers.AuthController
	Cart    *controllers.CartController
	Product *controllers.ProductController
	Order   *controllers.OrderController
	User    *controllers.UserController
	GraphQL http.Handler
}

func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api")
	user := rbac.User()
	admin := rbac.Admin()

	authAPI := api.Group("/auth", middleware.RateLimit(30, time.Minute))
	authAPI.Post("/registration", "auth.registration", ctx.Wrap(c.Auth.Registration))
	authAPI.Get("/verify-email", "auth.verify-email", ctx.Wrap(c.Auth.VerifyEmail))
	authAPI.Post("/login", "auth.login", ctx.Wrap(c.Auth.Login))
	authAPI.Get("/logout", "auth.logout", ctx.Wrap(c.Auth.Logout))
	authAPI.Post("/googlelogin", "auth.googlelogin", ctx.Wrap(c.Auth.GoogleLogin))
	authAPI.Post("/adminlogin", "auth.adminlogin", ctx.Wrap(c.Auth.AdminLogin))

	userAPI := api.Group("/user")
	userAPI.Get("/me", "user.me", ctx.Wrap(c.User.Me), user)
	userAPI.Get("/admin", "user.admin", ctx.Wrap(c.User.Admin), admin)

	productAPI := api.Group("/product")
	productAPI.Post("/addproduct", "product.add", ctx.Wrap(c.Product.Add), admin)
	productAPI.Get("/list", "product.list", ctx.Wrap(c.Product.List))
	productAPI.Post("/remove", "product.remove", ctx.Wrap(c.Product.Remove), admin)
	productAPI.Post("/single", "product.single", ctx.Wrap(c.Product.Single))

	cartAPI := api.Group("/cart", user)
	cartAPI.Post("/add", "cart.add", ctx.Wrap(c.Cart.Add))
	cartAPI.Post("/update", "cart.update", ctx.Wrap(c.Cart.Update))
	cartAPI.Post("/get", "cart.get", ctx.Wrap(c.Cart.Get))

	orderAPI := api.Group("/order")
	orderAPI.Post("/placeorder", "order.place", ctx.Wrap(c.Order.PlaceOrder), user)
	orderAPI.Post("/razorpay", "order.razorpay", ctx.Wrap(c.Order.Razorpay), user)
	orderAPI.Post("/verifyrazorpay", "order.verifyrazorpay", ctx.Wrap(c.Order.VerifyRazorpay), user)
	orderAPI.Post("/userorders", "order.user", ctx.Wrap(c.Order.UserOrders), user)
	orderAPI.Get("/ws", "order.ws", ctx.Wrap(c.User.Feed), user)
	orderAPI.Get("/stream", "order.stream", ctx.Wrap(c.User.Stream), user)
	orderAPI.Post("/list", "order.list", ctx.Wrap(c.Order.List), admin)
	orderAPI.Post("/status", "order.status", ctx.Wrap(c.Order.UpdateStatus), admin)

	graphql := func(w http.ResponseWriter, req *http.Request) { c.GraphQL.ServeHTTP(w, req) }
	api.Get("/graphql", "graphql.query", graphql)
	api.Post("/graphql", "graphql.post", graphql)
}
