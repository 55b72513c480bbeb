// Package httpserver exposes the ordering and admin API over echo.
package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/balkan_kitchen/internal/middleware/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/middleware/csrf"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB        Pinger
	Auth      *authmw.AutoRefreshMiddleware
	CSRF      *csrf.Config
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Checkout  *CheckoutHTTP
	AuthHTTP  *AuthHTTP
	Admin     *AdminHTTP
	OrderFeed *OrderFeedHTTP
}

const wsPath = "/api/v1/admin/orders/ws"

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := d.DB.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, ErrorBody{Code: "network", Message: err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")

	cat := v1.Group("/catalog")
	cat.GET("/categories", d.Catalog.Categories)
	cat.GET("/items", d.Catalog.Items)
	cat.GET("/items/search", d.Catalog.Search)

	cart := v1.Group("/cart")
	cart.GET("", d.Cart.Get)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:lineID", d.Cart.UpdateQuantity)
	cart.PUT("/items/:lineID/options", d.Cart.SetOptions)
	cart.DELETE("/items/:lineID", d.Cart.RemoveItem)

	v1.POST("/checkout", d.Checkout.Submit)

	authG := v1.Group("/auth")
	authG.POST("/login", d.AuthHTTP.Login)
	authG.POST("/refresh", d.AuthHTTP.Refresh)
	authG.POST("/logout", d.AuthHTTP.Logout)
	authG.GET("/me", d.AuthHTTP.Me, d.Auth.RequireAuth)

	var adminMW []echo.MiddlewareFunc
	if d.CSRF != nil {
		cfg := *d.CSRF
		cfg.SkipPrefixes = append(cfg.SkipPrefixes, wsPath)
		adminMW = append(adminMW, csrf.Middleware(cfg))
	}
	adminMW = append(adminMW, d.Auth.RequireAdmin)
	admin := v1.Group("/admin", adminMW...)

	admin.POST("/categories", d.Admin.CreateCategory)
	admin.PATCH("/categories/:id", d.Admin.PatchCategory)
	admin.DELETE("/categories/:id", d.Admin.DeleteCategory)

	admin.GET("/items", d.Admin.Items)
	admin.POST("/items", d.Admin.CreateItem)
	admin.PATCH("/items/:id", d.Admin.PatchItem)
	admin.DELETE("/items/:id", d.Admin.DeleteItem)
	admin.POST("/search/reindex", d.Admin.Reindex)

	admin.POST("/uploads", d.Admin.Upload)

	admin.GET("/orders", d.Admin.ListOrders)
	admin.GET("/orders/ws", d.OrderFeed.Stream)
	admin.GET("/orders/:id", d.Admin.Order)
	admin.PATCH("/orders/:id/status", d.Admin.UpdateOrderStatus)
	admin.DELETE("/orders/:id", d.Admin.DeleteOrder)
}
