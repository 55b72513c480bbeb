package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/balkan_kitchen/internal/cart"
	"github.com/Skotchmaster/balkan_kitchen/internal/checkout"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/service"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
)

const SessionCookie = "cart_session"

type CartHTTP struct {
	Carts   *cart.Registry
	Catalog *service.CatalogService
	TTL     time.Duration
	Localizer
}

// session returns the caller's cart and refreshes the session cookie.
func (h *CartHTTP) session(c echo.Context) *cart.Store {
	var id string
	if ck, err := c.Cookie(SessionCookie); err == nil {
		id = ck.Value
	}
	id, store := h.Carts.Open(id)
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func (h *CartHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.NewCartView(h.session(c), ""))
}

func (h *CartHTTP) Clear(c echo.Context) error {
	store := h.session(c)
	store.Clear()
	return c.JSON(http.StatusOK, transport.NewCartView(store, h.Msg(c, "cart.cleared")))
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "add_cart_item_failed", http.StatusBadRequest, "invalid_body")
	}

	item, err := h.Catalog.MenuItem(ctx, req.MenuItemID)
	if err != nil {
		return h.Fail(c, "add_cart_item_failed", err)
	}
	if !item.IsAvailable {
		return h.Reject(c, "add_cart_item_failed", http.StatusConflict, "item_unavailable")
	}

	store := h.session(c)
	line, err := store.AddItem(cart.SnapshotOf(*item), req.Options)
	if err != nil {
		return h.Fail(c, "add_cart_item_failed", err)
	}
	l.Info("cart_item_added", "item_id", item.ID, "line_id", line.LineID)
	return c.JSON(http.StatusCreated, transport.NewCartView(store, h.Msg(c, "cart.added", "name", item.Name)))
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		return h.Reject(c, "update_cart_quantity_failed", http.StatusBadRequest, "invalid_body")
	}
	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "update_cart_quantity_failed", http.StatusBadRequest, "invalid_quantity")
	}
	q, err := cart.ParseQuantity(req.Quantity.String())
	if err != nil {
		return h.Fail(c, "update_cart_quantity_failed", err)
	}

	store := h.session(c)
	if err := store.UpdateQuantity(lineID, q); err != nil {
		return h.Fail(c, "update_cart_quantity_failed", err)
	}
	key := "cart.updated"
	if q <= 0 {
		key = "cart.removed"
	}
	return c.JSON(http.StatusOK, transport.NewCartView(store, h.Msg(c, key)))
}

func (h *CartHTTP) SetOptions(c echo.Context) error {
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		return h.Reject(c, "set_cart_options_failed", http.StatusBadRequest, "invalid_body")
	}
	var opts cart.Options
	if err := c.Bind(&opts); err != nil {
		return h.Reject(c, "set_cart_options_failed", http.StatusBadRequest, "invalid_body")
	}

	store := h.session(c)
	if err := store.SetOptions(lineID, opts); err != nil {
		return h.Fail(c, "set_cart_options_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartView(store, h.Msg(c, "cart.updated")))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		return h.Reject(c, "remove_cart_item_failed", http.StatusBadRequest, "invalid_body")
	}
	store := h.session(c)
	store.RemoveItem(lineID)
	return c.JSON(http.StatusOK, transport.NewCartView(store, h.Msg(c, "cart.removed")))
}

type CheckoutHTTP struct {
	Carts     *cart.Registry
	Submitter *checkout.Submitter
	Localizer
}

type CheckoutResponse struct {
	Order   *models.Order `json:"order"`
	Message string        `json:"message"`
}

func (h *CheckoutHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit")

	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "checkout_failed", http.StatusBadRequest, "invalid_body")
	}

	store := cart.NewStore()
	if ck, err := c.Cookie(SessionCookie); err == nil {
		if s, ok := h.Carts.Get(ck.Value); ok {
			store = s
		}
	}

	order, err := h.Submitter.Submit(ctx, store, req)
	if err != nil {
		return h.Fail(c, "checkout_failed", err)
	}
	l.Info("checkout_successful", "order_id", order.ID)
	return c.JSON(http.StatusCreated, CheckoutResponse{Order: order, Message: h.Msg(c, "order.received")})
}
