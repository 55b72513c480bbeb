package httpserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/balkan_kitchen/internal/catalog"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/service"
	"github.com/Skotchmaster/balkan_kitchen/internal/storage"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
	"github.com/Skotchmaster/balkan_kitchen/internal/util"
)

type AdminHTTP struct {
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Images  *storage.ImageStore
	Localizer
}

func parseUintParam(c echo.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func (h *AdminHTTP) CreateCategory(c echo.Context) error {
	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "create_category_failed", http.StatusBadRequest, "invalid_body")
	}
	cat, err := h.Catalog.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return h.Fail(c, "create_category_failed", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminHTTP) PatchCategory(c echo.Context) error {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return h.Reject(c, "patch_category_failed", http.StatusBadRequest, "invalid_body")
	}
	var req transport.PatchCategoryRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "patch_category_failed", http.StatusBadRequest, "invalid_body")
	}
	cat, err := h.Catalog.UpdateCategory(c.Request().Context(), id, req)
	if err != nil {
		return h.Fail(c, "patch_category_failed", err)
	}
	return c.JSON(http.StatusOK, cat)
}

// DeleteCategory also deletes the category's menu items, so the caller has
// to pass confirm=true.
func (h *AdminHTTP) DeleteCategory(c echo.Context) error {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return h.Reject(c, "delete_category_failed", http.StatusBadRequest, "invalid_body")
	}
	if c.QueryParam("confirm") != "true" {
		return h.Reject(c, "delete_category_failed", http.StatusPreconditionRequired, "confirm_required")
	}
	n, err := h.Catalog.DeleteCategory(c.Request().Context(), id)
	if err != nil {
		return h.Fail(c, "delete_category_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: h.Msg(c, "admin.category_deleted", "items", strconv.FormatInt(n, 10)),
	})
}

// Items lists the whole menu, unavailable items included.
func (h *AdminHTTP) Items(c echo.Context) error {
	scope, err := catalog.ParseScope(c.QueryParam("scope"))
	if err != nil {
		return h.Reject(c, "admin_list_items_failed", http.StatusBadRequest, "invalid_scope")
	}
	return c.JSON(http.StatusOK, h.Catalog.Items(catalog.Filter{Scope: scope, Query: c.QueryParam("q")}))
}

func (h *AdminHTTP) CreateItem(c echo.Context) error {
	var req transport.CreateMenuItemRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "create_item_failed", http.StatusBadRequest, "invalid_body")
	}
	it, err := h.Catalog.CreateMenuItem(c.Request().Context(), req)
	if err != nil {
		return h.Fail(c, "create_item_failed", err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *AdminHTTP) PatchItem(c echo.Context) error {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return h.Reject(c, "patch_item_failed", http.StatusBadRequest, "invalid_body")
	}
	var req transport.PatchMenuItemRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "patch_item_failed", http.StatusBadRequest, "invalid_body")
	}
	it, err := h.Catalog.UpdateMenuItem(c.Request().Context(), id, req)
	if err != nil {
		return h.Fail(c, "patch_item_failed", err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *AdminHTTP) DeleteItem(c echo.Context) error {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return h.Reject(c, "delete_item_failed", http.StatusBadRequest, "invalid_body")
	}
	if err := h.Catalog.DeleteMenuItem(c.Request().Context(), id); err != nil {
		return h.Fail(c, "delete_item_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: h.Msg(c, "admin.deleted")})
}

// Reindex rebuilds the search index from the cached menu.
func (h *AdminHTTP) Reindex(c echo.Context) error {
	if err := h.Catalog.Reindex(c.Request().Context()); err != nil {
		return h.Fail(c, "reindex_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type UploadResponse struct {
	URL string `json:"url"`
}

// Upload stores the multipart field "file" and returns its public URL.
func (h *AdminHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.upload")

	if h.Images == nil {
		return h.Reject(c, "upload_failed", http.StatusServiceUnavailable, "uploads_disabled")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return h.Reject(c, "upload_failed", http.StatusBadRequest, "invalid_body")
	}
	if fh.Size > storage.MaxImageBytes {
		return h.Fail(c, "upload_failed", storage.ErrTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return h.Fail(c, "upload_failed", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageBytes+1))
	if err != nil {
		return h.Fail(c, "upload_failed", err)
	}
	url, err := h.Images.Upload(ctx, fh.Filename, fh.Header.Get(echo.HeaderContentType), data)
	if err != nil {
		return h.Fail(c, "upload_failed", err)
	}
	l.Info("image_uploaded", "url", url, "bytes", len(data))
	return c.JSON(http.StatusCreated, UploadResponse{URL: url})
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	page, size := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	total, orders, err := h.Orders.List(c.Request().Context(), page, size)
	if err != nil {
		return h.Fail(c, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ListResponse[models.Order]{
		Total: total,
		Page:  page,
		Size:  size,
		Items: orders,
	})
}

func (h *AdminHTTP) Order(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.Reject(c, "get_order_failed", http.StatusBadRequest, "invalid_body")
	}
	o, err := h.Orders.Get(c.Request().Context(), id)
	if err != nil {
		return h.Fail(c, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) UpdateOrderStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.Reject(c, "update_order_status_failed", http.StatusBadRequest, "invalid_body")
	}
	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return h.Reject(c, "update_order_status_failed", http.StatusBadRequest, "invalid_body")
	}
	o, err := h.Orders.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.Fail(c, "update_order_status_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) DeleteOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.Reject(c, "delete_order_failed", http.StatusBadRequest, "invalid_body")
	}
	if err := h.Orders.Delete(c.Request().Context(), id); err != nil {
		return h.Fail(c, "delete_order_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
