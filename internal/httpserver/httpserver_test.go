package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/balkan_kitchen/internal/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/cart"
	"github.com/Skotchmaster/balkan_kitchen/internal/checkout"
	"github.com/Skotchmaster/balkan_kitchen/internal/db/dbtest"
	"github.com/Skotchmaster/balkan_kitchen/internal/feed"
	"github.com/Skotchmaster/balkan_kitchen/internal/i18n"
	authmw "github.com/Skotchmaster/balkan_kitchen/internal/middleware/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
	"github.com/Skotchmaster/balkan_kitchen/internal/service"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
)

type testEnv struct {
	T       *testing.T
	E       *echo.Echo
	Repo    *repo.GormRepo
	Auth    *auth.Service
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Hub     *feed.Hub
	Board   *feed.Board
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := repo.New(dbtest.Open(t))
	authSvc := auth.NewService(r, []byte("access"), []byte("refresh"))
	catSvc := service.NewCatalogService(r, nil, nil, time.Second)
	orderSvc := service.NewOrderService(r, nil, time.Second)

	hub := feed.NewHub(16, nil)
	board := feed.NewBoard()
	orderSvc.Feed = hub
	ctx, cancel := context.WithCancel(context.Background())
	go board.Follow(ctx, hub)
	t.Cleanup(func() {
		cancel()
		hub.Close()
	})

	carts := cart.NewRegistry(100, time.Hour)
	loc := Localizer{T: i18n.New("no")}

	e := echo.New()
	Register(e, &Deps{
		DB:       r,
		Auth:     authmw.NewAutoRefreshMiddleware(authSvc),
		Catalog:  &CatalogHTTP{Svc: catSvc, Localizer: loc},
		Cart:     &CartHTTP{Carts: carts, Catalog: catSvc, TTL: time.Hour, Localizer: loc},
		Checkout: &CheckoutHTTP{Carts: carts, Submitter: &checkout.Submitter{Orders: orderSvc}, Localizer: loc},
		AuthHTTP: &AuthHTTP{Svc: authSvc, Localizer: loc},
		Admin:    &AdminHTTP{Catalog: catSvc, Orders: orderSvc, Localizer: loc},
		OrderFeed: &OrderFeedHTTP{
			Hub:   hub,
			Board: board,
		},
	})

	return &testEnv{T: t, E: e, Repo: r, Auth: authSvc, Catalog: catSvc, Orders: orderSvc, Hub: hub, Board: board}
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Accept-Language", "en")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// seedMenu creates Mains > Grill with a kebab and a salad directly in Mains.
func (env *testEnv) seedMenu() (mains, grill, kebab, salad uint) {
	t := env.T
	t.Helper()
	ctx := context.Background()

	m, err := env.Catalog.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Mains"})
	require.NoError(t, err)
	g, err := env.Catalog.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Grill", ParentID: &m.ID})
	require.NoError(t, err)
	cal := 900
	k, err := env.Catalog.CreateMenuItem(ctx, transport.CreateMenuItemRequest{
		Name: "Kebab", Price: decimal.RequireFromString("149"), CategoryID: g.ID, IsSpicy: true, Calories: &cal,
	})
	require.NoError(t, err)
	s, err := env.Catalog.CreateMenuItem(ctx, transport.CreateMenuItemRequest{
		Name: "Shopska salad", Price: decimal.RequireFromString("89.50"), CategoryID: m.ID, IsVegetarian: true,
	})
	require.NoError(t, err)
	return m.ID, g.ID, k.ID, s.ID
}

func (env *testEnv) loginAdmin() []*http.Cookie {
	t := env.T
	t.Helper()
	_, err := env.Auth.EnsureAdmin(context.Background(), "admin", "pw")
	require.NoError(t, err)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", transport.LoginRequest{Username: "admin", Password: "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := cookieNamed(rec, auth.AccessCookie)
	refresh := cookieNamed(rec, auth.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return []*http.Cookie{access, refresh}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/ready", nil).Code)
}

func TestCategories_Tree(t *testing.T) {
	env := newTestEnv(t)
	mains, grill, _, _ := env.seedMenu()

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/catalog/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nodes := decode[[]transport.CategoryNode](t, rec)
	require.Len(t, nodes, 2)

	byID := map[uint]transport.CategoryNode{}
	for _, n := range nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, []uint{grill}, byID[mains].ChildIDs)
	assert.Equal(t, 0, byID[mains].Depth)
	assert.Equal(t, 1, byID[grill].Depth)
	assert.Equal(t, []string{"Mains", "Grill"}, byID[grill].Path)
}

func TestItems_Filter(t *testing.T) {
	env := newTestEnv(t)
	mains, grill, kebab, salad := env.seedMenu()

	ids := func(path string) []uint {
		rec := env.doJSONRequest(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out []uint
		for _, it := range decode[[]models.MenuItem](t, rec) {
			out = append(out, it.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []uint{kebab, salad}, ids("/api/v1/catalog/items"))
	assert.ElementsMatch(t, []uint{kebab, salad}, ids("/api/v1/catalog/items?scope="+itoa(mains)))
	assert.Equal(t, []uint{kebab}, ids("/api/v1/catalog/items?scope="+itoa(grill)))
	assert.Equal(t, []uint{salad}, ids("/api/v1/catalog/items?scope=vegetarian"))
	assert.Equal(t, []uint{kebab}, ids("/api/v1/catalog/items?q=KEB"))
	assert.Equal(t, []uint{salad}, ids("/api/v1/catalog/items?max_calories=500"))
	assert.Empty(t, ids("/api/v1/catalog/items?max_calories=500&strict=true"))

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/catalog/items?scope=desserts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_scope", decode[ErrorBody](t, rec).Code)
}

func TestSearch_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rec := env.doJSONRequest(http.MethodGet, "/api/v1/catalog/items/search?q=kebab", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Search is not available", decode[ErrorBody](t, rec).Message)
}

func TestCart_Flow(t *testing.T) {
	env := newTestEnv(t)
	_, _, kebab, salad := env.seedMenu()

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MenuItemID: kebab})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := cookieNamed(rec, SessionCookie)
	require.NotNil(t, session)
	view := decode[transport.CartView](t, rec)
	assert.Equal(t, "Kebab added to cart", view.Message)

	hot := cart.SpicyHot
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/cart/items",
		transport.AddCartItemRequest{MenuItemID: kebab, Options: cart.Options{SpicyLevel: &hot}}, session)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MenuItemID: salad}, session)
	require.Equal(t, http.StatusCreated, rec.Code)

	view = decode[transport.CartView](t, rec)
	require.Len(t, view.Items, 3)
	assert.Equal(t, 3, view.TotalItems)
	assert.True(t, view.TotalPrice.Equal(decimal.RequireFromString("387.50")), view.TotalPrice.String())

	first := view.Items[0].LineID.String()
	rec = env.doJSONRequest(http.MethodPatch, "/api/v1/cart/items/"+first, map[string]any{"quantity": 3}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[transport.CartView](t, rec)
	assert.Equal(t, 5, view.TotalItems)

	rec = env.doJSONRequest(http.MethodPatch, "/api/v1/cart/items/"+first, map[string]any{"quantity": 1.5}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_quantity", decode[ErrorBody](t, rec).Code)

	extra := cart.SauceExtra
	rec = env.doJSONRequest(http.MethodPut, "/api/v1/cart/items/"+first+"/options",
		cart.Options{KebabSauceLevel: &extra}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[transport.CartView](t, rec)
	assert.Equal(t, first, view.Items[0].LineID.String())
	require.NotNil(t, view.Items[0].KebabSauceLevel)

	bogus := cart.SpicyLevel("nuclear")
	rec = env.doJSONRequest(http.MethodPut, "/api/v1/cart/items/"+first+"/options",
		cart.Options{SpicyLevel: &bogus}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSONRequest(http.MethodPatch, "/api/v1/cart/items/"+first, map[string]any{"quantity": 0}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[transport.CartView](t, rec)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, "Removed from cart", view.Message)

	rec = env.doJSONRequest(http.MethodDelete, "/api/v1/cart/items/"+view.Items[0].LineID.String(), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[transport.CartView](t, rec).Items, 1)

	rec = env.doJSONRequest(http.MethodDelete, "/api/v1/cart", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[transport.CartView](t, rec).Items)
}

func TestCart_UnknownItem(t *testing.T) {
	env := newTestEnv(t)
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MenuItemID: 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	_, _, kebab, _ := env.seedMenu()

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/checkout", checkout.Request{CustomerName: "Ana", CustomerPhone: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorBody](t, rec).Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MenuItemID: kebab})
	session := cookieNamed(rec, SessionCookie)
	env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MenuItemID: kebab}, session)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/checkout", checkout.Request{CustomerPhone: "123"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_name", decode[ErrorBody](t, rec).Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/checkout",
		checkout.Request{CustomerName: "Ana", CustomerPhone: "123", PaymentMethod: "vipps", Notes: "  ring the bell "}, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[CheckoutResponse](t, rec)
	assert.Equal(t, "Order received!", resp.Message)
	assert.True(t, resp.Order.TotalAmount.Equal(decimal.RequireFromString("298")))
	assert.Equal(t, models.PaymentVipps, resp.Order.PaymentMethod)
	require.NotNil(t, resp.Order.Notes)
	assert.Equal(t, "ring the bell", *resp.Order.Notes)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/cart", nil, session)
	assert.Empty(t, decode[transport.CartView](t, rec).Items)

	require.Eventually(t, func() bool { return len(env.Board.Orders()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestAuth_LoginMeLogout(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.loginAdmin()

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/auth/me", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[SessionResponse](t, rec)
	assert.Equal(t, "admin", me.Username)
	assert.True(t, me.IsAdmin)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", transport.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[ErrorBody](t, rec).Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/auth/refresh", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := cookieNamed(rec, auth.RefreshCookie)
	require.NotNil(t, rotated)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/auth/logout", nil, rotated)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/auth/refresh", nil, rotated)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.CreateAccessToken(env.Auth.AccessSecret, "u1", models.RoleUser, time.Now().Add(time.Minute))
	require.NoError(t, err)
	rec = env.doJSONRequest(http.MethodGet, "/api/v1/admin/orders", nil, &http.Cookie{Name: auth.AccessCookie, Value: tok})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_CatalogCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.loginAdmin()
	mains, grill, kebab, _ := env.seedMenu()

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/admin/categories",
		transport.CreateCategoryRequest{Name: "Desserts", DisplayOrder: 3}, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.doJSONRequest(http.MethodPatch, "/api/v1/admin/categories/"+itoa(mains),
		transport.PatchCategoryRequest{ParentID: &grill}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category_cycle", decode[ErrorBody](t, rec).Code)

	unavailable := false
	rec = env.doJSONRequest(http.MethodPatch, "/api/v1/admin/items/"+itoa(kebab),
		transport.PatchMenuItemRequest{IsAvailable: &unavailable}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/catalog/items?scope="+itoa(grill), nil)
	assert.Empty(t, decode[[]models.MenuItem](t, rec))
	rec = env.doJSONRequest(http.MethodGet, "/api/v1/admin/items?scope="+itoa(grill), nil, cookies...)
	assert.Len(t, decode[[]models.MenuItem](t, rec), 1)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/cart/items", transport.AddCartItemRequest{MenuItemID: kebab})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/admin/items",
		transport.CreateMenuItemRequest{Name: "Ghost", Price: decimal.NewFromInt(1), CategoryID: 999}, cookies...)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "unknown_category", decode[ErrorBody](t, rec).Code)

	rec = env.doJSONRequest(http.MethodDelete, "/api/v1/admin/categories/"+itoa(grill), nil, cookies...)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = env.doJSONRequest(http.MethodDelete, "/api/v1/admin/categories/"+itoa(grill)+"?confirm=true", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Category deleted (1 menu items removed)", decode[transport.MessageResponse](t, rec).Message)

	rec = env.doJSONRequest(http.MethodDelete, "/api/v1/admin/items/"+itoa(kebab), nil, cookies...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_UploadDisabled(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.loginAdmin()
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/admin/uploads", nil, cookies...)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdmin_Orders(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.loginAdmin()
	ctx := context.Background()

	o, err := env.Orders.CreateOrder(ctx, &models.Order{
		CustomerName:  "Ana",
		CustomerPhone: "123",
		Items:         []models.OrderLine{{ID: 1, Name: "Kebab", Price: decimal.NewFromInt(149), Quantity: 1}},
		TotalAmount:   decimal.NewFromInt(149),
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/admin/orders?page=1&size=10", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[transport.ListResponse[models.Order]](t, rec)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)

	path := "/api/v1/admin/orders/" + o.ID.String()
	rec = env.doJSONRequest(http.MethodPatch, path+"/status", transport.UpdateOrderStatusRequest{Status: "delivered"}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decode[ErrorBody](t, rec).Code)

	rec = env.doJSONRequest(http.MethodPatch, path+"/status", transport.UpdateOrderStatusRequest{Status: "preparing"}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPreparing, decode[models.Order](t, rec).Status)

	rec = env.doJSONRequest(http.MethodDelete, path, nil, cookies...)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.doJSONRequest(http.MethodGet, path, nil, cookies...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderFeed_WebSocket(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.loginAdmin()

	srv := httptest.NewServer(env.E)
	defer srv.Close()

	hdr := http.Header{}
	for _, ck := range cookies {
		hdr.Add("Cookie", ck.Name+"="+ck.Value)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/admin/orders/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	var snap FeedMessage
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "snapshot", snap.Type)
	assert.Empty(t, snap.Orders)

	require.Eventually(t, func() bool { return env.Hub.Subscribers() >= 2 }, time.Second, 10*time.Millisecond)

	o, err := env.Orders.CreateOrder(context.Background(), &models.Order{
		CustomerName:  "Ana",
		CustomerPhone: "123",
		Items:         []models.OrderLine{{ID: 1, Name: "Kebab", Price: decimal.NewFromInt(149), Quantity: 1}},
		TotalAmount:   decimal.NewFromInt(149),
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, string(feed.EventInsert), msg.Type)
	require.NotNil(t, msg.Order)
	assert.Equal(t, o.ID, msg.Order.ID)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
