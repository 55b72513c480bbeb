package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/balkan_kitchen/internal/catalog"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/service"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
	"github.com/Skotchmaster/balkan_kitchen/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
	Localizer
}

// Categories returns every category with its position in the tree.
func (h *CatalogHTTP) Categories(c echo.Context) error {
	tree := h.Svc.Tree()
	cats := h.Svc.Categories()

	out := make([]transport.CategoryNode, 0, len(cats))
	for _, cat := range cats {
		node := transport.CategoryNode{
			ID:           cat.ID,
			Name:         cat.Name,
			Description:  cat.Description,
			Icon:         cat.Icon,
			DisplayOrder: cat.DisplayOrder,
			ParentID:     cat.ParentID,
			Depth:        tree.Depth(cat.ID),
			ChildIDs:     []uint{},
		}
		for _, ch := range tree.Children(cat.ID) {
			node.ChildIDs = append(node.ChildIDs, ch.ID)
		}
		for _, p := range tree.Path(cat.ID) {
			node.Path = append(node.Path, p.Name)
		}
		out = append(out, node)
	}
	return c.JSON(http.StatusOK, out)
}

// Items lists available menu items. Query: scope (all, a special tag or a
// category id), max_calories, max_prep, q, strict.
func (h *CatalogHTTP) Items(c echo.Context) error {
	scope, err := catalog.ParseScope(c.QueryParam("scope"))
	if err != nil {
		return h.Reject(c, "list_items_failed", http.StatusBadRequest, "invalid_scope")
	}

	f := catalog.Filter{
		Scope:             scope,
		Query:             c.QueryParam("q"),
		ExcludeUndeclared: c.QueryParam("strict") == "true",
		AvailableOnly:     true,
	}
	if f.MaxCalories, err = optionalInt(c.QueryParam("max_calories")); err != nil {
		return h.Reject(c, "list_items_failed", http.StatusBadRequest, "validation")
	}
	if f.MaxPrepMinutes, err = optionalInt(c.QueryParam("max_prep")); err != nil {
		return h.Reject(c, "list_items_failed", http.StatusBadRequest, "validation")
	}

	return c.JSON(http.StatusOK, h.Svc.Items(f))
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	q := strings.TrimSpace(c.QueryParam("q"))
	page, size := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchItems(ctx, q, from, limit)
	if err != nil {
		return h.Fail(c, "search_items_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ListResponse[models.MenuItem]{
		Total: total,
		Page:  page,
		Size:  limit,
		Items: items,
	})
}

func optionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
