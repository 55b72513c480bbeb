package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/balkan_kitchen/internal/apperr"
	"github.com/Skotchmaster/balkan_kitchen/internal/catalog"
	"github.com/Skotchmaster/balkan_kitchen/internal/events"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
	"github.com/Skotchmaster/balkan_kitchen/internal/search"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
)

const (
	CodeMissingTitle    = "missing_title"
	CodeInvalidPrice    = "invalid_price"
	CodeNegativeValue   = "negative_value"
	CodeCategoryCycle   = "category_cycle"
	CodeUnknownCategory = "unknown_category"
	CodeUnknownParent   = "unknown_parent"
	CodeInvalidClear    = "invalid_clear"
)

// CatalogService serves reads from the cached snapshot and writes through
// the repository, staging each write in the snapshot until the store
// answers.
type CatalogService struct {
	Repo     *repo.GormRepo
	Snapshot *catalog.Snapshot
	Events   events.Publisher
	Search   *search.MenuIndex
	Timeout  time.Duration
}

func NewCatalogService(r *repo.GormRepo, pub events.Publisher, idx *search.MenuIndex, timeout time.Duration) *CatalogService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &CatalogService{
		Repo:     r,
		Snapshot: catalog.NewSnapshot(),
		Events:   pub,
		Search:   idx,
		Timeout:  timeout,
	}
}

// Refresh reloads the whole catalog from the store.
func (s *CatalogService) Refresh(ctx context.Context) error {
	ctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return apperr.Classify(fmt.Errorf("list categories: %w", err))
	}
	items, err := s.Repo.ListMenuItems(ctx)
	if err != nil {
		return apperr.Classify(fmt.Errorf("list menu items: %w", err))
	}
	s.Snapshot.Replace(cats, items)
	return nil
}

// Reindex pushes every cached menu item to the search index.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if s.Search == nil {
		return search.ErrDisabled
	}
	if err := s.Search.EnsureIndex(ctx); err != nil {
		return err
	}
	return s.Search.Reindex(ctx, s.Snapshot.Items())
}

func (s *CatalogService) Categories() []models.Category { return s.Snapshot.Categories() }

func (s *CatalogService) Tree() *catalog.Tree { return s.Snapshot.Tree() }

// Items applies f to the cached menu.
func (s *CatalogService) Items(f catalog.Filter) []models.MenuItem {
	return f.Apply(s.Snapshot.Tree(), s.Snapshot.Items())
}

// MenuItem reads one item from the store so carts always snapshot the
// current price.
func (s *CatalogService) MenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	ctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	it, err := s.Repo.GetMenuItem(ctx, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return it, nil
}

func (s *CatalogService) SearchItems(ctx context.Context, q string, from, size int) (int64, []models.MenuItem, error) {
	if s.Search == nil {
		return 0, nil, search.ErrDisabled
	}
	return s.Search.Search(ctx, q, true, from, size)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_category")

	cat := models.Category{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
		ParentID:     req.ParentID,
	}
	if err := s.validateCategory(cat); err != nil {
		return nil, err
	}

	p := s.Snapshot.Stage(catalog.Change{Op: catalog.OpUpsertCategory, Category: cat})
	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	stored, err := s.Repo.CreateCategory(sctx, &cat)
	if err != nil {
		_ = p.Rollback()
		l.Warn("create_category_failed", "error", err)
		return nil, apperr.Classify(err)
	}
	_ = p.Commit(stored)

	s.publish(ctx, events.MenuEvent{Type: events.CategoryCreated, ID: stored.ID, Category: stored})
	return stored, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req transport.PatchCategoryRequest) (*models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_category", "id", id)

	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	cur, err := s.Repo.GetCategory(sctx, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	cat := *cur
	if req.Name != nil {
		cat.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		cat.Description = strings.TrimSpace(*req.Description)
	}
	if req.Icon != nil {
		cat.Icon = req.Icon
	}
	if req.DisplayOrder != nil {
		cat.DisplayOrder = *req.DisplayOrder
	}
	if req.ParentID != nil {
		cat.ParentID = req.ParentID
	}
	for _, f := range req.Clear {
		switch f {
		case "icon":
			cat.Icon = nil
		case "parent_id":
			cat.ParentID = nil
		default:
			return nil, apperr.New(apperr.KindValidation, CodeInvalidClear, fmt.Errorf("cannot clear %q", f))
		}
	}

	if err := s.validateCategory(cat); err != nil {
		return nil, err
	}
	if cat.ParentID != nil && s.Snapshot.Tree().WouldCycle(id, *cat.ParentID) {
		return nil, apperr.Validation(CodeCategoryCycle)
	}

	p := s.Snapshot.Stage(catalog.Change{Op: catalog.OpUpsertCategory, Category: cat})
	stored, err := s.Repo.SaveCategory(sctx, &cat)
	if err != nil {
		_ = p.Rollback()
		l.Warn("update_category_failed", "error", err)
		return nil, apperr.Classify(err)
	}
	_ = p.Commit(stored)

	s.publish(ctx, events.MenuEvent{Type: events.CategoryUpdated, ID: stored.ID, Category: stored})
	return stored, nil
}

// DeleteCategory removes the category with all of its menu items and
// returns how many items went with it. Subcategories move up one level.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_category", "id", id)

	var doomed []uint
	for _, it := range s.Snapshot.Items() {
		if it.CategoryID == id {
			doomed = append(doomed, it.ID)
		}
	}

	p := s.Snapshot.Stage(catalog.Change{Op: catalog.OpDeleteCategory, ID: id})
	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	n, err := s.Repo.DeleteCategory(sctx, id)
	if err != nil {
		_ = p.Rollback()
		l.Warn("delete_category_failed", "error", err)
		return 0, apperr.Classify(err)
	}
	_ = p.Commit(nil)

	// children were re-parented in the store
	if err := s.Refresh(ctx); err != nil {
		l.Warn("catalog_refresh_failed", "error", err)
	}

	for _, itemID := range doomed {
		s.unindex(ctx, itemID)
	}
	s.publish(ctx, events.MenuEvent{Type: events.CategoryDeleted, ID: id})
	l.Info("category_deleted", "items", n)
	return n, nil
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, req transport.CreateMenuItemRequest) (*models.MenuItem, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_item")

	item := models.MenuItem{
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Price:           req.Price,
		CategoryID:      req.CategoryID,
		ImageURL:        req.ImageURL,
		IsAvailable:     true,
		IsPopular:       req.IsPopular,
		IsVegetarian:    req.IsVegetarian,
		IsSpicy:         req.IsSpicy,
		Allergens:       req.Allergens,
		Rating:          req.Rating,
		PreparationTime: req.PreparationTime,
		Calories:        req.Calories,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.validateItem(sctx, item); err != nil {
		return nil, err
	}

	p := s.Snapshot.Stage(catalog.Change{Op: catalog.OpUpsertItem, Item: item})
	stored, err := s.Repo.CreateMenuItem(sctx, &item)
	if err != nil {
		_ = p.Rollback()
		l.Warn("create_item_failed", "error", err)
		return nil, apperr.Classify(err)
	}
	_ = p.Commit(stored)

	s.index(ctx, *stored)
	s.publish(ctx, events.MenuEvent{Type: events.ItemCreated, ID: stored.ID, Item: stored})
	return stored, nil
}

func (s *CatalogService) UpdateMenuItem(ctx context.Context, id uint, req transport.PatchMenuItemRequest) (*models.MenuItem, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update_item", "id", id)

	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	cur, err := s.Repo.GetMenuItem(sctx, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}

	item := *cur
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	if req.ImageURL != nil {
		item.ImageURL = req.ImageURL
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.IsPopular != nil {
		item.IsPopular = *req.IsPopular
	}
	if req.IsVegetarian != nil {
		item.IsVegetarian = *req.IsVegetarian
	}
	if req.IsSpicy != nil {
		item.IsSpicy = *req.IsSpicy
	}
	if req.Allergens != nil {
		item.Allergens = req.Allergens
	}
	if req.Rating != nil {
		item.Rating = req.Rating
	}
	if req.PreparationTime != nil {
		item.PreparationTime = req.PreparationTime
	}
	if req.Calories != nil {
		item.Calories = req.Calories
	}
	for _, f := range req.Clear {
		switch f {
		case "image_url":
			item.ImageURL = nil
		case "rating":
			item.Rating = nil
		case "preparation_time":
			item.PreparationTime = nil
		case "calories":
			item.Calories = nil
		case "allergens":
			item.Allergens = nil
		default:
			return nil, apperr.New(apperr.KindValidation, CodeInvalidClear, fmt.Errorf("cannot clear %q", f))
		}
	}

	if err := s.validateItem(sctx, item); err != nil {
		return nil, err
	}

	p := s.Snapshot.Stage(catalog.Change{Op: catalog.OpUpsertItem, Item: item})
	stored, err := s.Repo.SaveMenuItem(sctx, &item)
	if err != nil {
		_ = p.Rollback()
		l.Warn("update_item_failed", "error", err)
		return nil, apperr.Classify(err)
	}
	_ = p.Commit(stored)

	s.index(ctx, *stored)
	s.publish(ctx, events.MenuEvent{Type: events.ItemUpdated, ID: stored.ID, Item: stored})
	return stored, nil
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_item", "id", id)

	p := s.Snapshot.Stage(catalog.Change{Op: catalog.OpDeleteItem, ID: id})
	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.Repo.DeleteMenuItem(sctx, id); err != nil {
		_ = p.Rollback()
		l.Warn("delete_item_failed", "error", err)
		return apperr.Classify(err)
	}
	_ = p.Commit(nil)

	s.unindex(ctx, id)
	s.publish(ctx, events.MenuEvent{Type: events.ItemDeleted, ID: id})
	return nil
}

func (s *CatalogService) validateCategory(cat models.Category) error {
	if cat.Name == "" {
		return apperr.Validation(CodeMissingTitle)
	}
	if cat.ParentID != nil {
		if _, ok := s.Snapshot.Tree().Get(*cat.ParentID); !ok {
			return apperr.New(apperr.KindReference, CodeUnknownParent, fmt.Errorf("parent %d", *cat.ParentID))
		}
	}
	return nil
}

func (s *CatalogService) validateItem(ctx context.Context, item models.MenuItem) error {
	if item.Name == "" {
		return apperr.Validation(CodeMissingTitle)
	}
	if item.Price.LessThan(decimal.Zero) {
		return apperr.Validation(CodeInvalidPrice)
	}
	if (item.Calories != nil && *item.Calories < 0) ||
		(item.PreparationTime != nil && *item.PreparationTime < 0) ||
		(item.Rating != nil && *item.Rating < 0) {
		return apperr.Validation(CodeNegativeValue)
	}
	ok, err := s.Repo.CategoryExists(ctx, item.CategoryID)
	if err != nil {
		return apperr.Classify(err)
	}
	if !ok {
		return apperr.New(apperr.KindReference, CodeUnknownCategory, fmt.Errorf("category %d", item.CategoryID))
	}
	return nil
}

func (s *CatalogService) publish(ctx context.Context, ev events.MenuEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	key := fmt.Sprintf("%s:%d", ev.Type, ev.ID)
	if err := s.Events.PublishEvent(ctx, events.TopicMenuEvents, key, ev); err != nil {
		logging.FromContext(ctx).Warn("menu_event_publish_failed", "type", ev.Type, "id", ev.ID, "error", err)
	}
}

func (s *CatalogService) index(ctx context.Context, item models.MenuItem) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexItem(ctx, item); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "id", item.ID, "error", err)
	}
}

func (s *CatalogService) unindex(ctx context.Context, id uint) {
	if s.Search == nil {
		return
	}
	if err := s.Search.DeleteItem(ctx, id); err != nil && !errors.Is(err, search.ErrDisabled) {
		logging.FromContext(ctx).Warn("search_delete_failed", "id", id, "error", err)
	}
}
