package transport

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/balkan_kitchen/internal/cart"
)

type CreateCategoryRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Icon         *string `json:"icon"`
	DisplayOrder int     `json:"display_order"`
	ParentID     *uint   `json:"parent_id"`
}

// PatchCategoryRequest updates only the non-nil fields. Clear names
// nullable fields to reset ("icon", "parent_id").
type PatchCategoryRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Icon         *string  `json:"icon"`
	DisplayOrder *int     `json:"display_order"`
	ParentID     *uint    `json:"parent_id"`
	Clear        []string `json:"clear"`
}

type CreateMenuItemRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	CategoryID      uint            `json:"category_id"`
	ImageURL        *string         `json:"image_url"`
	IsAvailable     *bool           `json:"is_available"`
	IsPopular       bool            `json:"is_popular"`
	IsVegetarian    bool            `json:"is_vegetarian"`
	IsSpicy         bool            `json:"is_spicy"`
	Allergens       []string        `json:"allergens"`
	Rating          *float64        `json:"rating"`
	PreparationTime *int            `json:"preparation_time"`
	Calories        *int            `json:"calories"`
}

// PatchMenuItemRequest: Clear accepts "image_url", "rating",
// "preparation_time", "calories" and "allergens".
type PatchMenuItemRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	CategoryID      *uint            `json:"category_id"`
	ImageURL        *string          `json:"image_url"`
	IsAvailable     *bool            `json:"is_available"`
	IsPopular       *bool            `json:"is_popular"`
	IsVegetarian    *bool            `json:"is_vegetarian"`
	IsSpicy         *bool            `json:"is_spicy"`
	Allergens       []string         `json:"allergens"`
	Rating          *float64         `json:"rating"`
	PreparationTime *int             `json:"preparation_time"`
	Calories        *int             `json:"calories"`
	Clear           []string         `json:"clear"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type AddCartItemRequest struct {
	MenuItemID uint `json:"menu_item_id"`
	cart.Options
}

// UpdateQuantityRequest keeps the raw JSON number so fractions can be
// rejected instead of truncated.
type UpdateQuantityRequest struct {
	Quantity json.Number `json:"quantity"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CartView struct {
	Items      []cart.LineItem `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Message    string          `json:"message,omitempty"`
}

func NewCartView(s *cart.Store, msg string) CartView {
	return CartView{
		Items:      s.Items(),
		TotalItems: s.TotalItems(),
		TotalPrice: s.TotalPrice(),
		Message:    msg,
	}
}

type CategoryNode struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Icon         *string  `json:"icon,omitempty"`
	DisplayOrder int      `json:"display_order"`
	ParentID     *uint    `json:"parent_id"`
	Depth        int      `json:"depth"`
	ChildIDs     []uint   `json:"child_ids"`
	Path         []string `json:"path"`
}

type ListResponse[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Items []T   `json:"items"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
