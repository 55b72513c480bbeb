package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name         string  `gorm:"not null"                  json:"name"`
	Description  string  `gorm:"not null"                 json:"description,omitempty"`
	Icon         *string `                                 json:"icon,omitempty"`
	DisplayOrder int     `gorm:"not null;default:0;index"  json:"display_order"`
	ParentID     *uint   `gorm:"index"                     json:"parent_id"`
}

func (Category) TableName() string {
	return "categories"
}

type MenuItem struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name            string          `gorm:"not null;index"                  json:"name"`
	Description     string          `gorm:"not null"                       json:"description"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null"     json:"price"`
	CategoryID      uint            `gorm:"not null;index"                  json:"category_id"`
	ImageURL        *string         `                                       json:"image_url,omitempty"`
	IsAvailable     bool            `gorm:"not null"                        json:"is_available"`
	IsPopular       bool            `gorm:"not null"                        json:"is_popular"`
	IsVegetarian    bool            `gorm:"not null"                        json:"is_vegetarian"`
	IsSpicy         bool            `gorm:"not null"                        json:"is_spicy"`
	Allergens       []string        `gorm:"type:jsonb;serializer:json"      json:"allergens,omitempty"`
	Rating          *float64        `                                       json:"rating,omitempty"`
	PreparationTime *int            `                                       json:"preparation_time,omitempty"`
	Calories        *int            `                                       json:"calories,omitempty"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

// OrderLine is the purchase-time copy of a menu item. Later edits of the
// menu item never touch it.
type OrderLine struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"              json:"id"`
	CustomerName  string          `gorm:"not null"                          json:"customer_name"`
	CustomerPhone string          `gorm:"not null"                          json:"customer_phone"`
	Items         []OrderLine     `gorm:"type:jsonb;serializer:json;not null" json:"items"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(10,2);not null"       json:"total_amount"`
	Status        OrderStatus     `gorm:"not null;default:pending;index"    json:"status"`
	PaymentMethod PaymentMethod   `gorm:"not null;default:cash"             json:"payment_method"`
	Notes         *string         `                                         json:"notes,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;index"                    json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null"                          json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"  json:"username"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	Role         string    `gorm:"not null;default:user" json:"role"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"-"`
	UserID    uuid.UUID `gorm:"index;not null"  json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64     `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `gorm:"default:false"   json:"revoked"`
}

// All lists every table the service migrates.
func All() []any {
	return []any{&Category{}, &MenuItem{}, &Order{}, &User{}, &RefreshToken{}}
}
