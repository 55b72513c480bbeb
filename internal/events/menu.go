package events

import (
	"time"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

type MenuEventType string

const (
	CategoryCreated MenuEventType = "category_created"
	CategoryUpdated MenuEventType = "category_updated"
	CategoryDeleted MenuEventType = "category_deleted"
	ItemCreated     MenuEventType = "item_created"
	ItemUpdated     MenuEventType = "item_updated"
	ItemDeleted     MenuEventType = "item_deleted"
)

// MenuEvent is published on TopicMenuEvents after a catalog write.
type MenuEvent struct {
	Type     MenuEventType    `json:"type"`
	ID       uint             `json:"id"`
	Category *models.Category `json:"category,omitempty"`
	Item     *models.MenuItem `json:"item,omitempty"`
	At       time.Time        `json:"at"`
}
