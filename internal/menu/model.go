package menu

import (
	"time"

	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const (
	ItemsTable       = "menu_items"
	IngredientsTable = "menu_item_ingredients"
)

type Category string

const (
	CategoryAppetizer Category = "appetizer"
	CategoryMain      Category = "main"
	CategoryDessert   Category = "dessert"
	CategoryDrink     Category = "drink"
	CategorySide      Category = "side"
)

// Locales are the languages every menu text is kept in.
var Locales = []string{"en", "ru", "kk"}

type LocalizedText struct {
	En string `json:"en"`
	Ru string `json:"ru"`
	Kk string `json:"kk"`
}

type MenuItem struct {
	ID          string         `json:"id"`
	Name        LocalizedText  `json:"name"`
	Description *LocalizedText `json:"description,omitempty"`
	Category    Category       `json:"category"`
	Price       float64        `json:"price"`
	Cost        *float64       `json:"cost,omitempty"`
	ImageURL    *string        `json:"imageUrl,omitempty"`
	IsAvailable bool           `json:"isAvailable"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

// Summary is a menu item as embedded in orders.
type Summary struct {
	ID       string        `json:"id"`
	Name     LocalizedText `json:"name"`
	Category Category      `json:"category"`
	Price    float64       `json:"price"`
}

type Ingredient struct {
	ID              string         `json:"id"`
	MenuItemID      string         `json:"menuItemId"`
	InventoryItemID string         `json:"inventoryItemId"`
	Quantity        float64        `json:"quantity"`
	InventoryItem   *inventory.Ref `json:"inventoryItem"`
}

func localized(r store.Row, prefix string) LocalizedText {
	return LocalizedText{
		En: r.String(prefix + "_en"),
		Ru: r.String(prefix + "_ru"),
		Kk: r.String(prefix + "_kk"),
	}
}

func FromRow(r store.Row) MenuItem {
	item := MenuItem{
		ID:          r.String("id"),
		Name:        localized(r, "name"),
		Category:    Category(r.String("category")),
		Price:       r.Float("price"),
		Cost:        r.FloatPtr("cost"),
		ImageURL:    r.StringPtr("image_url"),
		IsAvailable: r.Bool("is_available"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.TimePtr("updated_at"),
	}
	for _, loc := range Locales {
		if r.Has("description_" + loc) {
			d := localized(r, "description")
			item.Description = &d
			break
		}
	}
	return item
}

// SummaryFromRow returns nil for a missing menu item row.
func SummaryFromRow(r store.Row) *Summary {
	if r == nil {
		return nil
	}
	return &Summary{
		ID:       r.String("id"),
		Name:     localized(r, "name"),
		Category: Category(r.String("category")),
		Price:    r.Float("price"),
	}
}

func IngredientFromRow(r store.Row, item store.Row) Ingredient {
	return Ingredient{
		ID:              r.String("id"),
		MenuItemID:      r.String("menu_item_id"),
		InventoryItemID: r.String("inventory_item_id"),
		Quantity:        r.Float("quantity"),
		InventoryItem:   inventory.RefFromRow(item),
	}
}
