package menu

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

type NameInput struct {
	En string `json:"en" validate:"required,max=200"`
	Ru string `json:"ru" validate:"required,max=200"`
	Kk string `json:"kk" validate:"required,max=200"`
}

type DescriptionInput struct {
	En *string `json:"en" validate:"omitempty,max=1000"`
	Ru *string `json:"ru" validate:"omitempty,max=1000"`
	Kk *string `json:"kk" validate:"omitempty,max=1000"`
}

type GetAllInput struct {
	Category      *Category `json:"category" validate:"omitempty,oneof=appetizer main dessert drink side"`
	AvailableOnly bool      `json:"availableOnly"`
}

type CreateInput struct {
	Name        NameInput         `json:"name"`
	Description *DescriptionInput `json:"description"`
	Category    Category          `json:"category" validate:"required,oneof=appetizer main dessert drink side"`
	Price       *float64          `json:"price" validate:"required,gte=0"`
	Cost        *float64          `json:"cost" validate:"omitempty,gte=0"`
	ImageURL    *string           `json:"imageUrl" validate:"omitempty,url"`
	IsAvailable *bool             `json:"isAvailable"`
}

type NamePatch struct {
	En rpc.Optional[string] `json:"en" validate:"omitempty,max=200"`
	Ru rpc.Optional[string] `json:"ru" validate:"omitempty,max=200"`
	Kk rpc.Optional[string] `json:"kk" validate:"omitempty,max=200"`
}

type TextPatch struct {
	En rpc.Optional[string] `json:"en" validate:"omitempty,max=1000"`
	Ru rpc.Optional[string] `json:"ru" validate:"omitempty,max=1000"`
	Kk rpc.Optional[string] `json:"kk" validate:"omitempty,max=1000"`
}

type UpdateInput struct {
	ID          string                `json:"id" validate:"required,uuid"`
	Name        *NamePatch            `json:"name"`
	Description *TextPatch            `json:"description"`
	Category    rpc.Optional[string]  `json:"category" validate:"omitempty,oneof=appetizer main dessert drink side"`
	Price       rpc.Optional[float64] `json:"price" validate:"omitempty,gte=0"`
	Cost        rpc.Optional[float64] `json:"cost" validate:"omitempty,gte=0"`
	ImageURL    rpc.Optional[string]  `json:"imageUrl" validate:"omitempty,url"`
	IsAvailable rpc.Optional[bool]    `json:"isAvailable"`
}

type IDInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

type GetIngredientsInput struct {
	MenuItemID string `json:"menuItemId" validate:"required,uuid"`
}

type AddIngredientInput struct {
	MenuItemID      string   `json:"menuItemId" validate:"required,uuid"`
	InventoryItemID string   `json:"inventoryItemId" validate:"required,uuid"`
	Quantity        *float64 `json:"quantity" validate:"required,gt=0"`
}

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, now: now}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Query(r, "menu.getAll", s.GetAll)
	rpc.Mutation(r, "menu.create", s.Create)
	rpc.Mutation(r, "menu.update", s.Update)
	rpc.Mutation(r, "menu.delete", s.Delete)
	rpc.Query(r, "menu.getIngredients", s.GetIngredients)
	rpc.Mutation(r, "menu.addIngredient", s.AddIngredient)
}

func (s *Service) GetAll(ctx context.Context, in GetAllInput) ([]MenuItem, error) {
	q := store.From(ItemsTable).OrderBy(store.Asc("name_en"))
	if in.Category != nil {
		q = q.Where(store.Eq("category", string(*in.Category)))
	}
	if in.AvailableOnly {
		q = q.Where(store.Eq("is_available", true))
	}

	rows, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch menu items: %w", err)
	}
	items := make([]MenuItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, FromRow(r))
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (MenuItem, error) {
	row := store.Row{
		"name_en":      in.Name.En,
		"name_ru":      in.Name.Ru,
		"name_kk":      in.Name.Kk,
		"category":     string(in.Category),
		"price":        *in.Price,
		"is_available": true,
	}
	if in.Description != nil {
		putString(row, "description_en", in.Description.En)
		putString(row, "description_ru", in.Description.Ru)
		putString(row, "description_kk", in.Description.Kk)
	}
	if in.Cost != nil {
		row["cost"] = *in.Cost
	}
	putString(row, "image_url", in.ImageURL)
	if in.IsAvailable != nil {
		row["is_available"] = *in.IsAvailable
	}

	created, err := s.store.Insert(ctx, ItemsTable, row)
	if err != nil {
		return MenuItem{}, fmt.Errorf("service: failed to create menu item: %w", err)
	}

	log.Info().Str("menu_item_id", created.String("id")).Msg("service: menu item created")
	return FromRow(created), nil
}

// Update writes only the fields present in the input. Names cannot be
// cleared; description, cost and image can be cleared with null.
func (s *Service) Update(ctx context.Context, in UpdateInput) (MenuItem, error) {
	set := store.Row{}

	if in.Name != nil {
		names := []rpc.Optional[string]{in.Name.En, in.Name.Ru, in.Name.Kk}
		for i, loc := range Locales {
			v := names[i]
			if v.Null || (v.Present() && v.Value == "") {
				return MenuItem{}, rpc.InvalidField("name."+loc, "cannot be empty")
			}
			v.Put(set, "name_"+loc)
		}
	}
	if in.Description != nil {
		in.Description.En.Put(set, "description_en")
		in.Description.Ru.Put(set, "description_ru")
		in.Description.Kk.Put(set, "description_kk")
	}
	if in.Category.Null {
		return MenuItem{}, rpc.InvalidField("category", "cannot be null")
	}
	in.Category.Put(set, "category")
	if in.Price.Null {
		return MenuItem{}, rpc.InvalidField("price", "cannot be null")
	}
	in.Price.Put(set, "price")
	in.Cost.Put(set, "cost")
	in.ImageURL.Put(set, "image_url")
	if in.IsAvailable.Null {
		return MenuItem{}, rpc.InvalidField("isAvailable", "cannot be null")
	}
	in.IsAvailable.Put(set, "is_available")

	if len(set) == 0 {
		return MenuItem{}, rpc.InvalidField("input", "no fields to update")
	}
	set["updated_at"] = s.now().UTC()

	rows, err := s.store.Update(ctx, ItemsTable, set, store.Eq("id", in.ID))
	if err != nil {
		return MenuItem{}, fmt.Errorf("service: failed to update menu item %s: %w", in.ID, err)
	}
	if len(rows) == 0 {
		return MenuItem{}, rpc.Precondition("menu item not found")
	}

	log.Info().Str("menu_item_id", in.ID).Int("fields", len(set)-1).Msg("service: menu item updated")
	return FromRow(rows[0]), nil
}

func (s *Service) Delete(ctx context.Context, in IDInput) (rpc.Success, error) {
	deleted, err := s.store.Delete(ctx, ItemsTable, store.Eq("id", in.ID))
	if err != nil {
		return rpc.Success{}, fmt.Errorf("service: failed to delete menu item %s: %w", in.ID, err)
	}
	if deleted == 0 {
		return rpc.Success{}, rpc.Precondition("menu item not found")
	}

	log.Info().Str("menu_item_id", in.ID).Msg("service: menu item deleted")
	return rpc.Done(), nil
}

func (s *Service) GetIngredients(ctx context.Context, in GetIngredientsInput) ([]Ingredient, error) {
	rows, err := s.store.Select(ctx, store.From(IngredientsTable).
		Where(store.Eq("menu_item_id", in.MenuItemID)).
		OrderBy(store.Asc("created_at")))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch ingredients for menu item %s: %w", in.MenuItemID, err)
	}

	items := map[string]store.Row{}
	if ids := store.Column(rows, "inventory_item_id"); len(ids) > 0 {
		itemRows, err := s.store.Select(ctx, store.From(inventory.ItemsTable).Where(store.In("id", ids)))
		if err != nil {
			return nil, fmt.Errorf("service: failed to fetch inventory for menu item %s: %w", in.MenuItemID, err)
		}
		items = store.Index(itemRows, "id")
	}

	ingredients := make([]Ingredient, 0, len(rows))
	for _, r := range rows {
		ingredients = append(ingredients, IngredientFromRow(r, items[r.String("inventory_item_id")]))
	}
	return ingredients, nil
}

func (s *Service) AddIngredient(ctx context.Context, in AddIngredientInput) (Ingredient, error) {
	menuItem, err := store.First(ctx, s.store, store.From(ItemsTable).Where(store.Eq("id", in.MenuItemID)))
	if err != nil {
		return Ingredient{}, fmt.Errorf("service: failed to fetch menu item: %w", err)
	}
	if menuItem == nil {
		return Ingredient{}, rpc.Precondition("menu item not found")
	}

	invItem, err := store.First(ctx, s.store, store.From(inventory.ItemsTable).Where(store.Eq("id", in.InventoryItemID)))
	if err != nil {
		return Ingredient{}, fmt.Errorf("service: failed to fetch inventory item: %w", err)
	}
	if invItem == nil {
		return Ingredient{}, rpc.Precondition("inventory item not found")
	}

	created, err := s.store.Insert(ctx, IngredientsTable, store.Row{
		"menu_item_id":      in.MenuItemID,
		"inventory_item_id": in.InventoryItemID,
		"quantity":          *in.Quantity,
	})
	if err != nil {
		return Ingredient{}, fmt.Errorf("service: failed to add ingredient: %w", err)
	}
	return IngredientFromRow(created, invItem), nil
}

func putString(row store.Row, column string, v *string) {
	if v != nil {
		row[column] = *v
	}
}
