package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
	"github.com/vasiliy-maslov/restaurant-pos/internal/store"
)

const TableName = "ratings"

type Rating struct {
	ID          string    `json:"id"`
	MenuItemID  string    `json:"menuItemId"`
	TableNumber int       `json:"tableNumber"`
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Stats struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

type MenuItemRatings struct {
	Ratings       []Rating `json:"ratings"`
	TotalRatings  int      `json:"totalRatings"`
	AverageRating float64  `json:"averageRating"`
}

func FromRow(r store.Row) Rating {
	return Rating{
		ID:          r.String("id"),
		MenuItemID:  r.String("menu_item_id"),
		TableNumber: r.Int("table_number"),
		Rating:      r.Int("rating"),
		Comment:     r.StringPtr("comment"),
		CreatedAt:   r.Time("created_at"),
	}
}

type CreateInput struct {
	MenuItemID  string  `json:"menuItemId" validate:"required,uuid"`
	TableNumber int     `json:"tableNumber" validate:"required,min=1"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Comment     *string `json:"comment" validate:"omitempty,max=500"`
}

type GetByMenuItemInput struct {
	MenuItemID string `json:"menuItemId" validate:"required,uuid"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Register(r *rpc.Registry) {
	rpc.Mutation(r, "ratings.create", s.Create)
	rpc.Query(r, "ratings.getByMenuItem", s.GetByMenuItem)
	rpc.Query(r, "ratings.getAllStats", s.GetAllStats)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Rating, error) {
	item, err := store.First(ctx, s.store, store.From(menu.ItemsTable).Where(store.Eq("id", in.MenuItemID)))
	if err != nil {
		return Rating{}, fmt.Errorf("service: failed to fetch menu item: %w", err)
	}
	if item == nil {
		return Rating{}, rpc.Precondition("menu item not found")
	}

	row := store.Row{
		"menu_item_id": in.MenuItemID,
		"table_number": in.TableNumber,
		"rating":       in.Rating,
	}
	if in.Comment != nil {
		row["comment"] = *in.Comment
	}
	created, err := s.store.Insert(ctx, TableName, row)
	if err != nil {
		return Rating{}, fmt.Errorf("service: failed to create rating: %w", err)
	}

	log.Info().Str("menu_item_id", in.MenuItemID).Int("rating", in.Rating).Msg("service: rating created")
	return FromRow(created), nil
}

func (s *Service) GetByMenuItem(ctx context.Context, in GetByMenuItemInput) (MenuItemRatings, error) {
	rows, err := s.store.Select(ctx, store.From(TableName).
		Where(store.Eq("menu_item_id", in.MenuItemID)).
		OrderBy(store.Desc("created_at")))
	if err != nil {
		return MenuItemRatings{}, fmt.Errorf("service: failed to fetch ratings for menu item %s: %w", in.MenuItemID, err)
	}

	out := MenuItemRatings{Ratings: make([]Rating, 0, len(rows))}
	values := make([]int, 0, len(rows))
	for _, r := range rows {
		rating := FromRow(r)
		out.Ratings = append(out.Ratings, rating)
		values = append(values, rating.Rating)
	}
	out.TotalRatings = len(values)
	out.AverageRating = Average(values)
	return out, nil
}

// GetAllStats aggregates every rating per menu item.
func (s *Service) GetAllStats(ctx context.Context, _ rpc.Empty) (map[string]Stats, error) {
	rows, err := s.store.Select(ctx, store.From(TableName))
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch ratings: %w", err)
	}

	values := make(map[string][]int)
	for _, r := range rows {
		id := r.String("menu_item_id")
		values[id] = append(values[id], r.Int("rating"))
	}

	stats := make(map[string]Stats, len(values))
	for id, v := range values {
		stats[id] = Stats{AverageRating: Average(v), TotalRatings: len(v)}
	}
	return stats, nil
}

// Average is the mean rounded half-up to one decimal place, 0 for no values.
func Average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), 1).InexactFloat64()
}
