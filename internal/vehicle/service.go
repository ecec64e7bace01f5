package vehicle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kiraya-np/backend-kiraya/internal/common"
	"github.com/kiraya-np/backend-kiraya/internal/store"
)

type queryProvider interface {
	ListVehicles(ctx context.Context, arg store.ListVehiclesParams) ([]store.Vehicle, error)
	CountVehicles(ctx context.Context, arg store.ListVehiclesParams) (int64, error)
	GetVehicleBySlug(ctx context.Context, slug string) (store.Vehicle, error)
}

// Service orchestrates fleet queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a vehicle catalog service.
func NewService(cfg ServiceConfig) *Service {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// ListParams captures filters for vehicle listing.
type ListParams struct {
	Type   string
	Brand  string
	Search string
	Page   int
	Limit  int
}

// ListItem is an entry in a fleet listing response.
type ListItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Brand       string  `json:"brand"`
	VehicleType string  `json:"vehicleType"`
	Seats       int32   `json:"seats"`
	CostPerDay  int64   `json:"costPerDay"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
}

// Detail is the full vehicle payload.
type Detail struct {
	ListItem
	Model        string  `json:"model"`
	Transmission *string `json:"transmission,omitempty"`
	FuelType     *string `json:"fuelType,omitempty"`
	Description  *string `json:"description,omitempty"`
	Available    bool    `json:"available"`
}

// ListResult bundles a page of vehicles with the total match count.
type ListResult struct {
	Items []ListItem `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// List returns a page of available vehicles matching the filters. Results are
// cached per filter combination.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	if s == nil || s.queries == nil {
		return ListResult{}, errors.New("vehicle service not configured")
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	key := listCacheKey(params, page, limit)
	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	arg := store.ListVehiclesParams{
		VehicleType: strings.TrimSpace(params.Type),
		Brand:       strings.TrimSpace(params.Brand),
		Search:      strings.TrimSpace(params.Search),
		Limit:       int32(limit),
		Offset:      int32((page - 1) * limit),
	}
	rows, err := s.queries.ListVehicles(ctx, arg)
	if err != nil {
		return ListResult{}, fmt.Errorf("list vehicles: %w", err)
	}
	total, err := s.queries.CountVehicles(ctx, arg)
	if err != nil {
		return ListResult{}, fmt.Errorf("count vehicles: %w", err)
	}

	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toListItem(row))
	}
	result := ListResult{Items: items, Total: total, Page: page, Limit: limit}
	_ = s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// GetBySlug returns the detail payload for a single vehicle.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Detail, error) {
	if s == nil || s.queries == nil {
		return Detail{}, errors.New("vehicle service not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Detail{}, common.NewAppError("VALIDATION_ERROR", "slug is required", http.StatusBadRequest, nil)
	}

	key := "vehicle:detail:" + slug
	var cached Detail
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	row, err := s.queries.GetVehicleBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, common.NewAppError("VEHICLE_NOT_FOUND", "vehicle not found", http.StatusNotFound, nil)
		}
		return Detail{}, fmt.Errorf("get vehicle: %w", err)
	}
	detail := toDetail(row)
	_ = s.cache.SetJSON(ctx, key, detail)
	return detail, nil
}

// RentalCost computes the total cost for a rental window. The end date is
// exclusive, so a one day rental has end = start + 1 day.
func RentalCost(v store.Vehicle, start, end time.Time) (int64, error) {
	days := int64(end.Sub(start).Hours() / 24)
	if days < 1 {
		return 0, common.NewAppError("VALIDATION_ERROR", "rental must be at least one day",
			http.StatusBadRequest, nil)
	}
	return days * v.CostPerDay, nil
}

func listCacheKey(params ListParams, page, limit int) string {
	return fmt.Sprintf("vehicle:list:%s:%s:%s:%d:%d",
		strings.ToLower(strings.TrimSpace(params.Type)),
		strings.ToLower(strings.TrimSpace(params.Brand)),
		strings.ToLower(strings.TrimSpace(params.Search)),
		page, limit)
}

func toListItem(v store.Vehicle) ListItem {
	return ListItem{
		ID:          store.UUIDString(v.ID),
		Name:        v.Name,
		Slug:        v.Slug,
		Brand:       v.Brand,
		VehicleType: v.VehicleType,
		Seats:       v.Seats,
		CostPerDay:  v.CostPerDay,
		Thumbnail:   textPtr(v.ImageURL),
	}
}

func toDetail(v store.Vehicle) Detail {
	return Detail{
		ListItem:     toListItem(v),
		Model:        v.Model,
		Transmission: textPtr(v.Transmission),
		FuelType:     textPtr(v.FuelType),
		Description:  textPtr(v.Description),
		Available:    v.Available,
	}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
