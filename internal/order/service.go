package order

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
	"github.com/kiraya-np/backend-kiraya/internal/obs"
	"github.com/kiraya-np/backend-kiraya/internal/store"
	"github.com/kiraya-np/backend-kiraya/internal/vehicle"
)

const dateLayout = "2006-01-02"

// Queries is the slice of the store the order service depends on.
type Queries interface {
	GetVehicleByID(ctx context.Context, id pgtype.UUID) (store.Vehicle, error)
	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	GetOrderForUser(ctx context.Context, id, userID pgtype.UUID) (store.Order, error)
	ListOrdersForUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]store.OrderWithVehicle, error)
	CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	UpdateOrderStatus(ctx context.Context, id pgtype.UUID, status string) error
	GetLatestPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (store.Payment, error)
}

// Service coordinates rental order creation and lifecycle.
type Service struct {
	Q Queries
}

// CreateInput captures a rental order request.
type CreateInput struct {
	VehicleID string `json:"vehicleId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// Order is the client-facing order payload.
type Order struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	TotalAmount int64           `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Vehicle     *VehicleSummary `json:"vehicle,omitempty"`
	Payment     *PaymentSummary `json:"payment,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// VehicleSummary carries the vehicle fields shown in order listings.
type VehicleSummary struct {
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Brand     string  `json:"brand"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// PaymentSummary carries the latest payment attempt for an order.
type PaymentSummary struct {
	Gateway       string `json:"gateway"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
}

// ListResult bundles a page of orders with the total count.
type ListResult struct {
	Items []Order `json:"items"`
	Total int64   `json:"total"`
}

// Create opens a rental order in PENDING_PAYMENT state. The total is the
// nightly rate times the number of rental days, end date exclusive.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Order, error) {
	if s == nil || s.Q == nil {
		return Order{}, errors.New("order service not configured")
	}
	userUUID, err := store.ToUUID(userID)
	if err != nil {
		return Order{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	vehicleUUID, err := store.ToUUID(in.VehicleID)
	if err != nil {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "invalid vehicleId", http.StatusBadRequest, err)
	}
	start, end, err := parseRentalWindow(in.StartDate, in.EndDate)
	if err != nil {
		return Order{}, err
	}

	v, err := s.Q.GetVehicleByID(ctx, vehicleUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NewAppError("VEHICLE_NOT_FOUND", "vehicle not found", http.StatusNotFound, nil)
		}
		return Order{}, fmt.Errorf("get vehicle: %w", err)
	}
	if !v.Available {
		return Order{}, common.NewAppError("VEHICLE_UNAVAILABLE", "vehicle is not available", http.StatusConflict, nil)
	}

	total, err := vehicle.RentalCost(v, start, end)
	if err != nil {
		return Order{}, err
	}

	created, err := s.Q.CreateOrder(ctx, store.CreateOrderParams{
		UserID:      userUUID,
		VehicleID:   vehicleUUID,
		StartDate:   start,
		EndDate:     end,
		TotalAmount: total,
		Currency:    "NPR",
	})
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.Inc()
	}
	out := convertOrder(created)
	out.Vehicle = &VehicleSummary{Name: v.Name, Slug: v.Slug, Brand: v.Brand, Thumbnail: textPtr(v.ImageURL)}
	return out, nil
}

// Get returns one of the user's orders with its latest payment attempt.
func (s *Service) Get(ctx context.Context, userID, orderID string) (Order, error) {
	row, err := s.getOwned(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}
	out := convertOrder(row)
	if payment, err := s.Q.GetLatestPaymentByOrder(ctx, row.ID); err == nil {
		out.Payment = &PaymentSummary{
			Gateway:       payment.Gateway,
			TransactionID: payment.TransactionID,
			Status:        payment.Status,
			Amount:        payment.Amount,
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("get latest payment: %w", err)
	}
	return out, nil
}

// List returns a page of the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int32) (ListResult, error) {
	if s == nil || s.Q == nil {
		return ListResult{}, errors.New("order service not configured")
	}
	userUUID, err := store.ToUUID(userID)
	if err != nil {
		return ListResult{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	rows, err := s.Q.ListOrdersForUser(ctx, userUUID, limit, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.Q.CountOrdersForUser(ctx, userUUID)
	if err != nil {
		return ListResult{}, fmt.Errorf("count orders: %w", err)
	}
	items := make([]Order, 0, len(rows))
	for _, row := range rows {
		o := convertOrder(row.Order)
		o.Vehicle = &VehicleSummary{
			Name:      row.VehicleName,
			Slug:      row.VehicleSlug,
			Brand:     row.VehicleBrand,
			Thumbnail: textPtr(row.VehicleImage),
		}
		items = append(items, o)
	}
	return ListResult{Items: items, Total: total}, nil
}

// Cancel cancels an order that has not been paid yet.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (Order, error) {
	row, err := s.getOwned(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}
	if row.Status != store.OrderStatusPendingPayment {
		return Order{}, common.NewAppError("ORDER_NOT_CANCELABLE",
			"order status "+row.Status+" does not allow cancellation", http.StatusConflict, nil)
	}
	if err := s.Q.UpdateOrderStatus(ctx, row.ID, store.OrderStatusCanceled); err != nil {
		return Order{}, fmt.Errorf("cancel order: %w", err)
	}
	row.Status = store.OrderStatusCanceled
	return convertOrder(row), nil
}

func (s *Service) getOwned(ctx context.Context, userID, orderID string) (store.Order, error) {
	if s == nil || s.Q == nil {
		return store.Order{}, errors.New("order service not configured")
	}
	userUUID, err := store.ToUUID(userID)
	if err != nil {
		return store.Order{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	orderUUID, err := store.ToUUID(orderID)
	if err != nil {
		return store.Order{}, common.NewAppError("VALIDATION_ERROR", "invalid order id", http.StatusBadRequest, err)
	}
	row, err := s.Q.GetOrderForUser(ctx, orderUUID, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Order{}, common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, nil)
		}
		return store.Order{}, fmt.Errorf("get order: %w", err)
	}
	return row, nil
}

func parseRentalWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, time.Time{}, common.NewAppError("VALIDATION_ERROR",
			"startDate must be YYYY-MM-DD", http.StatusBadRequest, err)
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(endRaw))
	if err != nil {
		return time.Time{}, time.Time{}, common.NewAppError("VALIDATION_ERROR",
			"endDate must be YYYY-MM-DD", http.StatusBadRequest, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, common.NewAppError("VALIDATION_ERROR",
			"endDate must be after startDate", http.StatusBadRequest, nil)
	}
	return start, end, nil
}

func convertOrder(o store.Order) Order {
	out := Order{
		ID:          store.UUIDString(o.ID),
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Currency:    o.Currency,
	}
	if o.StartDate.Valid {
		out.StartDate = o.StartDate.Time.Format(dateLayout)
	}
	if o.EndDate.Valid {
		out.EndDate = o.EndDate.Time.Format(dateLayout)
	}
	if o.CreatedAt.Valid {
		out.CreatedAt = o.CreatedAt.Time
	}
	return out
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
