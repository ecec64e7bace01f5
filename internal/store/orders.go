package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Order status values. Transitions: PENDING_PAYMENT -> PAID | CANCELED.
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusPaid           = "PAID"
	OrderStatusCanceled       = "CANCELED"
)

// Order mirrors a row of the orders table. TotalAmount is in whole rupees.
type Order struct {
	ID          pgtype.UUID
	UserID      pgtype.UUID
	VehicleID   pgtype.UUID
	Status      string
	StartDate   pgtype.Date
	EndDate     pgtype.Date
	TotalAmount int64
	Currency    string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// OrderWithVehicle joins an order with summary vehicle fields for listings.
type OrderWithVehicle struct {
	Order
	VehicleName  string
	VehicleSlug  string
	VehicleBrand string
	VehicleImage pgtype.Text
}

// CreateOrderParams captures fields for creating a rental order.
type CreateOrderParams struct {
	UserID      pgtype.UUID
	VehicleID   pgtype.UUID
	StartDate   time.Time
	EndDate     time.Time
	TotalAmount int64
	Currency    string
}

const orderColumns = `id, user_id, vehicle_id, status, start_date, end_date, total_amount, currency, created_at, updated_at`

const createOrderSQL = `
INSERT INTO orders (user_id, vehicle_id, status, start_date, end_date, total_amount, currency)
VALUES ($1, $2, 'PENDING_PAYMENT', $3, $4, $5, $6)
RETURNING ` + orderColumns

// CreateOrder inserts a new rental order in PENDING_PAYMENT state.
func (s *Store) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := s.pool.QueryRow(ctx, createOrderSQL,
		arg.UserID, arg.VehicleID,
		pgtype.Date{Time: arg.StartDate, Valid: true},
		pgtype.Date{Time: arg.EndDate, Valid: true},
		arg.TotalAmount, arg.Currency)
	return scanOrder(row)
}

const getOrderForUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

// GetOrderForUser fetches an order owned by the given user.
func (s *Store) GetOrderForUser(ctx context.Context, id, userID pgtype.UUID) (Order, error) {
	return scanOrder(s.pool.QueryRow(ctx, getOrderForUserSQL, id, userID))
}

const getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

// GetOrderByID fetches an order by primary key.
func (s *Store) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(s.pool.QueryRow(ctx, getOrderByIDSQL, id))
}

const listOrdersForUserSQL = `
SELECT o.id, o.user_id, o.vehicle_id, o.status, o.start_date, o.end_date, o.total_amount,
	o.currency, o.created_at, o.updated_at,
	v.name, v.slug, v.brand, v.image_url
FROM orders o
JOIN vehicles v ON v.id = o.vehicle_id
WHERE o.user_id = $1
ORDER BY o.created_at DESC
LIMIT $2 OFFSET $3`

// ListOrdersForUser returns a page of the user's orders with vehicle summaries.
func (s *Store) ListOrdersForUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]OrderWithVehicle, error) {
	rows, err := s.pool.Query(ctx, listOrdersForUserSQL, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderWithVehicle
	for rows.Next() {
		var o OrderWithVehicle
		if err := rows.Scan(&o.ID, &o.UserID, &o.VehicleID, &o.Status, &o.StartDate, &o.EndDate,
			&o.TotalAmount, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
			&o.VehicleName, &o.VehicleSlug, &o.VehicleBrand, &o.VehicleImage); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOrdersForUser returns the total number of orders owned by a user.
func (s *Store) CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

// UpdateOrderStatus transitions an order to the given status.
func (s *Store) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, status string) error {
	_, err := s.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.VehicleID, &o.Status, &o.StartDate, &o.EndDate,
		&o.TotalAmount, &o.Currency, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
