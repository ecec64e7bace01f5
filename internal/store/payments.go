package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Payment status values.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment mirrors a row of the payments table. Amount holds the canonical
// decimal string handed to the gateway so the stored value can never drift
// from what was signed.
type Payment struct {
	ID            pgtype.UUID
	OrderID       pgtype.UUID
	Gateway       string
	TransactionID string
	Amount        string
	Status        string
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// CreatePaymentParams captures fields for recording a payment attempt.
type CreatePaymentParams struct {
	OrderID       pgtype.UUID
	Gateway       string
	TransactionID string
	Amount        string
}

const paymentColumns = `id, order_id, gateway, transaction_id, amount, status, created_at, updated_at`

const createPaymentSQL = `
INSERT INTO payments (order_id, gateway, transaction_id, amount, status)
VALUES ($1, $2, $3, $4, 'PENDING')
RETURNING ` + paymentColumns

// CreatePayment records a pending payment attempt.
func (s *Store) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := s.pool.QueryRow(ctx, createPaymentSQL, arg.OrderID, arg.Gateway, arg.TransactionID, arg.Amount)
	return scanPayment(row)
}

const getPaymentByTransactionIDSQL = `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`

// GetPaymentByTransactionID fetches a payment by its gateway transaction identifier.
func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (Payment, error) {
	return scanPayment(s.pool.QueryRow(ctx, getPaymentByTransactionIDSQL, transactionID))
}

const getLatestPaymentByOrderSQL = `
SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`

// GetLatestPaymentByOrder fetches the most recent payment attempt for an order.
func (s *Store) GetLatestPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (Payment, error) {
	return scanPayment(s.pool.QueryRow(ctx, getLatestPaymentByOrderSQL, orderID))
}

// UpdatePaymentStatus transitions a payment identified by transaction id.
func (s *Store) UpdatePaymentStatus(ctx context.Context, transactionID, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = now() WHERE transaction_id = $1`,
		transactionID, status)
	return err
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Gateway, &p.TransactionID, &p.Amount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
