package payment

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kiraya-np/backend-kiraya/internal/common"
	"github.com/kiraya-np/backend-kiraya/internal/obs"
	"github.com/kiraya-np/backend-kiraya/internal/store"
)

// Queries is the slice of the store the payment service depends on.
type Queries interface {
	GetOrderForUser(ctx context.Context, id, userID pgtype.UUID) (store.Order, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	CreatePayment(ctx context.Context, arg store.CreatePaymentParams) (store.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (store.Payment, error)
	UpdatePaymentStatus(ctx context.Context, transactionID, status string) error
	UpdateOrderStatus(ctx context.Context, id pgtype.UUID, status string) error
}

// Service coordinates payment initiation and confirmation callbacks.
type Service struct {
	Q             Queries
	Providers     map[string]Provider
	PublicBaseURL string
	Log           zerolog.Logger
}

// Initiate opens a payment for the given order with the requested gateway.
// A fresh transaction id is minted per attempt and the attempt is recorded
// before the gateway is contacted, so a failed upstream call still leaves an
// auditable FAILED row behind.
func (s *Service) Initiate(ctx context.Context, userID, orderID, gateway string) (Initiation, error) {
	var zero Initiation
	if s == nil || s.Q == nil {
		return zero, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Initiate")
	defer span.End()

	gateway = strings.ToLower(strings.TrimSpace(gateway))
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.gateway", gateway),
			attribute.String("payment.result", result),
		)
		if obs.PaymentInitiationTotal != nil {
			obs.PaymentInitiationTotal.WithLabelValues(gatewayLabel(gateway), result).Inc()
		}
	}()

	provider, ok := s.Providers[gateway]
	if !ok {
		return zero, common.NewAppError("VALIDATION_ERROR", "unsupported gateway "+gateway,
			http.StatusBadRequest, nil)
	}

	orderUUID, err := store.ToUUID(orderID)
	if err != nil {
		return zero, common.NewAppError("VALIDATION_ERROR", "invalid order id", http.StatusBadRequest, err)
	}
	userUUID, err := store.ToUUID(userID)
	if err != nil {
		return zero, common.NewAppError("VALIDATION_ERROR", "invalid user id", http.StatusBadRequest, err)
	}
	order, err := s.Q.GetOrderForUser(ctx, orderUUID, userUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, nil)
		}
		return zero, err
	}
	if order.Status != store.OrderStatusPendingPayment {
		return zero, common.NewAppError("ORDER_NOT_PAYABLE",
			"order status "+order.Status+" does not allow payment", http.StatusConflict, nil)
	}
	user, err := s.Q.GetUserByID(ctx, userUUID)
	if err != nil {
		return zero, err
	}

	txID := uuid.NewString()
	amount := strconv.FormatInt(order.TotalAmount, 10)
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("payment.transaction_id", txID))

	if _, err := s.Q.CreatePayment(ctx, store.CreatePaymentParams{
		OrderID:       order.ID,
		Gateway:       gateway,
		TransactionID: txID,
		Amount:        amount,
	}); err != nil {
		return zero, err
	}

	base := strings.TrimRight(s.PublicBaseURL, "/")
	req := Request{
		TransactionID: txID,
		Amount:        amount,
		OrderName:     "Vehicle rental " + store.UUIDString(order.ID),
		SuccessURL:    base + "/orders/success",
		FailureURL:    base + "/orders/failure",
		ReturnURL:     base + "/orders/success",
		WebsiteURL:    base,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CustomerPhone: user.Phone.String,
	}

	start := time.Now()
	initiation, err := provider.Initiate(ctx, req)
	if obs.GatewayRequestLatency != nil {
		obs.GatewayRequestLatency.WithLabelValues(gatewayLabel(gateway)).
			Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		span.RecordError(err)
		if updateErr := s.Q.UpdatePaymentStatus(ctx, txID, store.PaymentStatusFailed); updateErr != nil {
			s.Log.Error().Err(updateErr).Str("transaction_id", txID).Msg("mark payment failed")
		}
		return zero, err
	}
	result = "success"
	return initiation, nil
}

// Confirm decodes a gateway confirmation token and, when it reports a
// completed payment for a known transaction with a total matching the
// recorded amount, settles the payment and its order. The decoded record is returned for display; a missing or unreadable
// token degrades to an empty record rather than failing the page.
func (s *Service) Confirm(ctx context.Context, rawToken string) (CallbackRecord, bool) {
	rec, err := DecodeCallbackToken(rawToken)
	switch {
	case err != nil:
		s.Log.Warn().Err(err).Msg("confirmation token undecodable")
		countCallback("malformed")
		return CallbackRecord{}, false
	case rec == (CallbackRecord{}):
		countCallback("empty")
		return CallbackRecord{}, false
	}
	countCallback("decoded")

	if !strings.EqualFold(rec.Status, "COMPLETE") || rec.TransactionUUID == "" {
		return rec, true
	}
	payment, err := s.Q.GetPaymentByTransactionID(ctx, rec.TransactionUUID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.Log.Error().Err(err).Str("transaction_id", rec.TransactionUUID).Msg("lookup payment")
		}
		return rec, true
	}
	if payment.Status == store.PaymentStatusCompleted {
		return rec, true
	}
	if !amountsMatch(rec.TotalAmount, payment.Amount) {
		s.Log.Warn().Str("transaction_id", payment.TransactionID).
			Str("token_amount", rec.TotalAmount).
			Str("recorded_amount", payment.Amount).
			Msg("confirmation amount mismatch")
		countCallback("amount_mismatch")
		return rec, true
	}
	if err := s.Q.UpdatePaymentStatus(ctx, payment.TransactionID, store.PaymentStatusCompleted); err != nil {
		s.Log.Error().Err(err).Str("transaction_id", payment.TransactionID).Msg("settle payment")
		return rec, true
	}
	if err := s.Q.UpdateOrderStatus(ctx, payment.OrderID, store.OrderStatusPaid); err != nil {
		s.Log.Error().Err(err).Str("order_id", store.UUIDString(payment.OrderID)).Msg("settle order")
	}
	return rec, true
}

// amountsMatch reports whether two decimal amount strings are numerically
// equal. Gateway tokens carry total_amount with thousands separators and a
// trailing fraction ("1,000.0"), so both sides are normalised before the
// comparison.
func amountsMatch(a, b string) bool {
	a = strings.ReplaceAll(strings.TrimSpace(a), ",", "")
	b = strings.ReplaceAll(strings.TrimSpace(b), ",", "")
	scale := fracDigits(a)
	if s := fracDigits(b); s > scale {
		scale = s
	}
	na, err := scaledInt(a, scale)
	if err != nil {
		return false
	}
	nb, err := scaledInt(b, scale)
	if err != nil {
		return false
	}
	return na == nb
}

func fracDigits(v string) int {
	if dot := strings.IndexByte(v, '.'); dot >= 0 {
		return len(v) - dot - 1
	}
	return 0
}

func countCallback(result string) {
	if obs.PaymentCallbackTotal != nil {
		obs.PaymentCallbackTotal.WithLabelValues(result).Inc()
	}
}

func gatewayLabel(gateway string) string {
	if gateway == "" {
		return "unknown"
	}
	return gateway
}
