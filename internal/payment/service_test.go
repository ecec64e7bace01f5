package payment

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kiraya-np/backend-kiraya/internal/common"
	"github.com/kiraya-np/backend-kiraya/internal/store"
)

type fakeQueries struct {
	order    store.Order
	orderErr error
	user     store.User

	payments       map[string]store.Payment
	created        []store.CreatePaymentParams
	paymentUpdates map[string]string
	orderUpdates   map[string]string
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		payments:       map[string]store.Payment{},
		paymentUpdates: map[string]string{},
		orderUpdates:   map[string]string{},
	}
}

func (f *fakeQueries) GetOrderForUser(_ context.Context, id, userID pgtype.UUID) (store.Order, error) {
	if f.orderErr != nil {
		return store.Order{}, f.orderErr
	}
	if !store.UUIDEqual(id, f.order.ID) || !store.UUIDEqual(userID, f.order.UserID) {
		return store.Order{}, pgx.ErrNoRows
	}
	return f.order, nil
}

func (f *fakeQueries) GetUserByID(_ context.Context, _ pgtype.UUID) (store.User, error) {
	return f.user, nil
}

func (f *fakeQueries) CreatePayment(_ context.Context, arg store.CreatePaymentParams) (store.Payment, error) {
	f.created = append(f.created, arg)
	p := store.Payment{
		OrderID:       arg.OrderID,
		Gateway:       arg.Gateway,
		TransactionID: arg.TransactionID,
		Amount:        arg.Amount,
		Status:        store.PaymentStatusPending,
	}
	f.payments[arg.TransactionID] = p
	return p, nil
}

func (f *fakeQueries) GetPaymentByTransactionID(_ context.Context, transactionID string) (store.Payment, error) {
	p, ok := f.payments[transactionID]
	if !ok {
		return store.Payment{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeQueries) UpdatePaymentStatus(_ context.Context, transactionID, status string) error {
	f.paymentUpdates[transactionID] = status
	return nil
}

func (f *fakeQueries) UpdateOrderStatus(_ context.Context, id pgtype.UUID, status string) error {
	f.orderUpdates[store.UUIDString(id)] = status
	return nil
}

type stubProvider struct {
	name string
	err  error
	got  Request
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Initiate(_ context.Context, req Request) (Initiation, error) {
	p.got = req
	if p.err != nil {
		return Initiation{}, p.err
	}
	return Initiation{Gateway: p.name, TransactionID: req.TransactionID, Mode: ModeRedirect, PaymentURL: "https://pay"}, nil
}

func mustUUID(t *testing.T, s string) pgtype.UUID {
	t.Helper()
	id, err := store.ToUUID(s)
	require.NoError(t, err)
	return id
}

const (
	testOrderID = "3f1c2b4a-9d6e-4f2a-8c1b-0a9d8e7f6c5d"
	testUserID  = "7a2b3c4d-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
)

func newTestService(t *testing.T) (*Service, *fakeQueries, *stubProvider) {
	t.Helper()
	q := newFakeQueries()
	q.order = store.Order{
		ID:          mustUUID(t, testOrderID),
		UserID:      mustUUID(t, testUserID),
		Status:      store.OrderStatusPendingPayment,
		TotalAmount: 4500,
		Currency:    "NPR",
	}
	q.user = store.User{Name: "Asha", Email: "asha@example.com"}
	p := &stubProvider{name: GatewayKhalti}
	svc := &Service{
		Q:             q,
		Providers:     map[string]Provider{GatewayKhalti: p},
		PublicBaseURL: "https://kiraya.example/",
		Log:           zerolog.Nop(),
	}
	return svc, q, p
}

func TestServiceInitiate(t *testing.T) {
	svc, q, p := newTestService(t)

	init, err := svc.Initiate(context.Background(), testUserID, testOrderID, "khalti")
	require.NoError(t, err)
	require.Equal(t, GatewayKhalti, init.Gateway)
	require.NotEmpty(t, init.TransactionID)

	require.Len(t, q.created, 1)
	require.Equal(t, "4500", q.created[0].Amount)
	require.Equal(t, GatewayKhalti, q.created[0].Gateway)
	require.Equal(t, init.TransactionID, q.created[0].TransactionID)

	require.Equal(t, "4500", p.got.Amount)
	require.Equal(t, "https://kiraya.example/orders/success", p.got.ReturnURL)
	require.Equal(t, "https://kiraya.example", p.got.WebsiteURL)
	require.Equal(t, "Asha", p.got.CustomerName)
}

func TestServiceInitiateFreshTransactionIDPerAttempt(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Initiate(context.Background(), testUserID, testOrderID, "khalti")
	require.NoError(t, err)
	second, err := svc.Initiate(context.Background(), testUserID, testOrderID, "khalti")
	require.NoError(t, err)
	require.NotEqual(t, first.TransactionID, second.TransactionID)
}

func TestServiceInitiateUnsupportedGateway(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Initiate(context.Background(), testUserID, testOrderID, "paypal")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestServiceInitiateOrderNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Initiate(context.Background(), testUserID, "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b", "khalti")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_NOT_FOUND", appErr.Code)
}

func TestServiceInitiateOrderNotPayable(t *testing.T) {
	svc, q, _ := newTestService(t)
	q.order.Status = store.OrderStatusPaid

	_, err := svc.Initiate(context.Background(), testUserID, testOrderID, "khalti")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_NOT_PAYABLE", appErr.Code)
}

func TestServiceInitiateProviderFailureMarksPayment(t *testing.T) {
	svc, q, p := newTestService(t)
	p.err = common.NewAppError("GATEWAY_ERROR", "upstream down", 502, nil)

	_, err := svc.Initiate(context.Background(), testUserID, testOrderID, "khalti")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "GATEWAY_ERROR", appErr.Code)

	require.Len(t, q.created, 1)
	require.Equal(t, store.PaymentStatusFailed, q.paymentUpdates[q.created[0].TransactionID])
}

func TestServiceConfirmSettlesPayment(t *testing.T) {
	svc, q, _ := newTestService(t)
	q.payments["250610-162413"] = store.Payment{
		OrderID:       q.order.ID,
		Gateway:       GatewayEsewa,
		TransactionID: "250610-162413",
		Amount:        "1000",
		Status:        store.PaymentStatusPending,
	}

	rec, decoded := svc.Confirm(context.Background(), sampleCallbackToken)
	require.True(t, decoded)
	require.Equal(t, "COMPLETE", rec.Status)
	require.Equal(t, store.PaymentStatusCompleted, q.paymentUpdates["250610-162413"])
	require.Equal(t, store.OrderStatusPaid, q.orderUpdates[testOrderID])
}

func TestServiceConfirmAmountMismatch(t *testing.T) {
	svc, q, _ := newTestService(t)
	q.payments["250610-162413"] = store.Payment{
		OrderID:       q.order.ID,
		Gateway:       GatewayEsewa,
		TransactionID: "250610-162413",
		Amount:        "999",
		Status:        store.PaymentStatusPending,
	}

	rec, decoded := svc.Confirm(context.Background(), sampleCallbackToken)
	require.True(t, decoded)
	require.Equal(t, "COMPLETE", rec.Status)
	require.Empty(t, q.paymentUpdates, "mismatched amount must not settle the payment")
	require.Empty(t, q.orderUpdates)
}

func TestAmountsMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"1000", "1000.0", true},
		{"1,000.0", "1000", true},
		{"100.50", "100.5", true},
		{"1000", "999", false},
		{"100.50", "100.55", false},
		{"", "1000", false},
		{"abc", "1000", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, amountsMatch(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestServiceConfirmUnknownTransaction(t *testing.T) {
	svc, q, _ := newTestService(t)

	rec, decoded := svc.Confirm(context.Background(), sampleCallbackToken)
	require.True(t, decoded)
	require.Equal(t, "000AWEO", rec.TransactionCode)
	require.Empty(t, q.paymentUpdates)
	require.Empty(t, q.orderUpdates)
}

func TestServiceConfirmEmptyAndMalformed(t *testing.T) {
	svc, q, _ := newTestService(t)

	rec, decoded := svc.Confirm(context.Background(), "")
	require.False(t, decoded)
	require.Equal(t, CallbackRecord{}, rec)

	rec, decoded = svc.Confirm(context.Background(), "%%%")
	require.False(t, decoded)
	require.Equal(t, CallbackRecord{}, rec)
	require.Empty(t, q.paymentUpdates)
}
