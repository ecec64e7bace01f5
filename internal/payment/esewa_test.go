package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

func testEsewa() Esewa {
	return Esewa{
		ProductCode: "EPAYTEST",
		SecretKey:   testSecret,
		FormURL:     "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
	}
}

func fieldMap(fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}

func TestEsewaInitiateFieldOrder(t *testing.T) {
	init, err := testEsewa().Initiate(context.Background(), Request{
		TransactionID: "abc-123",
		Amount:        "1000",
		SuccessURL:    "https://kiraya.example/orders/success",
		FailureURL:    "https://kiraya.example/orders/failure",
	})
	require.NoError(t, err)
	require.Equal(t, GatewayEsewa, init.Gateway)
	require.Equal(t, ModeFormPost, init.Mode)
	require.Equal(t, "https://rc-epay.esewa.com.np/api/epay/main/v2/form", init.FormURL)

	names := make([]string, len(init.Fields))
	for i, f := range init.Fields {
		names[i] = f.Name
	}
	require.Equal(t, []string{
		"amount", "tax_amount", "total_amount", "transaction_uuid", "product_code",
		"product_service_charge", "product_delivery_charge", "success_url", "failure_url",
		"signed_field_names", "signature",
	}, names)

	m := fieldMap(init.Fields)
	require.Equal(t, "1000", m["amount"])
	require.Equal(t, "0", m["tax_amount"])
	require.Equal(t, "1000", m["total_amount"])
	require.Equal(t, "total_amount,transaction_uuid,product_code", m["signed_field_names"])
	require.Equal(t, "2HoYlEHcZaGtDg8kCC3/FdUxpk/7KnGzeiu5g8YHVyY=", m["signature"])
}

func TestEsewaInitiateTotalsCharges(t *testing.T) {
	init, err := testEsewa().Initiate(context.Background(), Request{
		TransactionID: "11aa-22bb",
		Amount:        "100",
		TaxAmount:     "10",
	})
	require.NoError(t, err)
	m := fieldMap(init.Fields)
	require.Equal(t, "110", m["total_amount"])
	require.Equal(t, "3UStEJUe5Pt4RUg5RktQl9h5km5WOfL+6xFborthkhQ=", m["signature"])
}

func TestEsewaInitiateDeterministic(t *testing.T) {
	req := Request{TransactionID: "abc-123", Amount: "1000"}
	first, err := testEsewa().Initiate(context.Background(), req)
	require.NoError(t, err)
	second, err := testEsewa().Initiate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.Fields, second.Fields)
}

func TestEsewaInitiatePreservesAmountPrecision(t *testing.T) {
	init, err := testEsewa().Initiate(context.Background(), Request{
		TransactionID: "tx-prec",
		Amount:        "100.50",
	})
	require.NoError(t, err)
	m := fieldMap(init.Fields)
	require.Equal(t, "100.50", m["amount"])
	require.Equal(t, "100.50", m["total_amount"])
}

func TestEsewaInitiateRejectsBadAmount(t *testing.T) {
	for _, amount := range []string{"", "0", "-10", "abc"} {
		_, err := testEsewa().Initiate(context.Background(), Request{
			TransactionID: "tx", Amount: amount,
		})
		require.Error(t, err, "amount %q", amount)
		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	}
}

func TestEsewaInitiateMissingConfig(t *testing.T) {
	_, err := Esewa{}.Initiate(context.Background(), Request{TransactionID: "tx", Amount: "10"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CONFIG_MISSING", appErr.Code)
	require.ElementsMatch(t, []string{"ESEWA_PRODUCT_CODE", "ESEWA_SECRET_KEY", "ESEWA_FORM_URL"},
		appErr.Details)
}
