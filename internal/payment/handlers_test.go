package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

func postInitiate(h *Handler, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", &buf)
	if authed {
		req = req.WithContext(common.WithUserID(req.Context(), testUserID))
	}
	rec := httptest.NewRecorder()
	h.Initiate(rec, req)
	return rec
}

func TestHandlerInitiate(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := &Handler{Svc: svc}

	rec := postInitiate(h, map[string]string{"orderId": testOrderID, "gateway": "khalti"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var init Initiation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &init))
	require.Equal(t, GatewayKhalti, init.Gateway)
	require.Equal(t, ModeRedirect, init.Mode)
	require.NotEmpty(t, init.PaymentURL)
}

func TestHandlerInitiateRequiresAuth(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := &Handler{Svc: svc}

	rec := postInitiate(h, map[string]string{"orderId": testOrderID, "gateway": "khalti"}, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerInitiateBadRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := &Handler{Svc: svc}

	rec := postInitiate(h, map[string]string{"gateway": "khalti"}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postInitiate(h, map[string]string{"orderId": testOrderID, "gateway": "stripe"}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestHandlerConfirm(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := &Handler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/confirm?data="+sampleCallbackToken, nil)
	rec := httptest.NewRecorder()
	h.Confirm(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Decoded bool            `json:"decoded"`
		Record  *CallbackRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Decoded)
	require.NotNil(t, resp.Record)
	require.Equal(t, "COMPLETE", resp.Record.Status)
	require.Equal(t, "000AWEO", resp.Record.TransactionCode)
}

func TestHandlerConfirmToleratesGarbage(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := &Handler{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/confirm?data=!!!", nil)
	rec := httptest.NewRecorder()
	h.Confirm(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Decoded bool             `json:"decoded"`
		Record  *json.RawMessage `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Decoded)
	require.Nil(t, resp.Record)
}
