package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

// Handler exposes HTTP endpoints for payment initiation and confirmation.
type Handler struct {
	Svc *Service
}

type initiateReq struct {
	OrderID string `json:"orderId"`
	Gateway string `json:"gateway"`
}

// Initiate opens a payment for the authenticated user's order.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	var req initiateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "orderId is required", nil)
		return
	}
	initiation, err := h.Svc.Initiate(r.Context(), userID, req.OrderID, req.Gateway)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, initiation)
}

type confirmResp struct {
	Decoded bool            `json:"decoded"`
	Record  *CallbackRecord `json:"record,omitempty"`
}

// Confirm decodes the confirmation token a gateway redirect carries. The
// endpoint never fails on a bad token: the page it backs still renders, just
// without transaction details.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	rec, decoded := h.Svc.Confirm(r.Context(), r.URL.Query().Get("data"))
	resp := confirmResp{Decoded: decoded}
	if decoded {
		resp.Record = &rec
	}
	common.JSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
