package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

const khaltiInitiatePath = "/api/v2/epayment/initiate/"

// Maximum upstream error body retained for diagnostics.
const khaltiErrorBodyLimit = 4 << 10

// Khalti implements the Provider interface for the Khalti ePayment API. Unlike
// the form-post flow this is a server-to-server call authenticated with a
// bearer key, and the client is redirected to the returned payment URL.
type Khalti struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
	Timeout   time.Duration
}

// Name returns the gateway label used in logs and metrics.
func (k Khalti) Name() string { return GatewayKhalti }

type khaltiInitiateReq struct {
	ReturnURL         string             `json:"return_url"`
	WebsiteURL        string             `json:"website_url"`
	Amount            int64              `json:"amount"`
	PurchaseOrderID   string             `json:"purchase_order_id"`
	PurchaseOrderName string             `json:"purchase_order_name"`
	CustomerInfo      khaltiCustomerInfo `json:"customer_info"`
}

type khaltiCustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type khaltiInitiateResp struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
}

// Initiate opens a Khalti payment. The configured key is checked before any
// network activity so a misconfigured deployment fails fast and no request
// leaves the process. A single attempt is made: gateway failures are returned
// to the caller with the upstream body attached, never retried.
func (k Khalti) Initiate(ctx context.Context, req Request) (Initiation, error) {
	if k.SecretKey == "" {
		return Initiation{}, common.NewAppError("CONFIG_MISSING", "khalti gateway is not configured",
			http.StatusInternalServerError, nil).WithDetails([]string{"KHALTI_SECRET_KEY"})
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return Initiation{}, common.NewAppError("VALIDATION_ERROR", "transaction id is required",
			http.StatusBadRequest, nil)
	}
	amount, err := CanonicalAmount(req.Amount)
	if err != nil {
		return Initiation{}, err
	}
	paisa, err := toPaisa(amount)
	if err != nil {
		return Initiation{}, err
	}

	body, err := json.Marshal(khaltiInitiateReq{
		ReturnURL:         req.ReturnURL,
		WebsiteURL:        req.WebsiteURL,
		Amount:            paisa,
		PurchaseOrderID:   req.TransactionID,
		PurchaseOrderName: req.OrderName,
		CustomerInfo: khaltiCustomerInfo{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
	})
	if err != nil {
		return Initiation{}, err
	}

	timeout := k.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimRight(k.BaseURL, "/") + khaltiInitiatePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Initiation{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+k.SecretKey)

	client := k.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Initiation{}, common.NewAppError("GATEWAY_ERROR", "khalti request failed",
			http.StatusBadGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		upstream, _ := io.ReadAll(io.LimitReader(resp.Body, khaltiErrorBodyLimit))
		return Initiation{}, common.NewAppError("GATEWAY_ERROR",
			fmt.Sprintf("khalti returned status %d", resp.StatusCode),
			http.StatusBadGateway, nil).WithDetails(json.RawMessage(normalizeUpstream(upstream)))
	}

	var out khaltiInitiateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Initiation{}, common.NewAppError("GATEWAY_ERROR", "khalti returned an unreadable body",
			http.StatusBadGateway, err)
	}
	if out.PaymentURL == "" {
		return Initiation{}, common.NewAppError("GATEWAY_ERROR", "khalti response missing payment_url",
			http.StatusBadGateway, nil)
	}
	return Initiation{
		Gateway:       GatewayKhalti,
		TransactionID: req.TransactionID,
		Mode:          ModeRedirect,
		PaymentURL:    out.PaymentURL,
		Pidx:          out.Pidx,
	}, nil
}

// toPaisa converts a canonical rupee amount into integer paisa. At most two
// fractional digits are allowed since paisa is the smallest unit.
func toPaisa(amount string) (int64, error) {
	if _, frac, ok := strings.Cut(amount, "."); ok && len(frac) > 2 {
		return 0, common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("amount %q has sub-paisa precision", amount), http.StatusBadRequest, nil)
	}
	return scaledInt(amount, 2)
}

func normalizeUpstream(body []byte) []byte {
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
