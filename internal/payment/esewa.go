package payment

import (
	"context"
	"net/http"
	"strings"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

// Esewa implements the Provider interface for the eSewa ePay v2 form-post flow.
// No network call is made at initiation: the client receives a pre-signed field
// set and posts it to the eSewa form endpoint itself.
type Esewa struct {
	ProductCode string
	SecretKey   string
	FormURL     string
}

// Name returns the gateway label used in logs and metrics.
func (e Esewa) Name() string { return GatewayEsewa }

// Initiate assembles and signs the eSewa form payload. The signature covers
// exactly total_amount, transaction_uuid and product_code, in that order, and
// signed_field_names is derived from the same field list so the two can never
// disagree.
func (e Esewa) Initiate(_ context.Context, req Request) (Initiation, error) {
	if err := e.checkConfig(); err != nil {
		return Initiation{}, err
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return Initiation{}, common.NewAppError("VALIDATION_ERROR", "transaction id is required",
			http.StatusBadRequest, nil)
	}
	amount, err := CanonicalAmount(req.Amount)
	if err != nil {
		return Initiation{}, err
	}
	tax, err := CanonicalCharge(req.TaxAmount)
	if err != nil {
		return Initiation{}, err
	}
	service, err := CanonicalCharge(req.ServiceCharge)
	if err != nil {
		return Initiation{}, err
	}
	delivery, err := CanonicalCharge(req.DeliveryCharge)
	if err != nil {
		return Initiation{}, err
	}
	total, err := AddAmounts(amount, tax, service, delivery)
	if err != nil {
		return Initiation{}, err
	}

	signed := []Field{
		{Name: "total_amount", Value: total},
		{Name: "transaction_uuid", Value: req.TransactionID},
		{Name: "product_code", Value: e.ProductCode},
	}
	signature, err := Sign(signed, e.SecretKey)
	if err != nil {
		return Initiation{}, err
	}

	fields := []Field{
		{Name: "amount", Value: amount},
		{Name: "tax_amount", Value: tax},
		{Name: "total_amount", Value: total},
		{Name: "transaction_uuid", Value: req.TransactionID},
		{Name: "product_code", Value: e.ProductCode},
		{Name: "product_service_charge", Value: service},
		{Name: "product_delivery_charge", Value: delivery},
		{Name: "success_url", Value: req.SuccessURL},
		{Name: "failure_url", Value: req.FailureURL},
		{Name: "signed_field_names", Value: SignedFieldNames(signed)},
		{Name: "signature", Value: signature},
	}
	return Initiation{
		Gateway:       GatewayEsewa,
		TransactionID: req.TransactionID,
		Mode:          ModeFormPost,
		FormURL:       e.FormURL,
		Fields:        fields,
	}, nil
}

func (e Esewa) checkConfig() error {
	var missing []string
	if strings.TrimSpace(e.ProductCode) == "" {
		missing = append(missing, "ESEWA_PRODUCT_CODE")
	}
	if e.SecretKey == "" {
		missing = append(missing, "ESEWA_SECRET_KEY")
	}
	if strings.TrimSpace(e.FormURL) == "" {
		missing = append(missing, "ESEWA_FORM_URL")
	}
	if len(missing) > 0 {
		return common.NewAppError("CONFIG_MISSING", "esewa gateway is not configured",
			http.StatusInternalServerError, nil).WithDetails(missing)
	}
	return nil
}
