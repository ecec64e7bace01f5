package payment

import "context"

// Gateway identifiers accepted on initiation requests.
const (
	GatewayEsewa  = "esewa"
	GatewayKhalti = "khalti"
)

// Initiation modes. A form_post initiation carries an ordered field list the
// client must submit verbatim; a redirect initiation carries a payment URL.
const (
	ModeFormPost = "form_post"
	ModeRedirect = "redirect"
)

// Request captures everything a gateway needs to open a payment. Amount fields
// are canonical decimal strings in rupees.
type Request struct {
	TransactionID  string
	Amount         string
	TaxAmount      string
	ServiceCharge  string
	DeliveryCharge string
	OrderName      string
	SuccessURL     string
	FailureURL     string
	ReturnURL      string
	WebsiteURL     string
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
}

// Initiation is the gateway-neutral result handed back to the client.
type Initiation struct {
	Gateway       string  `json:"gateway"`
	TransactionID string  `json:"transactionId"`
	Mode          string  `json:"mode"`
	FormURL       string  `json:"formUrl,omitempty"`
	Fields        []Field `json:"fields,omitempty"`
	PaymentURL    string  `json:"paymentUrl,omitempty"`
	Pidx          string  `json:"pidx,omitempty"`
}

// Provider abstracts a payment gateway integration.
type Provider interface {
	Name() string
	Initiate(ctx context.Context, req Request) (Initiation, error)
}
