package payment

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

// CallbackRecord is the decoded eSewa confirmation payload. It is display
// data only: the signature inside is carried through untouched and never
// re-verified here, since order state is settled by reconciliation rather
// than by whatever the browser brings back.
type CallbackRecord struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

// DecodeCallbackToken decodes the base64 token eSewa appends to the success
// redirect. An empty token yields an empty record with no error. The decoder
// tolerates standard and URL-safe alphabets, padded or raw, since the token
// arrives through a query string and padding is often mangled in transit.
func DecodeCallbackToken(raw string) (CallbackRecord, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CallbackRecord{}, nil
	}
	decoded, err := decodeBase64Lenient(trimmed)
	if err != nil {
		return CallbackRecord{}, common.NewAppError("VALIDATION_ERROR",
			"callback token is not valid base64", http.StatusBadRequest, err)
	}
	var rec CallbackRecord
	if err := json.Unmarshal(decoded, &rec); err != nil {
		return CallbackRecord{}, common.NewAppError("VALIDATION_ERROR",
			"callback token is not valid JSON", http.StatusBadRequest, err)
	}
	return rec, nil
}

func decodeBase64Lenient(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
