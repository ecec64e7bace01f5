package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/kiraya-np/backend-kiraya/internal/common"
)

// Field is a single name/value pair of a signed gateway payload. Order matters:
// the canonical message and signed_field_names are both derived from the slice
// order, never from sorting.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CanonicalMessage renders fields as "name1=value1,name2=value2" in slice order.
func CanonicalMessage(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+"="+f.Value)
	}
	return strings.Join(parts, ",")
}

// SignedFieldNames renders the comma-joined field names in the same order the
// canonical message uses.
func SignedFieldNames(fields []Field) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return strings.Join(names, ",")
}

// Sign computes base64(HMAC-SHA256(message, secret)) over the canonical message.
// An empty secret is a configuration fault and fails before any bytes are signed.
func Sign(fields []Field, secret string) (string, error) {
	if secret == "" {
		return "", common.NewAppError("CONFIG_MISSING", "signing secret is not configured",
			http.StatusInternalServerError, nil)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalMessage(fields)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

var amountPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// CanonicalAmount validates a decimal amount string and returns it unchanged.
// The caller-supplied precision is preserved exactly: "100" stays "100" and
// "100.50" stays "100.50", so the signed message and the transmitted form
// carry identical bytes.
func CanonicalAmount(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !amountPattern.MatchString(trimmed) {
		return "", common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("invalid amount %q", raw), http.StatusBadRequest, nil)
	}
	if isZeroAmount(trimmed) {
		return "", common.NewAppError("VALIDATION_ERROR", "amount must be positive",
			http.StatusBadRequest, nil)
	}
	return trimmed, nil
}

// CanonicalCharge is CanonicalAmount with zero allowed, for tax and charge
// fields that default to "0".
func CanonicalCharge(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "0", nil
	}
	if !amountPattern.MatchString(trimmed) {
		return "", common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("invalid amount %q", raw), http.StatusBadRequest, nil)
	}
	return trimmed, nil
}

func isZeroAmount(v string) bool {
	for _, c := range v {
		if c >= '1' && c <= '9' {
			return false
		}
	}
	return true
}

// AddAmounts sums canonical decimal strings without floating point. The result
// carries the widest scale among the inputs so no trailing-zero drift is
// introduced: "100.5" + "0" is "100.5", "100.50" + "0.25" is "100.75".
func AddAmounts(values ...string) (string, error) {
	scale := 0
	for _, v := range values {
		if !amountPattern.MatchString(v) {
			return "", common.NewAppError("VALIDATION_ERROR",
				fmt.Sprintf("invalid amount %q", v), http.StatusBadRequest, nil)
		}
		if dot := strings.IndexByte(v, '.'); dot >= 0 {
			if frac := len(v) - dot - 1; frac > scale {
				scale = frac
			}
		}
	}
	var sum int64
	for _, v := range values {
		n, err := scaledInt(v, scale)
		if err != nil {
			return "", err
		}
		sum += n
	}
	return formatScaled(sum, scale), nil
}

func scaledInt(v string, scale int) (int64, error) {
	whole, frac, _ := strings.Cut(v, ".")
	for len(frac) < scale {
		frac += "0"
	}
	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("amount %q out of range", v), http.StatusBadRequest, err)
	}
	return n, nil
}

func formatScaled(n int64, scale int) string {
	if scale == 0 {
		return strconv.FormatInt(n, 10)
	}
	digits := strconv.FormatInt(n, 10)
	for len(digits) <= scale {
		digits = "0" + digits
	}
	cut := len(digits) - scale
	return digits[:cut] + "." + digits[cut:]
}
