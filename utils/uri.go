package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentURI builds the scheme:address?amount= string handed to a QR
// renderer. Rendering itself is a caller concern.
func PaymentURI(scheme, address string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s:%s?amount=%s", scheme, address, amount.String())
}
