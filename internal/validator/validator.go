package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"propmate-go/internal/model"
)

// AmountMismatchError reports a received amount that does not equal the
// tenant's expected obligation
type AmountMismatchError struct {
	Expected decimal.Decimal
	Received decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: received $%s, expected $%s",
		e.Received.StringFixed(2), e.Expected.StringFixed(2))
}

// ValidateAmount requires the received amount to equal rent plus parking fee
// exactly, to the cent. There is no tolerance band and no partial-payment
// acceptance: any discrepancy is a human decision.
func ValidateAmount(received decimal.Decimal, tenant *model.Tenant) error {
	expected := tenant.ExpectedAmount()
	if !received.Equal(expected) {
		return &AmountMismatchError{Expected: expected, Received: received}
	}
	return nil
}
