package notifier

import (
	"context"

	"github.com/shopspring/decimal"
)

// ReviewContext carries everything the operator needs to resolve a problem
// payment by hand, without consulting logs
type ReviewContext struct {
	MessageID string
	Sender    string
	Subject   string
	Amount    decimal.Decimal
	Reason    string
	Detail    string
	Expected  decimal.Decimal
	Received  decimal.Decimal
	InvoiceID string
}

// Dispatcher sends manual-review alerts to the operator. Delivery is
// fire-and-forget: callers log failures and never escalate them into
// pipeline failures.
type Dispatcher interface {
	NotifyManualReview(ctx context.Context, rc ReviewContext) error
}
