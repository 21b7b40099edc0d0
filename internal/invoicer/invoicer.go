package invoicer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"propmate-go/internal/model"
)

// LineItem is one invoice line in the gateway's wire format
type LineItem struct {
	ProductKey string          `json:"product_key"`
	Notes      string          `json:"notes"`
	Quantity   int             `json:"quantity"`
	Cost       decimal.Decimal `json:"cost"`
}

// Invoice is the subset of the gateway's invoice representation the
// pipeline needs
type Invoice struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// Gateway is the invoicing service capability surface. All calls are keyed
// by identifiers the orchestrator already holds; the gateway keeps no
// hidden state on our behalf.
type Gateway interface {
	FindOrCreateClient(ctx context.Context, tenant *model.Tenant) (string, error)
	CreateInvoice(ctx context.Context, clientID string, items []LineItem, date time.Time, publicNotes string) (*Invoice, error)
	MarkPaid(ctx context.Context, invoiceID string, amount decimal.Decimal, date time.Time) error
	SendEmail(ctx context.Context, invoiceID string) error
}
