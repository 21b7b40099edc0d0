package invoicer

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"propmate-go/internal/model"
)

// IssueReceipt drives the full receipt flow against the gateway: resolve the
// tenant's client, create the invoice with rent and parking line items, mark
// it paid and trigger receipt delivery. It returns the client id and the
// invoice id; the invoice id is returned even when a later step fails so the
// caller can reference the already-issued invoice.
func IssueReceipt(ctx context.Context, g Gateway, tenant *model.Tenant, amount decimal.Decimal, period string, date time.Time) (clientID, invoiceID string, err error) {
	clientID = tenant.NinjaClientID
	if clientID == "" {
		clientID, err = g.FindOrCreateClient(ctx, tenant)
		if err != nil {
			return "", "", err
		}
	}

	items := []LineItem{
		{
			ProductKey: "RENT",
			Notes:      fmt.Sprintf("Monthly Rent - %s", period),
			Quantity:   1,
			Cost:       tenant.MonthlyRent,
		},
	}
	if tenant.ParkingFee.IsPositive() {
		items = append(items, LineItem{
			ProductKey: "PARKING",
			Notes:      fmt.Sprintf("Parking Fee - %s", period),
			Quantity:   1,
			Cost:       tenant.ParkingFee,
		})
	}

	notes := fmt.Sprintf("Rent Receipt for %s", period)
	if tenant.Unit != "" {
		notes = fmt.Sprintf("Rent Receipt (Unit %s) for %s", tenant.Unit, period)
	}

	invoice, err := g.CreateInvoice(ctx, clientID, items, date, notes)
	if err != nil {
		return clientID, "", err
	}

	if err := g.MarkPaid(ctx, invoice.ID, amount, date); err != nil {
		return clientID, invoice.ID, err
	}

	if err := g.SendEmail(ctx, invoice.ID); err != nil {
		return clientID, invoice.ID, err
	}

	return clientID, invoice.ID, nil
}
