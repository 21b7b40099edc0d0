package invoicer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmate-go/internal/model"
)

type scriptedGateway struct {
	clientCalls int
	markErr     error
	sendErr     error
	items       []LineItem
	notes       string
}

func (g *scriptedGateway) FindOrCreateClient(ctx context.Context, tenant *model.Tenant) (string, error) {
	g.clientCalls++
	return "client-1", nil
}

func (g *scriptedGateway) CreateInvoice(ctx context.Context, clientID string, items []LineItem, date time.Time, publicNotes string) (*Invoice, error) {
	g.items = items
	g.notes = publicNotes
	return &Invoice{ID: "inv-1", Number: "0001"}, nil
}

func (g *scriptedGateway) MarkPaid(ctx context.Context, invoiceID string, amount decimal.Decimal, date time.Time) error {
	return g.markErr
}

func (g *scriptedGateway) SendEmail(ctx context.Context, invoiceID string) error {
	return g.sendErr
}

func testTenant() *model.Tenant {
	return &model.Tenant{
		Name:        "Jane Doe",
		Unit:        "101",
		MonthlyRent: decimal.RequireFromString("1300.00"),
		ParkingFee:  decimal.RequireFromString("50.00"),
	}
}

func TestIssueReceiptBuildsLineItems(t *testing.T) {
	g := &scriptedGateway{}
	tenant := testTenant()

	clientID, invoiceID, err := IssueReceipt(context.Background(), g, tenant,
		decimal.RequireFromString("1350.00"), "November 2024", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "client-1", clientID)
	assert.Equal(t, "inv-1", invoiceID)

	require.Len(t, g.items, 2)
	assert.Equal(t, "RENT", g.items[0].ProductKey)
	assert.Equal(t, "Monthly Rent - November 2024", g.items[0].Notes)
	assert.Equal(t, "PARKING", g.items[1].ProductKey)
	assert.Equal(t, "Rent Receipt (Unit 101) for November 2024", g.notes)
}

func TestIssueReceiptSkipsParkingWhenZero(t *testing.T) {
	g := &scriptedGateway{}
	tenant := testTenant()
	tenant.ParkingFee = decimal.Zero
	tenant.Unit = ""

	_, _, err := IssueReceipt(context.Background(), g, tenant,
		decimal.RequireFromString("1300.00"), "November 2024", time.Now())
	require.NoError(t, err)

	require.Len(t, g.items, 1)
	assert.Equal(t, "RENT", g.items[0].ProductKey)
	assert.Equal(t, "Rent Receipt for November 2024", g.notes)
}

func TestIssueReceiptReusesKnownClient(t *testing.T) {
	g := &scriptedGateway{}
	tenant := testTenant()
	tenant.NinjaClientID = "client-9"

	clientID, _, err := IssueReceipt(context.Background(), g, tenant,
		decimal.RequireFromString("1350.00"), "November 2024", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "client-9", clientID)
	assert.Zero(t, g.clientCalls)
}

func TestIssueReceiptReturnsInvoiceOnLaterFailure(t *testing.T) {
	g := &scriptedGateway{markErr: errors.New("payment endpoint down")}

	_, invoiceID, err := IssueReceipt(context.Background(), g, testTenant(),
		decimal.RequireFromString("1350.00"), "November 2024", time.Now())
	require.Error(t, err)

	// The invoice exists at the gateway even though the flow failed.
	assert.Equal(t, "inv-1", invoiceID)
}
