package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"propmate-go/internal/model"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&model.Property{}, &model.Tenant{}, &model.PaymentRecord{}))
	return New(conn)
}

func seedTenant(t *testing.T, repo *Repository) *model.Tenant {
	t.Helper()

	property := model.Property{Name: "Maple House", Address: "12 Maple St", City: "Calgary"}
	require.NoError(t, repo.CreateProperty(&property))

	tenant := model.Tenant{
		PropertyID:   property.ID,
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		MonthlyRent:  decimal.RequireFromString("1300.00"),
		ParkingFee:   decimal.RequireFromString("50.00"),
		NextDueMonth: "2024-11",
	}
	require.NoError(t, repo.CreateTenant(&tenant))
	return &tenant
}

func paymentFor(tenant *model.Tenant, messageID string) *model.PaymentRecord {
	return &model.PaymentRecord{
		TenantID:    tenant.ID,
		Amount:      decimal.RequireFromString("1350.00"),
		PaymentDate: time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC),
		Period:      "November 2024",
		Status:      model.PaymentStatusCompleted,
		MessageID:   messageID,
		InvoiceID:   "inv-1",
		EmailSent:   true,
	}
}

func TestRecordCompletedPaymentAdvancesTenant(t *testing.T) {
	repo := setupRepo(t)
	tenant := seedTenant(t, repo)

	updated := *tenant
	updated.NextDueMonth = "2024-12"
	updated.LastInvoiceNo = 1
	updated.NinjaClientID = "client-1"

	require.NoError(t, repo.RecordCompletedPayment(paymentFor(tenant, "msg-1"), &updated))

	exists, err := repo.ExistsPaymentForMessage("msg-1")
	require.NoError(t, err)
	assert.True(t, exists)

	reloaded, err := repo.GetTenant(tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-12", reloaded.NextDueMonth)
	assert.Equal(t, 1, reloaded.LastInvoiceNo)
	assert.Equal(t, "client-1", reloaded.NinjaClientID)
	assert.Equal(t, tenant.Version+1, reloaded.Version)
}

func TestRecordCompletedPaymentDuplicateMessage(t *testing.T) {
	repo := setupRepo(t)
	tenant := seedTenant(t, repo)

	updated := *tenant
	updated.NextDueMonth = "2024-12"
	require.NoError(t, repo.RecordCompletedPayment(paymentFor(tenant, "msg-1"), &updated))

	// Same message again, fresh tenant state.
	reloaded, err := repo.GetTenant(tenant.ID)
	require.NoError(t, err)
	again := *reloaded
	again.NextDueMonth = "2025-01"

	err = repo.RecordCompletedPayment(paymentFor(tenant, "msg-1"), &again)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Whole transaction rolled back: the tenant did not advance twice.
	final, err := repo.GetTenant(tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-12", final.NextDueMonth)
}

func TestRecordCompletedPaymentVersionConflict(t *testing.T) {
	repo := setupRepo(t)
	tenant := seedTenant(t, repo)

	first := *tenant
	first.NextDueMonth = "2024-12"
	require.NoError(t, repo.RecordCompletedPayment(paymentFor(tenant, "msg-1"), &first))

	// Stale version: the tenant row moved on since this copy was read.
	stale := *tenant
	stale.NextDueMonth = "2025-01"

	err := repo.RecordCompletedPayment(paymentFor(tenant, "msg-2"), &stale)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The payment insert rolled back with the failed tenant update.
	exists, err := repo.ExistsPaymentForMessage("msg-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFindTenantsByNormalizedName(t *testing.T) {
	repo := setupRepo(t)
	seedTenant(t, repo)

	tenants, err := repo.FindTenantsByNormalizedName("  JANE   doe ")
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "Jane Doe", tenants[0].Name)

	tenants, err = repo.FindTenantsByNormalizedName("John Doe")
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestListPaymentsFiltersByTenant(t *testing.T) {
	repo := setupRepo(t)
	tenant := seedTenant(t, repo)

	other := model.Tenant{
		PropertyID:   tenant.PropertyID,
		Name:         "Bob Smith",
		MonthlyRent:  decimal.RequireFromString("900.00"),
		ParkingFee:   decimal.Zero,
		NextDueMonth: "2024-11",
	}
	require.NoError(t, repo.CreateTenant(&other))

	u1 := *tenant
	u1.NextDueMonth = "2024-12"
	require.NoError(t, repo.RecordCompletedPayment(paymentFor(tenant, "msg-1"), &u1))

	u2 := other
	u2.NextDueMonth = "2024-12"
	require.NoError(t, repo.RecordCompletedPayment(paymentFor(&other, "msg-2"), &u2))

	all, err := repo.ListPayments(0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListPayments(tenant.ID, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "msg-1", mine[0].MessageID)
}
