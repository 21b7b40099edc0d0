package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"propmate-go/internal/invoicer"
	"propmate-go/internal/model"
	"propmate-go/internal/repository"
)

type stubGateway struct{}

func (g *stubGateway) FindOrCreateClient(ctx context.Context, tenant *model.Tenant) (string, error) {
	return "client-1", nil
}

func (g *stubGateway) CreateInvoice(ctx context.Context, clientID string, items []invoicer.LineItem, date time.Time, publicNotes string) (*invoicer.Invoice, error) {
	return &invoicer.Invoice{ID: "inv-1", Number: "0001"}, nil
}

func (g *stubGateway) MarkPaid(ctx context.Context, invoiceID string, amount decimal.Decimal, date time.Time) error {
	return nil
}

func (g *stubGateway) SendEmail(ctx context.Context, invoiceID string) error { return nil }

func setupAPI(t *testing.T) (*gin.Engine, *repository.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&model.Property{}, &model.Tenant{}, &model.PaymentRecord{}))

	repo := repository.New(conn)
	h := NewHandlers(conn, repo, nil, &stubGateway{})

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/properties", h.ListProperties)
	api.POST("/properties", h.CreateProperty)
	api.GET("/properties/:id", h.GetProperty)
	api.PUT("/properties/:id", h.UpdateProperty)
	api.GET("/tenants", h.ListTenants)
	api.POST("/tenants", h.CreateTenant)
	api.GET("/tenants/:id", h.GetTenant)
	api.GET("/payments", h.ListPayments)
	api.POST("/receipts/send", h.SendReceipt)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPropertyCRUD(t *testing.T) {
	r, _ := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/properties", model.PropertyRequest{
		Name:    "Maple House",
		Address: "12 Maple St",
		City:    "Calgary",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	w = doJSON(t, r, http.MethodGet, "/api/v1/properties", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/properties/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/properties", map[string]string{"name": "no address"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTenantRequiresProperty(t *testing.T) {
	r, _ := setupAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/tenants", model.TenantRequest{
		PropertyID:  42,
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		MonthlyRent: decimal.RequireFromString("1300.00"),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendReceiptRecordsPayment(t *testing.T) {
	r, repo := setupAPI(t)

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

	w := doJSON(t, r, http.MethodPost, "/api/v1/receipts/send", model.ReceiptRequest{
		TenantID: tenant.ID,
		Amount:   decimal.RequireFromString("1350.00"),
		Period:   "November 2024",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	payments, err := repo.ListPayments(tenant.ID, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "inv-1", payments[0].InvoiceID)
	assert.Equal(t, "November 2024", payments[0].Period)

	// Manual receipts advance the invoice counter but not the billing month.
	reloaded, err := repo.GetTenant(tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.LastInvoiceNo)
	assert.Equal(t, "2024-11", reloaded.NextDueMonth)

	w = doJSON(t, r, http.MethodPost, "/api/v1/receipts/send", model.ReceiptRequest{
		TenantID: 999,
		Amount:   decimal.RequireFromString("1350.00"),
		Period:   "November 2024",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
