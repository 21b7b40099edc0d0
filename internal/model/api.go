package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PropertyRequest represents the request structure for creating/updating properties
type PropertyRequest struct {
	Name       string `json:"name" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// TenantRequest represents the request structure for creating/updating tenants
type TenantRequest struct {
	PropertyID  uint            `json:"property_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Email       string          `json:"email" binding:"required,email"`
	Phone       string          `json:"phone"`
	Unit        string          `json:"unit"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" binding:"required"`
	ParkingFee  decimal.Decimal `json:"parking_fee"`
}

// ReceiptRequest represents a manual receipt send request
type ReceiptRequest struct {
	TenantID uint            `json:"tenant_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Period   string          `json:"period" binding:"required"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
