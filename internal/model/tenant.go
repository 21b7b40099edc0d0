package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tenant represents a tenant belonging to exactly one property. The
// orchestrator is the only writer of NextDueMonth and LastInvoiceNo; both
// advance together after a completed payment cycle, guarded by Version.
type Tenant struct {
	ID             uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	PropertyID     uint            `json:"property_id" gorm:"not null;index"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null"`
	NameNormalized string          `json:"-" gorm:"type:varchar(255);not null;index"`
	Email          string          `json:"email" gorm:"type:varchar(255)"`
	Phone          string          `json:"phone" gorm:"type:varchar(50)"`
	Unit           string          `json:"unit" gorm:"type:varchar(50)"`
	MonthlyRent    decimal.Decimal `json:"monthly_rent" gorm:"type:decimal(10,2);not null"`
	ParkingFee     decimal.Decimal `json:"parking_fee" gorm:"type:decimal(10,2);not null;default:0"`
	NextDueMonth   string          `json:"next_due_month" gorm:"type:varchar(7)"`
	LastInvoiceNo  int             `json:"last_invoice_no" gorm:"not null;default:0"`
	NinjaClientID  string          `json:"ninja_client_id" gorm:"type:varchar(64)"`
	Version        uint            `json:"-" gorm:"not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeSave keeps the normalized name column in sync with the display name
func (t *Tenant) BeforeSave(tx *gorm.DB) error {
	t.NameNormalized = NormalizeName(t.Name)
	return nil
}

// ExpectedAmount returns the exact monthly obligation: rent plus parking fee
func (t *Tenant) ExpectedAmount() decimal.Decimal {
	return t.MonthlyRent.Add(t.ParkingFee)
}

// NormalizeName trims the name, collapses internal whitespace runs and
// case-folds it. Sender-to-tenant matching is exact equality on this form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
