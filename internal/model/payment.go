package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment record statuses. A completed record is immutable; pending records
// may transition to completed or failed.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
)

// PaymentRecord is the durable fact that one notification email produced one
// receipted payment. MessageID carries the uniqueness constraint that makes
// the whole pipeline idempotent across retries and overlapping polls.
type PaymentRecord struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID    uint            `json:"tenant_id" gorm:"not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentDate time.Time       `json:"payment_date" gorm:"type:date;not null"`
	Period      string          `json:"period" gorm:"type:varchar(100)"`
	Status      string          `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	MessageID   string          `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	InvoiceID   string          `json:"invoice_id" gorm:"type:varchar(64)"`
	EmailSent   bool            `json:"email_sent" gorm:"not null;default:false"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName specifies the table name for PaymentRecord
func (PaymentRecord) TableName() string {
	return "payments"
}
