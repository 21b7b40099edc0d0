package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"propmate-go/internal/model"
)

// Sentinel errors surfaced from the store. ErrDuplicateKey on a payment
// insert means another run already recorded this message; callers treat it
// as an idempotent no-op. ErrVersionConflict means the tenant row changed
// between validation and the write.
var (
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrVersionConflict = errors.New("tenant version conflict")
)

// Repository is the gorm-backed ledger of properties, tenants and payments
type Repository struct {
	db *gorm.DB
}

// New creates a new repository
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ExistsPaymentForMessage reports whether a payment record already exists
// for the given source message identifier. This is the dedup check that
// makes reprocessing safe.
func (r *Repository) ExistsPaymentForMessage(messageID string) (bool, error) {
	var count int64
	result := r.db.Model(&model.PaymentRecord{}).Where("message_id = ?", messageID).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("database error checking payment for message: %w", result.Error)
	}
	return count > 0, nil
}

// FindTenantsByNormalizedName returns every tenant whose normalized name
// equals the normalized form of the given name. More than one result means
// the portfolio has duplicate tenant names and the caller must not guess.
func (r *Repository) FindTenantsByNormalizedName(name string) ([]model.Tenant, error) {
	var tenants []model.Tenant
	result := r.db.Where("name_normalized = ?", model.NormalizeName(name)).Find(&tenants)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to look up tenants by name: %w", result.Error)
	}
	return tenants, nil
}

// RecordCompletedPayment writes the payment record and advances the tenant's
// billing state in one transaction. The tenant update is guarded by the
// version read at match time; a concurrent change rolls the whole write back
// with ErrVersionConflict so no record exists without the matching tenant
// advance.
func (r *Repository) RecordCompletedPayment(rec *model.PaymentRecord, tenant *model.Tenant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("failed to insert payment record: %w", err)
		}

		result := tx.Model(&model.Tenant{}).
			Where("id = ? AND version = ?", tenant.ID, tenant.Version).
			Updates(map[string]interface{}{
				"next_due_month":  tenant.NextDueMonth,
				"last_invoice_no": tenant.LastInvoiceNo,
				"ninja_client_id": tenant.NinjaClientID,
				"version":         tenant.Version + 1,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update tenant after payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
}

// CreateProperty creates a new property
func (r *Repository) CreateProperty(p *model.Property) error {
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// GetProperty returns a property by ID
func (r *Repository) GetProperty(id uint) (*model.Property, error) {
	var p model.Property
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProperties returns all properties
func (r *Repository) ListProperties() ([]model.Property, error) {
	var properties []model.Property
	if err := r.db.Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// UpdateProperty saves address edits to an existing property
func (r *Repository) UpdateProperty(p *model.Property) error {
	if err := r.db.Save(p).Error; err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	return nil
}

// CreateTenant creates a new tenant
func (r *Repository) CreateTenant(t *model.Tenant) error {
	if err := r.db.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetTenant returns a tenant with its property by ID
func (r *Repository) GetTenant(id uint) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.Preload("Property").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTenants returns all tenants with their properties
func (r *Repository) ListTenants() ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := r.db.Preload("Property").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// ListPayments returns payment records ordered by payment date, optionally
// filtered by tenant
func (r *Repository) ListPayments(tenantID uint, limit int) ([]model.PaymentRecord, error) {
	query := r.db.Preload("Tenant").Order("payment_date desc").Limit(limit)
	if tenantID != 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}
	var payments []model.PaymentRecord
	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
