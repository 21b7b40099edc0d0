package model

import (
	"time"

	"gorm.io/gorm"
)

// Property represents a rental property in the database
type Property struct {
	ID         uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string         `json:"name" gorm:"type:varchar(255);not null"`
	Address    string         `json:"address" gorm:"type:varchar(255);not null"`
	City       string         `json:"city" gorm:"type:varchar(100);not null"`
	Province   string         `json:"province" gorm:"type:varchar(50);default:'AB'"`
	PostalCode string         `json:"postal_code" gorm:"type:varchar(20)"`
	Phone      string         `json:"phone" gorm:"type:varchar(50)"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for Property
func (Property) TableName() string {
	return "properties"
}
