package model

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceRecord and VehicleInvoice are append-only ledger rows; they are
// never updated after creation.

type MaintenanceRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID   uuid.UUID `gorm:"type:uuid;not null" json:"vehicle_id"`
	MinistryID  uuid.UUID `gorm:"type:uuid;not null" json:"ministry_id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Cost        float64   `gorm:"not null;default:0" json:"cost"`
	Odometer    int64     `gorm:"not null;default:0" json:"odometer"`
	ServicedAt  time.Time `gorm:"not null" json:"serviced_at"`
	RecordedBy  uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MaintenanceRecord) TableName() string {
	return "vehicle_maintenance_records"
}

type VehicleInvoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID     uuid.UUID `gorm:"type:uuid;not null" json:"vehicle_id"`
	MinistryID    uuid.UUID `gorm:"type:uuid;not null" json:"ministry_id"`
	InvoiceNumber string    `gorm:"type:varchar(64);not null" json:"invoice_number"`
	Vendor        string    `gorm:"type:varchar(255)" json:"vendor"`
	Amount        float64   `gorm:"not null" json:"amount"`
	IssuedAt      time.Time `gorm:"not null" json:"issued_at"`
	RecordedBy    uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (VehicleInvoice) TableName() string {
	return "vehicle_invoices"
}
