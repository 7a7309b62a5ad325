package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch-service/internal/model"
)

// LedgerRepository covers the append-only maintenance and invoice tables.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) CreateMaintenanceRecord(ctx context.Context, record *model.MaintenanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *LedgerRepository) ListMaintenanceRecords(ctx context.Context, vehicleID uuid.UUID) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("serviced_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *LedgerRepository) CreateInvoice(ctx context.Context, invoice *model.VehicleInvoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *LedgerRepository) ListInvoices(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleInvoice, error) {
	var invoices []model.VehicleInvoice
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("issued_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
