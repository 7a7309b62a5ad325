package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dispatch-service/internal/model"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) ActiveVehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := r.db.WithContext(ctx).
		Where("retired = FALSE AND status <> ?", model.VehicleStatusInactive).
		Order("plate_number ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// RecordAlert inserts with ON CONFLICT DO NOTHING on the daily unique index;
// a zero rows-affected result means the day's alert already exists.
func (r *AlertRepository) RecordAlert(ctx context.Context, alert *model.VehicleAlert) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
