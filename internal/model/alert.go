package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertCondition string

const (
	AlertContractExpiry  AlertCondition = "CONTRACT_EXPIRY"
	AlertInsuranceExpiry AlertCondition = "INSURANCE_EXPIRY"
	AlertServiceDue      AlertCondition = "SERVICE_DUE"
)

// VehicleAlert records that an alert was issued for a vehicle/condition on a
// given day. The unique index makes the daily sweep idempotent.
type VehicleAlert struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_vehicle_alert_day,priority:1" json:"vehicle_id"`
	Condition AlertCondition `gorm:"type:varchar(32);not null;uniqueIndex:uniq_vehicle_alert_day,priority:2" json:"condition"`
	AlertDate string         `gorm:"type:date;not null;uniqueIndex:uniq_vehicle_alert_day,priority:3" json:"alert_date"`
	Detail    string         `gorm:"type:text" json:"detail"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (VehicleAlert) TableName() string {
	return "vehicle_alerts"
}

func (a *VehicleAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
