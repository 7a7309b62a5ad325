package model

import (
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleStatusAvailable     VehicleStatus = "AVAILABLE"
	VehicleStatusAssigned      VehicleStatus = "ASSIGNED"
	VehicleStatusInMaintenance VehicleStatus = "IN_MAINTENANCE"
	VehicleStatusInactive      VehicleStatus = "INACTIVE"
)

type VehicleType string

const (
	VehicleTypeSedan VehicleType = "SEDAN"
	VehicleTypeSUV   VehicleType = "SUV"
	VehicleTypeVan   VehicleType = "VAN"
	VehicleTypeBus   VehicleType = "BUS"
	VehicleTypeTruck VehicleType = "TRUCK"
)

type VehicleOwnership string

const (
	VehicleOwned VehicleOwnership = "OWNED"
	VehicleHired VehicleOwnership = "HIRED"
)

type Vehicle struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	MinistryID          uuid.UUID        `gorm:"type:uuid;not null" json:"ministry_id"`
	PlateNumber         string           `gorm:"type:varchar(32);not null;uniqueIndex" json:"plate_number"`
	Make                string           `gorm:"type:varchar(64)" json:"make"`
	Model               string           `gorm:"type:varchar(64)" json:"model"`
	Type                VehicleType      `gorm:"type:varchar(32);not null" json:"type"`
	Status              VehicleStatus    `gorm:"type:vehicle_status;not null;default:'AVAILABLE'" json:"status"`
	Ownership           VehicleOwnership `gorm:"type:vehicle_ownership;not null;default:'OWNED'" json:"ownership"`
	Odometer            int64            `gorm:"not null;default:0" json:"odometer"`
	NextServiceOdometer int64            `gorm:"not null;default:0" json:"next_service_odometer"`
	MonthlyMileageLimit int64            `gorm:"not null;default:0" json:"monthly_mileage_limit"`
	MonthToDateMileage  int64            `gorm:"not null;default:0" json:"month_to_date_mileage"`
	ContractEndAt       *time.Time       `json:"contract_end_at"`
	InsuranceExpiresAt  *time.Time       `json:"insurance_expires_at"`
	InsuranceDocumentURL string          `gorm:"type:text" json:"insurance_document_url"`
	DefaultDriverID     *uuid.UUID       `gorm:"type:uuid" json:"default_driver_id"`
	Retired             bool             `gorm:"not null;default:false" json:"retired"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	Ministry      *Ministry `gorm:"foreignKey:MinistryID" json:"-"`
	DefaultDriver *Driver   `gorm:"foreignKey:DefaultDriverID" json:"-"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// ServiceDue reports whether the vehicle has run past its service threshold.
func (v Vehicle) ServiceDue() bool {
	return v.NextServiceOdometer > 0 && v.Odometer >= v.NextServiceOdometer
}

type Driver struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	MinistryID    uuid.UUID `gorm:"type:uuid;not null" json:"ministry_id"`
	FullName      string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone         string    `gorm:"type:varchar(32)" json:"phone"`
	LicenseNumber string    `gorm:"type:varchar(64)" json:"license_number"`
	Active        bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Driver) TableName() string {
	return "drivers"
}
