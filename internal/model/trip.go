package model

import (
	"time"

	"github.com/google/uuid"
)

type TripStatus string

const (
	TripStatusUpcoming  TripStatus = "UPCOMING"
	TripStatusActive    TripStatus = "ACTIVE"
	TripStatusCompleted TripStatus = "COMPLETED"
)

type Trip struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RequestID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"request_id"`
	VehicleID     uuid.UUID  `gorm:"type:uuid;not null" json:"vehicle_id"`
	DriverID      uuid.UUID  `gorm:"type:uuid;not null" json:"driver_id"`
	Status        TripStatus `gorm:"type:trip_status;not null;default:'UPCOMING'" json:"status"`
	StartedAt     *time.Time `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	StartOdometer *int64     `json:"start_odometer"`
	EndOdometer   *int64     `json:"end_odometer"`
	DistanceKM    int64      `gorm:"not null;default:0" json:"distance_km"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Request  *DispatchRequest `gorm:"foreignKey:RequestID" json:"-"`
	Vehicle  *Vehicle         `gorm:"foreignKey:VehicleID" json:"-"`
	Driver   *Driver          `gorm:"foreignKey:DriverID" json:"-"`
	FuelLogs []FuelLog        `gorm:"foreignKey:TripID" json:"fuel_logs,omitempty"`
}

func (Trip) TableName() string {
	return "trips"
}

type FuelLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TripID    uuid.UUID `gorm:"type:uuid;not null" json:"trip_id"`
	Liters    float64   `gorm:"not null" json:"liters"`
	Cost      float64   `gorm:"not null;default:0" json:"cost"`
	Odometer  int64     `gorm:"not null;default:0" json:"odometer"`
	LoggedBy  uuid.UUID `gorm:"type:uuid;not null" json:"logged_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FuelLog) TableName() string {
	return "trip_fuel_logs"
}

type ReviewerRole string

const (
	ReviewerRequester ReviewerRole = "REQUESTER"
	ReviewerDriver    ReviewerRole = "DRIVER"
)

type TripReview struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	TripID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_trip_review_role,priority:1" json:"trip_id"`
	ReviewerID   uuid.UUID    `gorm:"type:uuid;not null" json:"reviewer_id"`
	ReviewerRole ReviewerRole `gorm:"type:varchar(16);not null;uniqueIndex:uniq_trip_review_role,priority:2" json:"reviewer_role"`
	Rating       int          `gorm:"not null" json:"rating"`
	Comment      string       `gorm:"type:text" json:"comment"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (TripReview) TableName() string {
	return "trip_reviews"
}
