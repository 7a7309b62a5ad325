package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPendingSupervisor RequestStatus = "PENDING_SUPERVISOR"
	RequestStatusPendingFleet      RequestStatus = "PENDING_FLEET"
	RequestStatusApproved          RequestStatus = "APPROVED"
	RequestStatusDenied            RequestStatus = "DENIED"
	RequestStatusActive            RequestStatus = "ACTIVE"
	RequestStatusCompleted         RequestStatus = "COMPLETED"
)

// statusRank orders the lifecycle; transitions may only move to a higher rank.
var statusRank = map[RequestStatus]int{
	RequestStatusPendingSupervisor: 0,
	RequestStatusPendingFleet:      1,
	RequestStatusApproved:          2,
	RequestStatusDenied:            2,
	RequestStatusActive:            3,
	RequestStatusCompleted:         4,
}

// CanTransition reports whether moving from one request status to another is a
// legal forward step. DENIED and COMPLETED are terminal.
func CanTransition(from, to RequestStatus) bool {
	if from == RequestStatusDenied || from == RequestStatusCompleted {
		return false
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if to == RequestStatusActive && from != RequestStatusApproved {
		return false
	}
	if to == RequestStatusCompleted && from != RequestStatusActive {
		return false
	}
	return toRank > fromRank
}

type DispatchRequest struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RequesterID        uuid.UUID     `gorm:"type:uuid;not null" json:"requester_id"`
	MinistryID         uuid.UUID     `gorm:"type:uuid;not null" json:"ministry_id"`
	DepartmentID       uuid.UUID     `gorm:"type:uuid;not null" json:"department_id"`
	Purpose            string        `gorm:"type:text;not null" json:"purpose"`
	Origin             string        `gorm:"type:varchar(255);not null" json:"origin"`
	Destination        string        `gorm:"type:varchar(255);not null" json:"destination"`
	RequestedStartAt   time.Time     `gorm:"not null" json:"requested_start_at"`
	VehicleType        VehicleType   `gorm:"type:varchar(32)" json:"vehicle_type"`
	PreferredVehicleID *uuid.UUID    `gorm:"type:uuid" json:"preferred_vehicle_id"`
	Status             RequestStatus `gorm:"type:request_status;not null;default:'PENDING_FLEET'" json:"status"`
	QueuePosition      int           `gorm:"not null;default:0" json:"queue_position"`
	VehicleID          *uuid.UUID    `gorm:"type:uuid" json:"vehicle_id"`
	DriverID           *uuid.UUID    `gorm:"type:uuid" json:"driver_id"`
	DecisionNote       string        `gorm:"type:text" json:"decision_note"`
	DecidedBy          *uuid.UUID    `gorm:"type:uuid" json:"decided_by"`
	DecidedAt          *time.Time    `json:"decided_at"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Requester  *User       `gorm:"foreignKey:RequesterID" json:"-"`
	Department *Department `gorm:"foreignKey:DepartmentID" json:"-"`
	Vehicle    *Vehicle    `gorm:"foreignKey:VehicleID" json:"-"`
	Driver     *Driver     `gorm:"foreignKey:DriverID" json:"-"`
}

func (DispatchRequest) TableName() string {
	return "dispatch_requests"
}

// Queued reports whether the request is approved but still waiting for a
// vehicle to free up.
func (r DispatchRequest) Queued() bool {
	return r.Status == RequestStatusApproved && r.VehicleID == nil
}

type RequestStatusLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RequestID uuid.UUID      `gorm:"type:uuid;not null" json:"request_id"`
	OldStatus *RequestStatus `gorm:"type:request_status" json:"old_status"`
	NewStatus RequestStatus  `gorm:"type:request_status;not null" json:"new_status"`
	Note      string         `gorm:"type:text" json:"note"`
	ChangedBy *uuid.UUID     `gorm:"type:uuid" json:"changed_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (RequestStatusLog) TableName() string {
	return "request_status_log"
}

func (l *RequestStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
