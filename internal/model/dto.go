package model

import (
	"time"

	"github.com/google/uuid"
)

type UserBrief struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

type DriverBrief struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone"`
}

type VehicleBrief struct {
	ID          uuid.UUID   `json:"id"`
	PlateNumber string      `json:"plate_number"`
	Make        string      `json:"make"`
	Model       string      `json:"model"`
	Type        VehicleType `json:"type"`
}

type DepartmentBrief struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RequestRecord is the list/detail projection of a dispatch request with its
// related rows flattened for the dashboard.
type RequestRecord struct {
	Request    DispatchRequest  `json:"request"`
	Requester  *UserBrief       `json:"requester"`
	Department *DepartmentBrief `json:"department"`
	Vehicle    *VehicleBrief    `json:"vehicle"`
	Driver     *DriverBrief     `json:"driver"`
}

func BuildRequestRecord(r DispatchRequest) RequestRecord {
	record := RequestRecord{Request: r}
	if r.Requester != nil {
		record.Requester = &UserBrief{
			ID:       r.Requester.ID,
			FullName: r.Requester.FullName,
			Email:    r.Requester.Email,
		}
	}
	if r.Department != nil {
		record.Department = &DepartmentBrief{
			ID:   r.Department.ID,
			Name: r.Department.Name,
		}
	}
	if r.Vehicle != nil {
		record.Vehicle = &VehicleBrief{
			ID:          r.Vehicle.ID,
			PlateNumber: r.Vehicle.PlateNumber,
			Make:        r.Vehicle.Make,
			Model:       r.Vehicle.Model,
			Type:        r.Vehicle.Type,
		}
	}
	if r.Driver != nil {
		record.Driver = &DriverBrief{
			ID:       r.Driver.ID,
			FullName: r.Driver.FullName,
			Phone:    r.Driver.Phone,
		}
	}
	return record
}

type TripRecord struct {
	Trip    Trip          `json:"trip"`
	Vehicle *VehicleBrief `json:"vehicle"`
	Driver  *DriverBrief  `json:"driver"`
	Reviews []TripReview  `json:"reviews,omitempty"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
