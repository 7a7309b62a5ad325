package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch-service/internal/model"
)

// The services own these interfaces; internal/repository provides the gorm
// implementations. Records come back as plain structs with any needed
// relations pre-fetched, there is no lazy loading behind them.

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error)
	DriverByUserID(ctx context.Context, userID uuid.UUID) (*model.Driver, error)
}

type RequestFilter struct {
	RequesterID  *uuid.UUID
	DepartmentID *uuid.UUID
	MinistryID   *uuid.UUID
	Statuses     []model.RequestStatus
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

type RequestStore interface {
	Create(ctx context.Context, req *model.DispatchRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.DispatchRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.DispatchRequest, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus, note string, decidedBy *uuid.UUID) error
	// RecordDecision stamps decision_note, decided_by and decided_at without
	// touching the status, for paths where Allocate already moved it.
	RecordDecision(ctx context.Context, id uuid.UUID, note string, decidedBy uuid.UUID) error
	LogStatusChange(ctx context.Context, entry *model.RequestStatusLog) error
}

type VehicleFilter struct {
	MinistryID *uuid.UUID
	Statuses   []model.VehicleStatus
	Type       model.VehicleType
	Search     string
	Limit      int
	Offset     int
}

// Allocation is the outcome of one atomic vehicle+driver assignment attempt.
// Vehicle is nil when the request was queued instead; QueuePosition then
// carries the position that was assigned.
type Allocation struct {
	Vehicle       *model.Vehicle
	Driver        *model.Driver
	Trip          *model.Trip
	QueuePosition int
}

type FleetStore interface {
	GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	SaveVehicle(ctx context.Context, vehicle *model.Vehicle) error
	GetDriver(ctx context.Context, id uuid.UUID) (*model.Driver, error)

	// Allocate runs the critical section of the fleet decision: inside one
	// transaction it locks candidate vehicle rows, assigns the first free
	// vehicle and driver to the request and creates the UPCOMING trip, or
	// parks the request at the tail of its ministry/type queue. Two callers
	// racing for the last vehicle see exactly one winner; the loser queues.
	Allocate(ctx context.Context, requestID uuid.UUID, maxActivePerDriver int) (*Allocation, error)

	// QueuedRequests returns approved-but-unassigned requests for a ministry
	// in FIFO order (queue_position, then request id).
	QueuedRequests(ctx context.Context, ministryID uuid.UUID) ([]model.DispatchRequest, error)
}

type TripStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Trip, error)
	Save(ctx context.Context, trip *model.Trip) error
	AddFuelLog(ctx context.Context, entry *model.FuelLog) error
	CreateReview(ctx context.Context, review *model.TripReview) error
	HasReview(ctx context.Context, tripID uuid.UUID, role model.ReviewerRole) (bool, error)
	ListReviews(ctx context.Context, tripID uuid.UUID) ([]model.TripReview, error)
}

type LedgerStore interface {
	CreateMaintenanceRecord(ctx context.Context, record *model.MaintenanceRecord) error
	ListMaintenanceRecords(ctx context.Context, vehicleID uuid.UUID) ([]model.MaintenanceRecord, error)
	CreateInvoice(ctx context.Context, invoice *model.VehicleInvoice) error
	ListInvoices(ctx context.Context, vehicleID uuid.UUID) ([]model.VehicleInvoice, error)
}

type AlertStore interface {
	ActiveVehicles(ctx context.Context) ([]model.Vehicle, error)
	// RecordAlert inserts the (vehicle, condition, day) marker and reports
	// whether the row was new. A false return means the alert was already
	// issued today.
	RecordAlert(ctx context.Context, alert *model.VehicleAlert) (bool, error)
}

// QueueReconciler re-runs allocation for queued requests after a vehicle
// returns to the available pool.
type QueueReconciler interface {
	ReconcileQueue(ctx context.Context, ministryID uuid.UUID) error
}
