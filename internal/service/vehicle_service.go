package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"dispatch-service/internal/model"
)

// VehicleService covers fleet administration: vehicle CRUD, default driver
// assignment, and the maintenance/invoice ledgers.
type VehicleService struct {
	fleet      FleetStore
	ledger     LedgerStore
	reconciler QueueReconciler
	log        zerolog.Logger
}

func NewVehicleService(fleet FleetStore, ledger LedgerStore, reconciler QueueReconciler, log zerolog.Logger) *VehicleService {
	return &VehicleService{fleet: fleet, ledger: ledger, reconciler: reconciler, log: log}
}

type VehicleInput struct {
	PlateNumber         string
	Make                string
	Model               string
	Type                model.VehicleType
	Ownership           model.VehicleOwnership
	Odometer            int64
	NextServiceOdometer int64
	MonthlyMileageLimit int64
	ContractEndAt       *time.Time
	InsuranceExpiresAt  *time.Time
	InsuranceDocumentURL string
}

func (s *VehicleService) List(ctx context.Context, principal model.Principal, filter VehicleFilter) ([]model.Vehicle, error) {
	ministry := principal.MinistryID
	filter.MinistryID = &ministry
	return s.fleet.ListVehicles(ctx, filter)
}

func (s *VehicleService) Create(ctx context.Context, principal model.Principal, input VehicleInput) (*model.Vehicle, error) {
	if !(principal.IsAdmin() || principal.IsFleetManager()) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.PlateNumber) == "" || input.Type == "" {
		return nil, ErrInvalidInput
	}

	vehicle := &model.Vehicle{
		MinistryID:           principal.MinistryID,
		PlateNumber:          strings.ToUpper(strings.TrimSpace(input.PlateNumber)),
		Make:                 input.Make,
		Model:                input.Model,
		Type:                 input.Type,
		Status:               model.VehicleStatusAvailable,
		Ownership:            input.Ownership,
		Odometer:             input.Odometer,
		NextServiceOdometer:  input.NextServiceOdometer,
		MonthlyMileageLimit:  input.MonthlyMileageLimit,
		InsuranceDocumentURL: input.InsuranceDocumentURL,
	}
	if input.Ownership == "" {
		vehicle.Ownership = model.VehicleOwned
	}
	if input.ContractEndAt != nil {
		vehicle.ContractEndAt = input.ContractEndAt
	}
	if input.InsuranceExpiresAt != nil {
		vehicle.InsuranceExpiresAt = input.InsuranceExpiresAt
	}

	if err := s.fleet.CreateVehicle(ctx, vehicle); err != nil {
		return nil, err
	}

	// A brand-new AVAILABLE vehicle can serve requests already waiting.
	if err := s.reconciler.ReconcileQueue(ctx, vehicle.MinistryID); err != nil {
		s.log.Error().Err(err).Str("vehicle", vehicle.ID.String()).Msg("queue reconciliation failed")
	}
	return vehicle, nil
}

type VehicleUpdate struct {
	Status              *model.VehicleStatus
	Odometer            *int64
	NextServiceOdometer *int64
	MonthlyMileageLimit *int64
	ContractEndAt       *time.Time
	InsuranceExpiresAt  *time.Time
	Retired             *bool
}

// Update mutates fleet-managed fields. A status change back to AVAILABLE
// kicks off queue reconciliation, the same as a trip ending.
func (s *VehicleService) Update(ctx context.Context, principal model.Principal, vehicleID uuid.UUID, update VehicleUpdate) (*model.Vehicle, error) {
	if !(principal.IsAdmin() || principal.IsFleetManager()) {
		return nil, ErrPermissionDenied
	}

	vehicle, err := s.getScoped(ctx, principal, vehicleID)
	if err != nil {
		return nil, err
	}

	becameAvailable := false
	if update.Status != nil && *update.Status != vehicle.Status {
		if vehicle.Status == model.VehicleStatusAssigned && *update.Status == model.VehicleStatusInactive {
			// Cannot retire a vehicle out from under a live trip.
			return nil, ErrPreconditionFailed
		}
		becameAvailable = *update.Status == model.VehicleStatusAvailable
		vehicle.Status = *update.Status
	}
	if update.Odometer != nil {
		vehicle.Odometer = *update.Odometer
	}
	if update.NextServiceOdometer != nil {
		vehicle.NextServiceOdometer = *update.NextServiceOdometer
	}
	if update.MonthlyMileageLimit != nil {
		vehicle.MonthlyMileageLimit = *update.MonthlyMileageLimit
	}
	if update.ContractEndAt != nil {
		vehicle.ContractEndAt = update.ContractEndAt
	}
	if update.InsuranceExpiresAt != nil {
		vehicle.InsuranceExpiresAt = update.InsuranceExpiresAt
	}
	if update.Retired != nil {
		vehicle.Retired = *update.Retired
		if vehicle.Retired {
			vehicle.Status = model.VehicleStatusInactive
			becameAvailable = false
		}
	}

	if err := s.fleet.SaveVehicle(ctx, vehicle); err != nil {
		return nil, err
	}

	if becameAvailable {
		if err := s.reconciler.ReconcileQueue(ctx, vehicle.MinistryID); err != nil {
			s.log.Error().Err(err).Str("vehicle", vehicle.ID.String()).Msg("queue reconciliation failed")
		}
	}
	return vehicle, nil
}

// AssignDriver sets the vehicle's default driver, preferred by the allocator
// when the vehicle is picked.
func (s *VehicleService) AssignDriver(ctx context.Context, principal model.Principal, vehicleID, driverID uuid.UUID) (*model.Vehicle, error) {
	if !(principal.IsAdmin() || principal.IsFleetManager()) {
		return nil, ErrPermissionDenied
	}

	vehicle, err := s.getScoped(ctx, principal, vehicleID)
	if err != nil {
		return nil, err
	}

	driver, err := s.fleet.GetDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if driver.MinistryID != vehicle.MinistryID || !driver.Active {
		return nil, ErrInvalidInput
	}

	vehicle.DefaultDriverID = &driver.ID
	if err := s.fleet.SaveVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

type MaintenanceInput struct {
	Description string
	Cost        float64
	Odometer    int64
	ServicedAt  time.Time
}

func (s *VehicleService) AddMaintenanceRecord(ctx context.Context, principal model.Principal, vehicleID uuid.UUID, input MaintenanceInput) (*model.MaintenanceRecord, error) {
	if !(principal.IsAdmin() || principal.IsFleetManager()) {
		return nil, ErrPermissionDenied
	}
	vehicle, err := s.getScoped(ctx, principal, vehicleID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrInvalidInput
	}

	record := &model.MaintenanceRecord{
		VehicleID:   vehicle.ID,
		MinistryID:  vehicle.MinistryID,
		Description: input.Description,
		Cost:        input.Cost,
		Odometer:    input.Odometer,
		ServicedAt:  input.ServicedAt,
		RecordedBy:  principal.UserID,
	}
	if err := s.ledger.CreateMaintenanceRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *VehicleService) ListMaintenanceRecords(ctx context.Context, principal model.Principal, vehicleID uuid.UUID) ([]model.MaintenanceRecord, error) {
	vehicle, err := s.getScoped(ctx, principal, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListMaintenanceRecords(ctx, vehicle.ID)
}

type InvoiceInput struct {
	InvoiceNumber string
	Vendor        string
	Amount        float64
	IssuedAt      time.Time
}

func (s *VehicleService) AddInvoice(ctx context.Context, principal model.Principal, vehicleID uuid.UUID, input InvoiceInput) (*model.VehicleInvoice, error) {
	if !(principal.IsAdmin() || principal.IsFleetManager()) {
		return nil, ErrPermissionDenied
	}
	vehicle, err := s.getScoped(ctx, principal, vehicleID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.InvoiceNumber) == "" || input.Amount <= 0 {
		return nil, ErrInvalidInput
	}

	invoice := &model.VehicleInvoice{
		VehicleID:     vehicle.ID,
		MinistryID:    vehicle.MinistryID,
		InvoiceNumber: input.InvoiceNumber,
		Vendor:        input.Vendor,
		Amount:        input.Amount,
		IssuedAt:      input.IssuedAt,
		RecordedBy:    principal.UserID,
	}
	if err := s.ledger.CreateInvoice(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *VehicleService) ListInvoices(ctx context.Context, principal model.Principal, vehicleID uuid.UUID) ([]model.VehicleInvoice, error) {
	vehicle, err := s.getScoped(ctx, principal, vehicleID)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListInvoices(ctx, vehicle.ID)
}

func (s *VehicleService) getScoped(ctx context.Context, principal model.Principal, vehicleID uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.fleet.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if vehicle.MinistryID != principal.MinistryID {
		return nil, ErrNotFound
	}
	return vehicle, nil
}
