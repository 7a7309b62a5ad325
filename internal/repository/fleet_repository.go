package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dispatch-service/internal/model"
	"dispatch-service/internal/service"
)

// FleetRepository owns vehicles, drivers and the allocation transaction.
type FleetRepository struct {
	db *gorm.DB
}

func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

func (r *FleetRepository) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *FleetRepository) ListVehicles(ctx context.Context, filter service.VehicleFilter) ([]model.Vehicle, error) {
	query := r.db.WithContext(ctx).Model(&model.Vehicle{})

	if filter.MinistryID != nil {
		query = query.Where("ministry_id = ?", *filter.MinistryID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(plate_number ILIKE ? OR make ILIKE ? OR model ILIKE ?)", search, search, search)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var vehicles []model.Vehicle
	if err := query.Order("plate_number ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *FleetRepository) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *FleetRepository) SaveVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

func (r *FleetRepository) GetDriver(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.WithContext(ctx).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

// Allocate is the vehicle-assignment critical section. Candidate vehicle rows
// are taken FOR UPDATE, so of two decisions racing for the last available
// vehicle exactly one sees it AVAILABLE; the other falls through to the queue
// branch and gets the next queue_position in its ministry/type scope.
func (r *FleetRepository) Allocate(ctx context.Context, requestID uuid.UUID, maxActivePerDriver int) (*service.Allocation, error) {
	var result service.Allocation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request model.DispatchRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&request, "id = ?", requestID).Error; err != nil {
			return err
		}
		// Re-check under the lock: a concurrent reject may have landed between
		// the caller's status check and this transaction. Only a pending fleet
		// decision or an already-queued approval may proceed.
		switch request.Status {
		case model.RequestStatusPendingFleet, model.RequestStatusApproved:
		default:
			return service.ErrPreconditionFailed
		}
		if request.VehicleID != nil {
			// A concurrent reconciliation already assigned this request.
			vehicle, err := lockVehicleByID(tx, *request.VehicleID)
			if err != nil {
				return err
			}
			result.Vehicle = vehicle
			return nil
		}

		vehicle, err := r.pickVehicle(tx, &request)
		if err != nil {
			return err
		}

		var driver *model.Driver
		if vehicle != nil {
			driver, err = r.pickDriver(tx, &request, vehicle, maxActivePerDriver)
			if err != nil {
				return err
			}
		}

		if vehicle == nil || driver == nil {
			// A request already in the queue keeps its place; reassigning it
			// MAX+1 would demote it behind later arrivals.
			if request.QueuePosition > 0 {
				result.QueuePosition = request.QueuePosition
				return nil
			}
			position, err := nextQueuePosition(tx, request.MinistryID, request.VehicleType)
			if err != nil {
				return err
			}
			updates := map[string]interface{}{
				"status":         model.RequestStatusApproved,
				"queue_position": position,
			}
			if err := tx.Model(&model.DispatchRequest{}).
				Where("id = ?", request.ID).
				Updates(updates).Error; err != nil {
				return err
			}
			result.QueuePosition = position
			return nil
		}

		if err := tx.Model(&model.Vehicle{}).
			Where("id = ?", vehicle.ID).
			Update("status", model.VehicleStatusAssigned).Error; err != nil {
			return err
		}
		vehicle.Status = model.VehicleStatusAssigned

		if err := tx.Model(&model.DispatchRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]interface{}{
				"status":         model.RequestStatusApproved,
				"vehicle_id":     vehicle.ID,
				"driver_id":      driver.ID,
				"queue_position": 0,
			}).Error; err != nil {
			return err
		}

		trip := &model.Trip{
			RequestID: request.ID,
			VehicleID: vehicle.ID,
			DriverID:  driver.ID,
			Status:    model.TripStatusUpcoming,
		}
		if err := tx.Create(trip).Error; err != nil {
			return err
		}

		result.Vehicle = vehicle
		result.Driver = driver
		result.Trip = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *FleetRepository) QueuedRequests(ctx context.Context, ministryID uuid.UUID) ([]model.DispatchRequest, error) {
	var requests []model.DispatchRequest
	err := r.db.WithContext(ctx).
		Where("ministry_id = ? AND status = ? AND vehicle_id IS NULL", ministryID, model.RequestStatusApproved).
		Order("queue_position ASC, id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// pickVehicle prefers the explicitly requested vehicle, then the lowest-id
// available vehicle of the requested type within the ministry.
func (r *FleetRepository) pickVehicle(tx *gorm.DB, request *model.DispatchRequest) (*model.Vehicle, error) {
	if request.PreferredVehicleID != nil {
		var vehicle model.Vehicle
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ? AND retired = FALSE", *request.PreferredVehicleID, model.VehicleStatusAvailable).
			First(&vehicle).Error
		if err == nil {
			return &vehicle, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ministry_id = ? AND status = ? AND retired = FALSE", request.MinistryID, model.VehicleStatusAvailable)
	if request.VehicleType != "" {
		query = query.Where("type = ?", request.VehicleType)
	}

	var vehicle model.Vehicle
	err := query.Order("id ASC").First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// pickDriver prefers the vehicle's default driver, then the lowest-id active
// driver in the ministry. A positive cap excludes drivers already holding
// that many non-completed assignments.
func (r *FleetRepository) pickDriver(tx *gorm.DB, request *model.DispatchRequest, vehicle *model.Vehicle, maxActivePerDriver int) (*model.Driver, error) {
	candidates := func() *gorm.DB {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "drivers"}}).
			Where("ministry_id = ? AND active = TRUE", request.MinistryID)
		if maxActivePerDriver > 0 {
			activeAssignments := tx.Session(&gorm.Session{NewDB: true}).
				Model(&model.DispatchRequest{}).
				Select("count(*)").
				Where("dispatch_requests.driver_id = drivers.id AND dispatch_requests.status IN ?",
					[]model.RequestStatus{model.RequestStatusApproved, model.RequestStatusActive})
			query = query.Where("(?) < ?", activeAssignments, maxActivePerDriver)
		}
		return query
	}

	if vehicle.DefaultDriverID != nil {
		var driver model.Driver
		err := candidates().
			Where("id = ?", *vehicle.DefaultDriverID).
			First(&driver).Error
		if err == nil {
			return &driver, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var driver model.Driver
	err := candidates().Order("id ASC").First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func lockVehicleByID(tx *gorm.DB, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func nextQueuePosition(tx *gorm.DB, ministryID uuid.UUID, vehicleType model.VehicleType) (int, error) {
	var max *int
	err := tx.Model(&model.DispatchRequest{}).
		Select("MAX(queue_position)").
		Where("ministry_id = ? AND COALESCE(vehicle_type, '') = ? AND status = ? AND vehicle_id IS NULL",
			ministryID, string(vehicleType), model.RequestStatusApproved).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
