package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"dispatch-service/internal/model"
	"dispatch-service/internal/notify"
)

// TripService runs a trip's UPCOMING -> ACTIVE -> COMPLETED machine and the
// post-trip review.
type TripService struct {
	trips      TripStore
	requests   RequestStore
	fleet      FleetStore
	reconciler QueueReconciler
	publisher  notify.Publisher
	log        zerolog.Logger
}

func NewTripService(
	trips TripStore,
	requests RequestStore,
	fleet FleetStore,
	reconciler QueueReconciler,
	publisher notify.Publisher,
	log zerolog.Logger,
) *TripService {
	return &TripService{
		trips:      trips,
		requests:   requests,
		fleet:      fleet,
		reconciler: reconciler,
		publisher:  publisher,
		log:        log,
	}
}

// Start activates an UPCOMING trip. Only the assigned driver, a fleet manager
// or an admin may start it; the backing request must be fully assigned.
func (s *TripService) Start(ctx context.Context, principal model.Principal, tripID uuid.UUID) (*model.Trip, error) {
	trip, request, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(principal, trip, request); err != nil {
		return nil, err
	}

	if trip.Status != model.TripStatusUpcoming {
		return nil, ErrPreconditionFailed
	}
	if request.Status != model.RequestStatusApproved || request.VehicleID == nil || request.DriverID == nil {
		return nil, ErrPreconditionFailed
	}

	vehicle, err := s.fleet.GetVehicle(ctx, trip.VehicleID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	startOdometer := vehicle.Odometer
	trip.Status = model.TripStatusActive
	trip.StartedAt = &now
	trip.StartOdometer = &startOdometer
	if err := s.trips.Save(ctx, trip); err != nil {
		return nil, err
	}

	if err := s.requests.SetStatus(ctx, request.ID, model.RequestStatusActive, "", nil); err != nil {
		return nil, err
	}
	prev := request.Status
	if err := s.requests.LogStatusChange(ctx, &model.RequestStatusLog{
		RequestID: request.ID,
		OldStatus: &prev,
		NewStatus: model.RequestStatusActive,
		Note:      "trip started",
		ChangedBy: &principal.UserID,
	}); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.Event{
		Type:        notify.EventTripStarted,
		RecipientID: request.RequesterID,
		RequestID:   &request.ID,
		TripID:      &trip.ID,
		Status:      string(model.TripStatusActive),
		OccurredAt:  now,
	})

	return trip, nil
}

// End completes an ACTIVE trip: records the closing odometer, rolls the
// distance into the vehicle's odometer and month-to-date mileage, and frees
// the vehicle unless it ran past its service threshold.
func (s *TripService) End(ctx context.Context, principal model.Principal, tripID uuid.UUID, endOdometer int64) (*model.Trip, error) {
	trip, request, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(principal, trip, request); err != nil {
		return nil, err
	}

	if trip.Status != model.TripStatusActive || trip.StartOdometer == nil {
		return nil, ErrPreconditionFailed
	}
	if endOdometer < *trip.StartOdometer {
		return nil, ErrInvalidInput
	}

	vehicle, err := s.fleet.GetVehicle(ctx, trip.VehicleID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	distance := endOdometer - *trip.StartOdometer
	trip.Status = model.TripStatusCompleted
	trip.EndedAt = &now
	trip.EndOdometer = &endOdometer
	trip.DistanceKM = distance
	if err := s.trips.Save(ctx, trip); err != nil {
		return nil, err
	}

	vehicle.Odometer = endOdometer
	vehicle.MonthToDateMileage += distance
	if vehicle.ServiceDue() {
		vehicle.Status = model.VehicleStatusInMaintenance
	} else {
		vehicle.Status = model.VehicleStatusAvailable
	}
	if err := s.fleet.SaveVehicle(ctx, vehicle); err != nil {
		return nil, err
	}

	if err := s.requests.SetStatus(ctx, request.ID, model.RequestStatusCompleted, "", nil); err != nil {
		return nil, err
	}
	prev := request.Status
	if err := s.requests.LogStatusChange(ctx, &model.RequestStatusLog{
		RequestID: request.ID,
		OldStatus: &prev,
		NewStatus: model.RequestStatusCompleted,
		Note:      "trip completed",
		ChangedBy: &principal.UserID,
	}); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.Event{
		Type:        notify.EventTripCompleted,
		RecipientID: request.RequesterID,
		RequestID:   &request.ID,
		TripID:      &trip.ID,
		Status:      string(model.TripStatusCompleted),
		OccurredAt:  now,
	})

	if vehicle.Status == model.VehicleStatusAvailable {
		if err := s.reconciler.ReconcileQueue(ctx, vehicle.MinistryID); err != nil {
			s.log.Error().Err(err).Str("vehicle", vehicle.ID.String()).Msg("queue reconciliation failed")
		}
	}

	return trip, nil
}

type FuelInput struct {
	Liters   float64
	Cost     float64
	Odometer int64
}

func (s *TripService) AddFuel(ctx context.Context, principal model.Principal, tripID uuid.UUID, input FuelInput) (*model.FuelLog, error) {
	trip, request, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActor(principal, trip, request); err != nil {
		return nil, err
	}

	if trip.Status != model.TripStatusActive {
		return nil, ErrPreconditionFailed
	}
	if input.Liters <= 0 {
		return nil, ErrInvalidInput
	}

	entry := &model.FuelLog{
		TripID:   trip.ID,
		Liters:   input.Liters,
		Cost:     input.Cost,
		Odometer: input.Odometer,
		LoggedBy: principal.UserID,
	}
	if err := s.trips.AddFuelLog(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Review attaches a post-trip rating. One review per trip per reviewer role;
// a duplicate submission conflicts and leaves the first review untouched.
func (s *TripService) Review(ctx context.Context, principal model.Principal, tripID uuid.UUID, rating int, comment string) (*model.TripReview, error) {
	trip, request, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	var role model.ReviewerRole
	switch {
	case request.RequesterID == principal.UserID:
		role = model.ReviewerRequester
	case principal.DriverID != nil && *principal.DriverID == trip.DriverID:
		role = model.ReviewerDriver
	default:
		return nil, ErrPermissionDenied
	}

	if trip.Status != model.TripStatusCompleted {
		return nil, ErrPreconditionFailed
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}

	exists, err := s.trips.HasReview(ctx, trip.ID, role)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	review := &model.TripReview{
		TripID:       trip.ID,
		ReviewerID:   principal.UserID,
		ReviewerRole: role,
		Rating:       rating,
		Comment:      comment,
	}
	if err := s.trips.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Get returns the trip with its vehicle and driver flattened and any reviews
// attached.
func (s *TripService) Get(ctx context.Context, principal model.Principal, tripID uuid.UUID) (*model.TripRecord, error) {
	trip, request, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewer(principal, trip, request); err != nil {
		return nil, err
	}

	record := &model.TripRecord{Trip: *trip}

	vehicle, err := s.fleet.GetVehicle(ctx, trip.VehicleID)
	if err != nil {
		return nil, err
	}
	record.Vehicle = &model.VehicleBrief{
		ID:          vehicle.ID,
		PlateNumber: vehicle.PlateNumber,
		Make:        vehicle.Make,
		Model:       vehicle.Model,
		Type:        vehicle.Type,
	}

	driver, err := s.fleet.GetDriver(ctx, trip.DriverID)
	if err != nil {
		return nil, err
	}
	record.Driver = &model.DriverBrief{
		ID:       driver.ID,
		FullName: driver.FullName,
		Phone:    driver.Phone,
	}

	reviews, err := s.trips.ListReviews(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	record.Reviews = reviews

	return record, nil
}

func (s *TripService) loadTrip(ctx context.Context, tripID uuid.UUID) (*model.Trip, *model.DispatchRequest, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	request, err := s.requests.GetByID(ctx, trip.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return trip, request, nil
}

// checkActor gates trip mutations: the assigned driver, or fleet staff of the
// owning ministry.
func (s *TripService) checkActor(principal model.Principal, trip *model.Trip, request *model.DispatchRequest) error {
	if principal.IsDriver() {
		if principal.DriverID != nil && *principal.DriverID == trip.DriverID {
			return nil
		}
		return ErrPermissionDenied
	}
	if principal.IsFleetManager() || principal.IsAdmin() {
		if request.MinistryID == principal.MinistryID {
			return nil
		}
	}
	return ErrPermissionDenied
}

func (s *TripService) checkViewer(principal model.Principal, trip *model.Trip, request *model.DispatchRequest) error {
	if request.RequesterID == principal.UserID {
		return nil
	}
	if err := s.checkActor(principal, trip, request); err == nil {
		return nil
	}
	if principal.IsSupervisor() && principal.DepartmentID != nil && *principal.DepartmentID == request.DepartmentID {
		return nil
	}
	return ErrNotFound
}

func (s *TripService) emit(ctx context.Context, event notify.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).Str("event", string(event.Type)).Msg("notification publish failed")
	}
}
