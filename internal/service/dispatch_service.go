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
	"dispatch-service/internal/notify"
)

// DispatchService runs the request lifecycle: intake, the supervisor gate,
// the fleet decision with vehicle allocation, and queue reconciliation.
type DispatchService struct {
	requests           RequestStore
	fleet              FleetStore
	users              UserStore
	publisher          notify.Publisher
	maxActivePerDriver int
	log                zerolog.Logger
}

func NewDispatchService(
	requests RequestStore,
	fleet FleetStore,
	users UserStore,
	publisher notify.Publisher,
	maxActivePerDriver int,
	log zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		requests:           requests,
		fleet:              fleet,
		users:              users,
		publisher:          publisher,
		maxActivePerDriver: maxActivePerDriver,
		log:                log,
	}
}

type CreateRequestInput struct {
	Purpose            string
	Origin             string
	Destination        string
	RequestedStartAt   time.Time
	VehicleType        model.VehicleType
	PreferredVehicleID *uuid.UUID
}

func (s *DispatchService) CreateRequest(ctx context.Context, principal model.Principal, input CreateRequestInput) (*model.RequestRecord, error) {
	if principal.DepartmentID == nil {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Purpose) == "" ||
		strings.TrimSpace(input.Origin) == "" ||
		strings.TrimSpace(input.Destination) == "" {
		return nil, ErrInvalidInput
	}
	if input.RequestedStartAt.Before(time.Now()) {
		return nil, ErrInvalidInput
	}

	department, err := s.users.GetDepartment(ctx, *principal.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	status := model.RequestStatusPendingFleet
	if department.SupervisorID != nil {
		status = model.RequestStatusPendingSupervisor
	}

	request := &model.DispatchRequest{
		RequesterID:        principal.UserID,
		MinistryID:         principal.MinistryID,
		DepartmentID:       department.ID,
		Purpose:            strings.TrimSpace(input.Purpose),
		Origin:             strings.TrimSpace(input.Origin),
		Destination:        strings.TrimSpace(input.Destination),
		RequestedStartAt:   input.RequestedStartAt,
		VehicleType:        input.VehicleType,
		PreferredVehicleID: input.PreferredVehicleID,
		Status:             status,
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	if err := s.requests.LogStatusChange(ctx, &model.RequestStatusLog{
		RequestID: request.ID,
		NewStatus: status,
		Note:      "request created",
		ChangedBy: &principal.UserID,
	}); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.Event{
		Type:        notify.EventRequestCreated,
		RecipientID: request.RequesterID,
		RequestID:   &request.ID,
		Status:      string(status),
		OccurredAt:  time.Now(),
	})

	created, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	record := model.BuildRequestRecord(*created)
	return &record, nil
}

type ListRequestsOptions struct {
	Statuses []model.RequestStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// List applies visibility scoping: staff and drivers see their own requests,
// supervisors their department, fleet managers and admins their ministry.
func (s *DispatchService) List(ctx context.Context, principal model.Principal, opts ListRequestsOptions) ([]model.RequestRecord, error) {
	filter := RequestFilter{
		Statuses: opts.Statuses,
		DateFrom: opts.DateFrom,
		DateTo:   opts.DateTo,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}

	switch {
	case principal.IsAdmin() || principal.IsFleetManager():
		filter.MinistryID = &principal.MinistryID
	case principal.IsSupervisor():
		if principal.DepartmentID == nil {
			return nil, ErrPermissionDenied
		}
		filter.DepartmentID = principal.DepartmentID
	default:
		requester := principal.UserID
		filter.RequesterID = &requester
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	records := make([]model.RequestRecord, 0, len(requests))
	for _, r := range requests {
		records = append(records, model.BuildRequestRecord(r))
	}
	return records, nil
}

func (s *DispatchService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.RequestRecord, error) {
	request, err := s.getVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	record := model.BuildRequestRecord(*request)
	return &record, nil
}

// SupervisorDecide moves PENDING_SUPERVISOR to PENDING_FLEET or DENIED.
// Approving never assigns a vehicle, it only escalates.
func (s *DispatchService) SupervisorDecide(ctx context.Context, principal model.Principal, requestID uuid.UUID, approve bool, note string) (*model.RequestRecord, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if principal.DepartmentID == nil || *principal.DepartmentID != request.DepartmentID {
		return nil, ErrPermissionDenied
	}
	if request.Status != model.RequestStatusPendingSupervisor {
		return nil, ErrPreconditionFailed
	}

	target := model.RequestStatusPendingFleet
	if !approve {
		target = model.RequestStatusDenied
	}

	if err := s.transition(ctx, request, target, note, principal.UserID); err != nil {
		return nil, err
	}

	s.emit(ctx, notify.Event{
		Type:        notify.EventRequestStatusChanged,
		RecipientID: request.RequesterID,
		RequestID:   &request.ID,
		Status:      string(target),
		Message:     note,
		OccurredAt:  time.Now(),
	})

	updated, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	record := model.BuildRequestRecord(*updated)
	return &record, nil
}

// FleetDecide is the fleet manager decision. Reject denies the request.
// Approve attempts allocation; when no vehicle is free the request stays
// approved and joins the wait queue for its ministry and vehicle type.
func (s *DispatchService) FleetDecide(ctx context.Context, principal model.Principal, requestID uuid.UUID, approve bool, note string) (*model.RequestRecord, error) {
	if !(principal.IsFleetManager() || principal.IsAdmin()) {
		return nil, ErrPermissionDenied
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if request.MinistryID != principal.MinistryID {
		return nil, ErrPermissionDenied
	}
	if request.Status != model.RequestStatusPendingFleet {
		return nil, ErrPreconditionFailed
	}

	if !approve {
		if err := s.transition(ctx, request, model.RequestStatusDenied, note, principal.UserID); err != nil {
			return nil, err
		}
		s.emit(ctx, notify.Event{
			Type:        notify.EventRequestStatusChanged,
			RecipientID: request.RequesterID,
			RequestID:   &request.ID,
			Status:      string(model.RequestStatusDenied),
			Message:     note,
			OccurredAt:  time.Now(),
		})
		updated, err := s.requests.GetByID(ctx, request.ID)
		if err != nil {
			return nil, err
		}
		record := model.BuildRequestRecord(*updated)
		return &record, nil
	}

	allocation, err := s.fleet.Allocate(ctx, request.ID, s.maxActivePerDriver)
	if err != nil {
		return nil, err
	}

	if err := s.requests.RecordDecision(ctx, request.ID, note, principal.UserID); err != nil {
		return nil, err
	}

	prev := request.Status
	logNote := note
	if allocation.Vehicle == nil {
		logNote = "approved, waiting for vehicle"
	}
	if err := s.requests.LogStatusChange(ctx, &model.RequestStatusLog{
		RequestID: request.ID,
		OldStatus: &prev,
		NewStatus: model.RequestStatusApproved,
		Note:      logNote,
		ChangedBy: &principal.UserID,
	}); err != nil {
		return nil, err
	}

	event := notify.Event{
		Type:        notify.EventRequestStatusChanged,
		RecipientID: request.RequesterID,
		RequestID:   &request.ID,
		Status:      string(model.RequestStatusApproved),
		Message:     note,
		OccurredAt:  time.Now(),
	}
	if allocation.Vehicle != nil {
		event.VehicleID = &allocation.Vehicle.ID
	}
	if allocation.Driver != nil {
		event.DriverID = &allocation.Driver.ID
	}
	s.emit(ctx, event)

	updated, err := s.requests.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	record := model.BuildRequestRecord(*updated)
	return &record, nil
}

// ReconcileQueue re-attempts allocation for queued requests in FIFO order.
// It keeps assigning until either the queue or the free vehicles run out.
func (s *DispatchService) ReconcileQueue(ctx context.Context, ministryID uuid.UUID) error {
	for {
		queued, err := s.fleet.QueuedRequests(ctx, ministryID)
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return nil
		}

		assigned := false
		for _, request := range queued {
			allocation, err := s.fleet.Allocate(ctx, request.ID, s.maxActivePerDriver)
			if err != nil {
				return err
			}
			if allocation.Vehicle == nil {
				continue
			}

			if err := s.requests.LogStatusChange(ctx, &model.RequestStatusLog{
				RequestID: request.ID,
				NewStatus: model.RequestStatusApproved,
				Note:      "vehicle assigned from queue",
			}); err != nil {
				return err
			}
			s.emit(ctx, notify.Event{
				Type:        notify.EventRequestStatusChanged,
				RecipientID: request.RequesterID,
				RequestID:   &request.ID,
				VehicleID:   &allocation.Vehicle.ID,
				Status:      string(model.RequestStatusApproved),
				Message:     "vehicle assigned from queue",
				OccurredAt:  time.Now(),
			})
			assigned = true
			break
		}

		if !assigned {
			return nil
		}
	}
}

func (s *DispatchService) getVisible(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.DispatchRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch {
	case principal.IsAdmin() || principal.IsFleetManager():
		if request.MinistryID != principal.MinistryID {
			return nil, ErrNotFound
		}
	case principal.IsSupervisor():
		if principal.DepartmentID == nil || *principal.DepartmentID != request.DepartmentID {
			return nil, ErrNotFound
		}
	default:
		if request.RequesterID != principal.UserID {
			return nil, ErrNotFound
		}
	}
	return request, nil
}

func (s *DispatchService) transition(ctx context.Context, request *model.DispatchRequest, target model.RequestStatus, note string, actor uuid.UUID) error {
	if !model.CanTransition(request.Status, target) {
		return ErrPreconditionFailed
	}
	if err := s.requests.SetStatus(ctx, request.ID, target, note, &actor); err != nil {
		return err
	}
	prev := request.Status
	request.Status = target
	return s.requests.LogStatusChange(ctx, &model.RequestStatusLog{
		RequestID: request.ID,
		OldStatus: &prev,
		NewStatus: target,
		Note:      note,
		ChangedBy: &actor,
	})
}

func (s *DispatchService) emit(ctx context.Context, event notify.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).Str("event", string(event.Type)).Msg("notification publish failed")
	}
}
