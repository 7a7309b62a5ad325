package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch-service/internal/model"
	"dispatch-service/internal/notify"
)

// memDB is the shared in-memory dataset behind the per-interface fakes.
// Slices keep insertion order, which plays the role of "id ASC" in the real
// queries.
type memDB struct {
	users       []*model.User
	departments []*model.Department
	drivers     []*model.Driver
	vehicles    []*model.Vehicle
	requests    []*model.DispatchRequest
	trips       []*model.Trip
	fuelLogs    []*model.FuelLog
	reviews     []*model.TripReview
	statusLog   []*model.RequestStatusLog
	maintenance []*model.MaintenanceRecord
	invoices    []*model.VehicleInvoice
	alertKeys   map[string]bool
}

func newMemDB() *memDB {
	return &memDB{alertKeys: map[string]bool{}}
}

func (m *memDB) userStore() UserStore       { return userStoreFake{m} }
func (m *memDB) requestStore() RequestStore { return requestStoreFake{m} }
func (m *memDB) fleetStore() FleetStore     { return fleetStoreFake{m} }
func (m *memDB) tripStore() TripStore       { return tripStoreFake{m} }
func (m *memDB) ledgerStore() LedgerStore   { return ledgerStoreFake{m} }
func (m *memDB) alertStore() AlertStore     { return alertStoreFake{m} }

func (m *memDB) findRequest(id uuid.UUID) *model.DispatchRequest {
	for _, r := range m.requests {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (m *memDB) findVehicle(id uuid.UUID) *model.Vehicle {
	for _, v := range m.vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

type userStoreFake struct{ db *memDB }

func (f userStoreFake) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f userStoreFake) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f userStoreFake) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	for _, u := range f.db.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f userStoreFake) GetDepartment(_ context.Context, id uuid.UUID) (*model.Department, error) {
	for _, d := range f.db.departments {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f userStoreFake) DriverByUserID(_ context.Context, userID uuid.UUID) (*model.Driver, error) {
	for _, d := range f.db.drivers {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type requestStoreFake struct{ db *memDB }

func (f requestStoreFake) Create(_ context.Context, req *model.DispatchRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	f.db.requests = append(f.db.requests, req)
	return nil
}

func (f requestStoreFake) GetByID(_ context.Context, id uuid.UUID) (*model.DispatchRequest, error) {
	if r := f.db.findRequest(id); r != nil {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f requestStoreFake) List(_ context.Context, filter RequestFilter) ([]model.DispatchRequest, error) {
	var out []model.DispatchRequest
	for _, r := range f.db.requests {
		if filter.RequesterID != nil && r.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.DepartmentID != nil && r.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.MinistryID != nil && r.MinistryID != *filter.MinistryID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, r.Status) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func containsStatus(statuses []model.RequestStatus, status model.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (f requestStoreFake) SetStatus(_ context.Context, id uuid.UUID, status model.RequestStatus, note string, decidedBy *uuid.UUID) error {
	r := f.db.findRequest(id)
	if r == nil {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	r.DecisionNote = note
	r.DecidedBy = decidedBy
	if status == model.RequestStatusDenied {
		r.QueuePosition = 0
	}
	return nil
}

func (f requestStoreFake) RecordDecision(_ context.Context, id uuid.UUID, note string, decidedBy uuid.UUID) error {
	r := f.db.findRequest(id)
	if r == nil {
		return gorm.ErrRecordNotFound
	}
	if note != "" {
		r.DecisionNote = note
	}
	decided := decidedBy
	r.DecidedBy = &decided
	now := time.Now()
	r.DecidedAt = &now
	return nil
}

func (f requestStoreFake) LogStatusChange(_ context.Context, entry *model.RequestStatusLog) error {
	f.db.statusLog = append(f.db.statusLog, entry)
	return nil
}

type fleetStoreFake struct{ db *memDB }

func (f fleetStoreFake) GetVehicle(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
	if v := f.db.findVehicle(id); v != nil {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fleetStoreFake) ListVehicles(_ context.Context, filter VehicleFilter) ([]model.Vehicle, error) {
	var out []model.Vehicle
	for _, v := range f.db.vehicles {
		if filter.MinistryID != nil && v.MinistryID != *filter.MinistryID {
			continue
		}
		if filter.Type != "" && v.Type != filter.Type {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (f fleetStoreFake) CreateVehicle(_ context.Context, vehicle *model.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	f.db.vehicles = append(f.db.vehicles, vehicle)
	return nil
}

func (f fleetStoreFake) SaveVehicle(_ context.Context, vehicle *model.Vehicle) error {
	for i, v := range f.db.vehicles {
		if v.ID == vehicle.ID {
			f.db.vehicles[i] = vehicle
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f fleetStoreFake) GetDriver(_ context.Context, id uuid.UUID) (*model.Driver, error) {
	for _, d := range f.db.drivers {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fleetStoreFake) Allocate(_ context.Context, requestID uuid.UUID, maxActivePerDriver int) (*Allocation, error) {
	request := f.db.findRequest(requestID)
	if request == nil {
		return nil, gorm.ErrRecordNotFound
	}
	switch request.Status {
	case model.RequestStatusPendingFleet, model.RequestStatusApproved:
	default:
		return nil, ErrPreconditionFailed
	}
	if request.VehicleID != nil {
		return &Allocation{Vehicle: f.db.findVehicle(*request.VehicleID)}, nil
	}

	vehicle := f.pickVehicle(request)
	var driver *model.Driver
	if vehicle != nil {
		driver = f.pickDriver(request, vehicle, maxActivePerDriver)
	}

	if vehicle == nil || driver == nil {
		if request.QueuePosition > 0 {
			return &Allocation{QueuePosition: request.QueuePosition}, nil
		}
		position := f.nextQueuePosition(request.MinistryID, request.VehicleType)
		request.Status = model.RequestStatusApproved
		request.QueuePosition = position
		return &Allocation{QueuePosition: position}, nil
	}

	vehicle.Status = model.VehicleStatusAssigned
	request.Status = model.RequestStatusApproved
	request.VehicleID = &vehicle.ID
	request.DriverID = &driver.ID
	request.QueuePosition = 0

	trip := &model.Trip{
		ID:        uuid.New(),
		RequestID: request.ID,
		VehicleID: vehicle.ID,
		DriverID:  driver.ID,
		Status:    model.TripStatusUpcoming,
	}
	f.db.trips = append(f.db.trips, trip)

	return &Allocation{Vehicle: vehicle, Driver: driver, Trip: trip}, nil
}

func (f fleetStoreFake) pickVehicle(request *model.DispatchRequest) *model.Vehicle {
	if request.PreferredVehicleID != nil {
		if v := f.db.findVehicle(*request.PreferredVehicleID); v != nil &&
			v.Status == model.VehicleStatusAvailable && !v.Retired {
			return v
		}
	}
	for _, v := range f.db.vehicles {
		if v.MinistryID != request.MinistryID || v.Status != model.VehicleStatusAvailable || v.Retired {
			continue
		}
		if request.VehicleType != "" && v.Type != request.VehicleType {
			continue
		}
		return v
	}
	return nil
}

func (f fleetStoreFake) pickDriver(request *model.DispatchRequest, vehicle *model.Vehicle, maxActive int) *model.Driver {
	eligible := func(d *model.Driver) bool {
		if d.MinistryID != request.MinistryID || !d.Active {
			return false
		}
		if maxActive <= 0 {
			return true
		}
		active := 0
		for _, r := range f.db.requests {
			if r.DriverID != nil && *r.DriverID == d.ID &&
				(r.Status == model.RequestStatusApproved || r.Status == model.RequestStatusActive) {
				active++
			}
		}
		return active < maxActive
	}

	if vehicle.DefaultDriverID != nil {
		for _, d := range f.db.drivers {
			if d.ID == *vehicle.DefaultDriverID && eligible(d) {
				return d
			}
		}
	}
	for _, d := range f.db.drivers {
		if eligible(d) {
			return d
		}
	}
	return nil
}

func (f fleetStoreFake) nextQueuePosition(ministryID uuid.UUID, vehicleType model.VehicleType) int {
	max := 0
	for _, r := range f.db.requests {
		if r.MinistryID == ministryID && r.VehicleType == vehicleType &&
			r.Status == model.RequestStatusApproved && r.VehicleID == nil &&
			r.QueuePosition > max {
			max = r.QueuePosition
		}
	}
	return max + 1
}

func (f fleetStoreFake) QueuedRequests(_ context.Context, ministryID uuid.UUID) ([]model.DispatchRequest, error) {
	var queued []*model.DispatchRequest
	for _, r := range f.db.requests {
		if r.MinistryID == ministryID && r.Status == model.RequestStatusApproved && r.VehicleID == nil {
			queued = append(queued, r)
		}
	}
	// FIFO by queue position, insertion order breaks ties.
	var out []model.DispatchRequest
	for len(out) < len(queued) {
		best := -1
		for i, r := range queued {
			taken := false
			for _, o := range out {
				if o.ID == r.ID {
					taken = true
					break
				}
			}
			if taken {
				continue
			}
			if best == -1 || r.QueuePosition < queued[best].QueuePosition {
				best = i
			}
		}
		out = append(out, *queued[best])
	}
	return out, nil
}

type tripStoreFake struct{ db *memDB }

func (f tripStoreFake) GetByID(_ context.Context, id uuid.UUID) (*model.Trip, error) {
	for _, t := range f.db.trips {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f tripStoreFake) Save(_ context.Context, trip *model.Trip) error {
	for i, t := range f.db.trips {
		if t.ID == trip.ID {
			f.db.trips[i] = trip
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f tripStoreFake) AddFuelLog(_ context.Context, entry *model.FuelLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.db.fuelLogs = append(f.db.fuelLogs, entry)
	return nil
}

func (f tripStoreFake) CreateReview(_ context.Context, review *model.TripReview) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	f.db.reviews = append(f.db.reviews, review)
	return nil
}

func (f tripStoreFake) HasReview(_ context.Context, tripID uuid.UUID, role model.ReviewerRole) (bool, error) {
	for _, r := range f.db.reviews {
		if r.TripID == tripID && r.ReviewerRole == role {
			return true, nil
		}
	}
	return false, nil
}

func (f tripStoreFake) ListReviews(_ context.Context, tripID uuid.UUID) ([]model.TripReview, error) {
	var out []model.TripReview
	for _, r := range f.db.reviews {
		if r.TripID == tripID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type ledgerStoreFake struct{ db *memDB }

func (f ledgerStoreFake) CreateMaintenanceRecord(_ context.Context, record *model.MaintenanceRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.db.maintenance = append(f.db.maintenance, record)
	return nil
}

func (f ledgerStoreFake) ListMaintenanceRecords(_ context.Context, vehicleID uuid.UUID) ([]model.MaintenanceRecord, error) {
	var out []model.MaintenanceRecord
	for _, r := range f.db.maintenance {
		if r.VehicleID == vehicleID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f ledgerStoreFake) CreateInvoice(_ context.Context, invoice *model.VehicleInvoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	f.db.invoices = append(f.db.invoices, invoice)
	return nil
}

func (f ledgerStoreFake) ListInvoices(_ context.Context, vehicleID uuid.UUID) ([]model.VehicleInvoice, error) {
	var out []model.VehicleInvoice
	for _, i := range f.db.invoices {
		if i.VehicleID == vehicleID {
			out = append(out, *i)
		}
	}
	return out, nil
}

type alertStoreFake struct{ db *memDB }

func (f alertStoreFake) ActiveVehicles(_ context.Context) ([]model.Vehicle, error) {
	var out []model.Vehicle
	for _, v := range f.db.vehicles {
		if !v.Retired {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f alertStoreFake) RecordAlert(_ context.Context, alert *model.VehicleAlert) (bool, error) {
	key := fmt.Sprintf("%s|%s|%s", alert.VehicleID, alert.Condition, alert.AlertDate)
	if f.db.alertKeys[key] {
		return false, nil
	}
	f.db.alertKeys[key] = true
	return true, nil
}

// capturePublisher records every published event.
type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *capturePublisher) Publish(_ context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byType(eventType notify.EventType) []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notify.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// noopReconciler satisfies QueueReconciler where reconciliation is irrelevant.
type noopReconciler struct{}

func (noopReconciler) ReconcileQueue(context.Context, uuid.UUID) error { return nil }
