package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"dispatch-service/internal/model"
	"dispatch-service/internal/notify"
)

type dispatchFixture struct {
	db       *memDB
	pub      *capturePublisher
	svc      *DispatchService
	ministry uuid.UUID

	gatedDept *model.Department // has a supervisor
	plainDept *model.Department // no supervisor

	staff      model.Principal
	supervisor model.Principal
	fleet      model.Principal
	driver     *model.Driver
}

func newDispatchFixture(t *testing.T, maxActivePerDriver int) *dispatchFixture {
	t.Helper()

	db := newMemDB()
	pub := &capturePublisher{}
	ministry := uuid.New()

	supervisorID := uuid.New()
	gatedDept := &model.Department{ID: uuid.New(), MinistryID: ministry, Name: "Planning", SupervisorID: &supervisorID}
	plainDept := &model.Department{ID: uuid.New(), MinistryID: ministry, Name: "Registry"}
	db.departments = append(db.departments, gatedDept, plainDept)

	driver := &model.Driver{ID: uuid.New(), UserID: uuid.New(), MinistryID: ministry, FullName: "D. Omar", Active: true}
	db.drivers = append(db.drivers, driver)

	f := &dispatchFixture{
		db:        db,
		pub:       pub,
		ministry:  ministry,
		gatedDept: gatedDept,
		plainDept: plainDept,
		driver:    driver,
		staff: model.Principal{
			UserID:       uuid.New(),
			MinistryID:   ministry,
			DepartmentID: &gatedDept.ID,
			Role:         model.UserRoleStaff,
		},
		supervisor: model.Principal{
			UserID:       supervisorID,
			MinistryID:   ministry,
			DepartmentID: &gatedDept.ID,
			Role:         model.UserRoleSupervisor,
		},
		fleet: model.Principal{
			UserID:     uuid.New(),
			MinistryID: ministry,
			Role:       model.UserRoleFleetManager,
		},
	}
	f.svc = NewDispatchService(db.requestStore(), db.fleetStore(), db.userStore(), pub, maxActivePerDriver, zerolog.Nop())
	return f
}

func (f *dispatchFixture) addVehicle(vehicleType model.VehicleType) *model.Vehicle {
	vehicle := &model.Vehicle{
		ID:          uuid.New(),
		MinistryID:  f.ministry,
		PlateNumber: "GV-" + uuid.NewString()[:8],
		Type:        vehicleType,
		Status:      model.VehicleStatusAvailable,
		Ownership:   model.VehicleOwned,
	}
	f.db.vehicles = append(f.db.vehicles, vehicle)
	return vehicle
}

func (f *dispatchFixture) validInput() CreateRequestInput {
	return CreateRequestInput{
		Purpose:          "site inspection",
		Origin:           "HQ",
		Destination:      "Northern depot",
		RequestedStartAt: time.Now().Add(2 * time.Hour),
		VehicleType:      model.VehicleTypeSedan,
	}
}

func TestCreateRequest_RoutesToSupervisor(t *testing.T) {
	f := newDispatchFixture(t, 0)

	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())

	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusPendingSupervisor, record.Request.Status)

	created := f.pub.byType(notify.EventRequestCreated)
	assert.Len(t, created, 1)
	assert.Equal(t, f.staff.UserID, created[0].RecipientID)
}

func TestCreateRequest_SkipsSupervisorWithoutOne(t *testing.T) {
	f := newDispatchFixture(t, 0)
	requester := f.staff
	requester.DepartmentID = &f.plainDept.ID

	record, err := f.svc.CreateRequest(context.Background(), requester, f.validInput())

	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusPendingFleet, record.Request.Status)
}

func TestCreateRequest_RejectsBlankFields(t *testing.T) {
	f := newDispatchFixture(t, 0)

	input := f.validInput()
	input.Purpose = "   "
	_, err := f.svc.CreateRequest(context.Background(), f.staff, input)
	assert.ErrorIs(t, err, ErrInvalidInput)

	input = f.validInput()
	input.Destination = ""
	_, err = f.svc.CreateRequest(context.Background(), f.staff, input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRequest_RejectsPastStart(t *testing.T) {
	f := newDispatchFixture(t, 0)

	input := f.validInput()
	input.RequestedStartAt = time.Now().Add(-time.Hour)

	_, err := f.svc.CreateRequest(context.Background(), f.staff, input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateRequest_RequiresDepartment(t *testing.T) {
	f := newDispatchFixture(t, 0)
	requester := f.staff
	requester.DepartmentID = nil

	_, err := f.svc.CreateRequest(context.Background(), requester, f.validInput())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSupervisorDecide_Approve(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	updated, err := f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "go ahead")

	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusPendingFleet, updated.Request.Status)
}

func TestSupervisorDecide_Deny(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	updated, err := f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, false, "no budget")

	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusDenied, updated.Request.Status)

	// Terminal: the fleet decision can no longer touch it.
	_, err = f.svc.FleetDecide(context.Background(), f.fleet, record.Request.ID, true, "")
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestSupervisorDecide_WrongDepartment(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	outsider := f.supervisor
	outsider.DepartmentID = &f.plainDept.ID

	_, err = f.svc.SupervisorDecide(context.Background(), outsider, record.Request.ID, true, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSupervisorDecide_OnlyWhilePending(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.NoError(t, err)

	// Second decision hits a request that already moved on.
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestFleetDecide_ApproveAssignsVehicle(t *testing.T) {
	f := newDispatchFixture(t, 0)
	vehicle := f.addVehicle(model.VehicleTypeSedan)

	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.NoError(t, err)

	updated, err := f.svc.FleetDecide(context.Background(), f.fleet, record.Request.ID, true, "approved")

	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Request.Status)
	assert.NotNil(t, updated.Request.VehicleID)
	assert.Equal(t, vehicle.ID, *updated.Request.VehicleID)
	assert.NotNil(t, updated.Request.DriverID)
	assert.Equal(t, f.driver.ID, *updated.Request.DriverID)
	assert.Zero(t, updated.Request.QueuePosition)

	assert.Equal(t, model.VehicleStatusAssigned, vehicle.Status)
	assert.Len(t, f.db.trips, 1)
	assert.Equal(t, model.TripStatusUpcoming, f.db.trips[0].Status)
}

func TestFleetDecide_ApproveQueuesWithoutVehicle(t *testing.T) {
	f := newDispatchFixture(t, 0)

	first, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	second, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	for _, id := range []uuid.UUID{first.Request.ID, second.Request.ID} {
		_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, id, true, "")
		assert.NoError(t, err)
	}

	firstUpdated, err := f.svc.FleetDecide(context.Background(), f.fleet, first.Request.ID, true, "")
	assert.NoError(t, err)
	secondUpdated, err := f.svc.FleetDecide(context.Background(), f.fleet, second.Request.ID, true, "")
	assert.NoError(t, err)

	assert.Equal(t, model.RequestStatusApproved, firstUpdated.Request.Status)
	assert.Nil(t, firstUpdated.Request.VehicleID)
	assert.Equal(t, 1, firstUpdated.Request.QueuePosition)
	assert.Equal(t, 2, secondUpdated.Request.QueuePosition)
	assert.Empty(t, f.db.trips)
}

func TestFleetDecide_ApproveRecordsDecision(t *testing.T) {
	f := newDispatchFixture(t, 0)
	f.addVehicle(model.VehicleTypeSedan)

	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.NoError(t, err)

	updated, err := f.svc.FleetDecide(context.Background(), f.fleet, record.Request.ID, true, "approved for inspection")

	assert.NoError(t, err)
	assert.Equal(t, "approved for inspection", updated.Request.DecisionNote)
	assert.NotNil(t, updated.Request.DecidedBy)
	assert.Equal(t, f.fleet.UserID, *updated.Request.DecidedBy)
	assert.NotNil(t, updated.Request.DecidedAt)
}

func TestFleetDecide_Reject(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.NoError(t, err)

	updated, err := f.svc.FleetDecide(context.Background(), f.fleet, record.Request.ID, false, "not justified")

	assert.NoError(t, err)
	assert.Equal(t, model.RequestStatusDenied, updated.Request.Status)
	assert.Empty(t, f.db.trips)
}

func TestFleetDecide_ForeignMinistry(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.NoError(t, err)

	outsider := f.fleet
	outsider.MinistryID = uuid.New()

	_, err = f.svc.FleetDecide(context.Background(), outsider, record.Request.ID, true, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFleetDecide_StaffForbidden(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	_, err = f.svc.FleetDecide(context.Background(), f.staff, record.Request.ID, true, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFleetDecide_OneNotificationPerDecision(t *testing.T) {
	f := newDispatchFixture(t, 0)
	f.addVehicle(model.VehicleTypeSedan)

	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, true, "")
	assert.NoError(t, err)
	_, err = f.svc.FleetDecide(context.Background(), f.fleet, record.Request.ID, true, "")
	assert.NoError(t, err)

	// One for the supervisor step, one for the fleet step.
	changed := f.pub.byType(notify.EventRequestStatusChanged)
	assert.Len(t, changed, 2)
	assert.NotNil(t, changed[1].VehicleID)
}

func TestFleetDecide_DriverCapSendsToQueue(t *testing.T) {
	f := newDispatchFixture(t, 1)
	f.addVehicle(model.VehicleTypeSedan)
	f.addVehicle(model.VehicleTypeSedan)

	first, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	second, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	for _, id := range []uuid.UUID{first.Request.ID, second.Request.ID} {
		_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, id, true, "")
		assert.NoError(t, err)
	}

	firstUpdated, err := f.svc.FleetDecide(context.Background(), f.fleet, first.Request.ID, true, "")
	assert.NoError(t, err)
	assert.NotNil(t, firstUpdated.Request.VehicleID)

	// The only driver is already booked, so the second request queues even
	// though a vehicle is free.
	secondUpdated, err := f.svc.FleetDecide(context.Background(), f.fleet, second.Request.ID, true, "")
	assert.NoError(t, err)
	assert.Nil(t, secondUpdated.Request.VehicleID)
	assert.Equal(t, 1, secondUpdated.Request.QueuePosition)
}

func TestReconcileQueue_AssignsInFIFOOrder(t *testing.T) {
	f := newDispatchFixture(t, 0)

	first, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	second, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	for _, id := range []uuid.UUID{first.Request.ID, second.Request.ID} {
		_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, id, true, "")
		assert.NoError(t, err)
		_, err = f.svc.FleetDecide(context.Background(), f.fleet, id, true, "")
		assert.NoError(t, err)
	}

	// One vehicle frees up: only the head of the queue gets it.
	f.addVehicle(model.VehicleTypeSedan)
	assert.NoError(t, f.svc.ReconcileQueue(context.Background(), f.ministry))

	assert.NotNil(t, f.db.findRequest(first.Request.ID).VehicleID)
	assert.Nil(t, f.db.findRequest(second.Request.ID).VehicleID)

	// A second vehicle drains the rest.
	f.addVehicle(model.VehicleTypeSedan)
	assert.NoError(t, f.svc.ReconcileQueue(context.Background(), f.ministry))
	assert.NotNil(t, f.db.findRequest(second.Request.ID).VehicleID)
}

func TestReconcileQueue_UnservedRequestsKeepTheirPlace(t *testing.T) {
	f := newDispatchFixture(t, 0)
	requester := f.staff
	requester.DepartmentID = &f.plainDept.ID

	busInput := f.validInput()
	busInput.VehicleType = model.VehicleTypeBus

	first, err := f.svc.CreateRequest(context.Background(), requester, busInput)
	assert.NoError(t, err)
	second, err := f.svc.CreateRequest(context.Background(), requester, busInput)
	assert.NoError(t, err)
	for _, id := range []uuid.UUID{first.Request.ID, second.Request.ID} {
		_, err = f.svc.FleetDecide(context.Background(), f.fleet, id, true, "")
		assert.NoError(t, err)
	}

	// A sedan frees up. It serves neither bus request, and walking the queue
	// must not reshuffle them.
	f.addVehicle(model.VehicleTypeSedan)
	assert.NoError(t, f.svc.ReconcileQueue(context.Background(), f.ministry))

	head := f.db.findRequest(first.Request.ID)
	tail := f.db.findRequest(second.Request.ID)
	assert.Nil(t, head.VehicleID)
	assert.Nil(t, tail.VehicleID)
	assert.Equal(t, 1, head.QueuePosition)
	assert.Equal(t, 2, tail.QueuePosition)
	assert.Less(t, head.QueuePosition, tail.QueuePosition)
}

func TestAllocate_RefusesDecidedRequest(t *testing.T) {
	f := newDispatchFixture(t, 0)
	f.addVehicle(model.VehicleTypeSedan)

	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)
	_, err = f.svc.SupervisorDecide(context.Background(), f.supervisor, record.Request.ID, false, "not justified")
	assert.NoError(t, err)

	// An approval that raced the denial and lost must not resurrect it.
	_, err = f.db.fleetStore().Allocate(context.Background(), record.Request.ID, 0)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Equal(t, model.RequestStatusDenied, f.db.findRequest(record.Request.ID).Status)
}

func TestGet_ScopesVisibility(t *testing.T) {
	f := newDispatchFixture(t, 0)
	record, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	// The requester and the ministry's fleet manager can see it.
	_, err = f.svc.Get(context.Background(), f.staff, record.Request.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(context.Background(), f.fleet, record.Request.ID)
	assert.NoError(t, err)

	// A different staff user cannot.
	stranger := f.staff
	stranger.UserID = uuid.New()
	_, err = f.svc.Get(context.Background(), stranger, record.Request.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_ScopesByRole(t *testing.T) {
	f := newDispatchFixture(t, 0)

	_, err := f.svc.CreateRequest(context.Background(), f.staff, f.validInput())
	assert.NoError(t, err)

	other := f.staff
	other.UserID = uuid.New()
	other.DepartmentID = &f.plainDept.ID
	_, err = f.svc.CreateRequest(context.Background(), other, f.validInput())
	assert.NoError(t, err)

	mine, err := f.svc.List(context.Background(), f.staff, ListRequestsOptions{})
	assert.NoError(t, err)
	assert.Len(t, mine, 1)

	dept, err := f.svc.List(context.Background(), f.supervisor, ListRequestsOptions{})
	assert.NoError(t, err)
	assert.Len(t, dept, 1)

	all, err := f.svc.List(context.Background(), f.fleet, ListRequestsOptions{})
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}
