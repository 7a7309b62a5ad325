package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch-service/internal/model"
	"dispatch-service/internal/service"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *model.DispatchRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DispatchRequest, error) {
	var request model.DispatchRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Department").
		Preload("Vehicle").
		Preload("Driver").
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) List(ctx context.Context, filter service.RequestFilter) ([]model.DispatchRequest, error) {
	query := r.db.WithContext(ctx).Model(&model.DispatchRequest{})

	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.MinistryID != nil {
		query = query.Where("ministry_id = ?", *filter.MinistryID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.DateFrom != nil {
		query = query.Where("requested_start_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("requested_start_at <= ?", *filter.DateTo)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var requests []model.DispatchRequest
	err := query.
		Order("created_at DESC").
		Preload("Requester").
		Preload("Department").
		Preload("Vehicle").
		Preload("Driver").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RequestRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus, note string, decidedBy *uuid.UUID) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if note != "" {
		updates["decision_note"] = note
	}
	if decidedBy != nil {
		updates["decided_by"] = *decidedBy
		updates["decided_at"] = gorm.Expr("NOW()")
	}
	if status == model.RequestStatusDenied {
		// queue_position only means anything while waiting for a vehicle
		updates["queue_position"] = 0
	}
	return r.db.WithContext(ctx).
		Model(&model.DispatchRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *RequestRepository) RecordDecision(ctx context.Context, id uuid.UUID, note string, decidedBy uuid.UUID) error {
	updates := map[string]interface{}{
		"decided_by": decidedBy,
		"decided_at": gorm.Expr("NOW()"),
	}
	if note != "" {
		updates["decision_note"] = note
	}
	return r.db.WithContext(ctx).
		Model(&model.DispatchRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *RequestRepository) LogStatusChange(ctx context.Context, entry *model.RequestStatusLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
