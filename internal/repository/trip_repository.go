package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch-service/internal/model"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

func (r *TripRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.WithContext(ctx).
		Preload("FuelLogs").
		First(&trip, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *TripRepository) Save(ctx context.Context, trip *model.Trip) error {
	return r.db.WithContext(ctx).Save(trip).Error
}

func (r *TripRepository) AddFuelLog(ctx context.Context, entry *model.FuelLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *TripRepository) CreateReview(ctx context.Context, review *model.TripReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *TripRepository) HasReview(ctx context.Context, tripID uuid.UUID, role model.ReviewerRole) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TripReview{}).
		Where("trip_id = ? AND reviewer_role = ?", tripID, role).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TripRepository) ListReviews(ctx context.Context, tripID uuid.UUID) ([]model.TripReview, error) {
	var reviews []model.TripReview
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
