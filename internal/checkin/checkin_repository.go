package checkin

import (
	"context"
	"time"

	"bounce-service/internal/models"

	"gorm.io/gorm"
)

type CheckInRepository interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	Recent(ctx context.Context, since time.Time, limit int) ([]models.CheckIn, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.CheckIn, error)
}

type checkInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	return r.db.WithContext(ctx).Create(checkIn).Error
}

func (r *checkInRepository) Recent(ctx context.Context, since time.Time, limit int) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&checkIns).Error
	return checkIns, err
}

func (r *checkInRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&checkIns).Error
	return checkIns, err
}
