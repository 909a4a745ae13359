package location

import (
	"context"
	"time"

	"bounce-service/internal/models"

	"gorm.io/gorm"
)

type LocationRepository interface {
	Upsert(ctx context.Context, loc *models.AnonymousLocation) error
	Find(ctx context.Context, locationID string) (*models.AnonymousLocation, error)
	ListActive(ctx context.Context, since time.Time) ([]models.AnonymousLocation, error)
	Delete(ctx context.Context, locationID string) error
	DeleteExpired(ctx context.Context, before time.Time) ([]string, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Upsert(ctx context.Context, loc *models.AnonymousLocation) error {
	return r.db.WithContext(ctx).Save(loc).Error
}

func (r *locationRepository) Find(ctx context.Context, locationID string) (*models.AnonymousLocation, error) {
	var loc models.AnonymousLocation
	err := r.db.WithContext(ctx).First(&loc, "location_id = ?", locationID).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) ListActive(ctx context.Context, since time.Time) ([]models.AnonymousLocation, error) {
	var locs []models.AnonymousLocation
	err := r.db.WithContext(ctx).
		Where("last_updated >= ?", since).
		Find(&locs).Error
	return locs, err
}

func (r *locationRepository) Delete(ctx context.Context, locationID string) error {
	return r.db.WithContext(ctx).
		Delete(&models.AnonymousLocation{}, "location_id = ?", locationID).Error
}

// DeleteExpired removes stale markers and returns their ids so callers can
// tell connected clients to drop them from the map.
func (r *locationRepository) DeleteExpired(ctx context.Context, before time.Time) ([]string, error) {
	var expired []models.AnonymousLocation
	err := r.db.WithContext(ctx).
		Where("last_updated < ?", before).
		Find(&expired).Error
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(expired))
	for _, loc := range expired {
		ids = append(ids, loc.LocationID)
	}

	err = r.db.WithContext(ctx).
		Where("location_id IN ?", ids).
		Delete(&models.AnonymousLocation{}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
