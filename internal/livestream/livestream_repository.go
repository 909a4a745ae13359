package livestream

import (
	"context"
	"time"

	"bounce-service/internal/models"

	"gorm.io/gorm"
)

type LivestreamRepository interface {
	Create(ctx context.Context, stream *models.Livestream) error
	FindByRoomID(ctx context.Context, roomID string) (*models.Livestream, error)
	ListActive(ctx context.Context) ([]models.Livestream, error)
	UpdateMaxViewers(ctx context.Context, roomID string, viewers int) error
	End(ctx context.Context, roomID string, endedAt time.Time) error
}

type livestreamRepository struct {
	db *gorm.DB
}

func NewLivestreamRepository(db *gorm.DB) LivestreamRepository {
	return &livestreamRepository{db: db}
}

func (r *livestreamRepository) Create(ctx context.Context, stream *models.Livestream) error {
	return r.db.WithContext(ctx).Create(stream).Error
}

func (r *livestreamRepository) FindByRoomID(ctx context.Context, roomID string) (*models.Livestream, error) {
	var stream models.Livestream
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		First(&stream).Error
	if err != nil {
		return nil, err
	}
	return &stream, nil
}

func (r *livestreamRepository) ListActive(ctx context.Context) ([]models.Livestream, error) {
	var streams []models.Livestream
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.LivestreamStatusActive).
		Order("created_at DESC").
		Find(&streams).Error
	return streams, err
}

// UpdateMaxViewers only ever raises the high-water mark.
func (r *livestreamRepository) UpdateMaxViewers(ctx context.Context, roomID string, viewers int) error {
	return r.db.WithContext(ctx).
		Model(&models.Livestream{}).
		Where("room_id = ? AND max_viewers < ?", roomID, viewers).
		Update("max_viewers", viewers).Error
}

func (r *livestreamRepository) End(ctx context.Context, roomID string, endedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Livestream{}).
		Where("room_id = ? AND status = ?", roomID, models.LivestreamStatusActive).
		Updates(map[string]any{
			"status":   models.LivestreamStatusEnded,
			"ended_at": endedAt,
		}).Error
}
