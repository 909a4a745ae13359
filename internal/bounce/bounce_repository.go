package bounce

import (
	"context"
	"time"

	"bounce-service/internal/models"

	"gorm.io/gorm"
)

type BounceRepository interface {
	Create(ctx context.Context, bounce *models.Bounce) error
	FindByID(ctx context.Context, id uint) (*models.Bounce, error)
	ListActive(ctx context.Context, now time.Time, limit int) ([]models.Bounce, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Bounce, error)
	UpdateStatus(ctx context.Context, id uint, status string) error

	CreateInvite(ctx context.Context, invite *models.BounceInvite) error
	FindInvite(ctx context.Context, bounceID, userID uint) (*models.BounceInvite, error)
	UpdateInviteStatus(ctx context.Context, inviteID uint, status string) error
	ListInvitesForUser(ctx context.Context, userID uint) ([]models.BounceInvite, error)

	CreateAttendee(ctx context.Context, attendee *models.BounceAttendee) error
	AttendeeExists(ctx context.Context, bounceID, userID uint) (bool, error)
	CountAttendees(ctx context.Context, bounceID uint) (int64, error)
}

type bounceRepository struct {
	db *gorm.DB
}

func NewBounceRepository(db *gorm.DB) BounceRepository {
	return &bounceRepository{db: db}
}

func (r *bounceRepository) Create(ctx context.Context, bounce *models.Bounce) error {
	return r.db.WithContext(ctx).Create(bounce).Error
}

func (r *bounceRepository) FindByID(ctx context.Context, id uint) (*models.Bounce, error) {
	var bounce models.Bounce
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Attendees").
		Preload("Invites").
		First(&bounce, id).Error
	if err != nil {
		return nil, err
	}
	return &bounce, nil
}

func (r *bounceRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]models.Bounce, error) {
	var bounces []models.Bounce
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("status = ?", models.BounceStatusActive).
		Where("is_now = ? OR bounce_time >= ?", true, now).
		Order("is_now DESC, bounce_time ASC").
		Limit(limit).
		Find(&bounces).Error
	return bounces, err
}

func (r *bounceRepository) ListForUser(ctx context.Context, userID uint) ([]models.Bounce, error) {
	var bounces []models.Bounce
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("creator_id = ?", userID).
		Or("id IN (?)", r.db.Model(&models.BounceAttendee{}).Select("bounce_id").Where("user_id = ?", userID)).
		Order("bounce_time DESC").
		Find(&bounces).Error
	return bounces, err
}

func (r *bounceRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Bounce{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *bounceRepository) CreateInvite(ctx context.Context, invite *models.BounceInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *bounceRepository) FindInvite(ctx context.Context, bounceID, userID uint) (*models.BounceInvite, error) {
	var invite models.BounceInvite
	err := r.db.WithContext(ctx).
		Where("bounce_id = ? AND user_id = ?", bounceID, userID).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *bounceRepository) UpdateInviteStatus(ctx context.Context, inviteID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.BounceInvite{}).
		Where("id = ?", inviteID).
		Update("status", status).Error
}

func (r *bounceRepository) ListInvitesForUser(ctx context.Context, userID uint) ([]models.BounceInvite, error) {
	var invites []models.BounceInvite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.InviteStatusPending).
		Find(&invites).Error
	return invites, err
}

func (r *bounceRepository) CreateAttendee(ctx context.Context, attendee *models.BounceAttendee) error {
	return r.db.WithContext(ctx).Create(attendee).Error
}

func (r *bounceRepository) AttendeeExists(ctx context.Context, bounceID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BounceAttendee{}).
		Where("bounce_id = ? AND user_id = ?", bounceID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *bounceRepository) CountAttendees(ctx context.Context, bounceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BounceAttendee{}).
		Where("bounce_id = ?", bounceID).Count(&count).Error
	return count, err
}
