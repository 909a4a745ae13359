package admin

import (
	"context"

	"bounce-service/internal/models"

	"gorm.io/gorm"
)

// Stats is the dashboard counters block.
type Stats struct {
	Users       int64 `json:"users"`
	Posts       int64 `json:"posts"`
	CheckIns    int64 `json:"check_ins"`
	Bounces     int64 `json:"bounces"`
	Follows     int64 `json:"follows"`
	Livestreams int64 `json:"livestreams"`
	Locations   int64 `json:"locations"`
}

type AdminRepository interface {
	CollectStats(ctx context.Context) (*Stats, error)

	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, id uint) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error

	ListCheckIns(ctx context.Context, limit, offset int) ([]models.CheckIn, int64, error)
	ListBounces(ctx context.Context, limit, offset int) ([]models.Bounce, int64, error)
	ListFollows(ctx context.Context, limit, offset int) ([]models.Follow, int64, error)

	FindBounce(ctx context.Context, id uint) (*models.Bounce, error)
	UpdateBounceStatus(ctx context.Context, id uint, status string) error
	DeleteBounce(ctx context.Context, id uint) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) CollectStats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{}

	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.User{}, &stats.Users},
		{&models.Post{}, &stats.Posts},
		{&models.CheckIn{}, &stats.CheckIns},
		{&models.Bounce{}, &stats.Bounces},
		{&models.Follow{}, &stats.Follows},
		{&models.Livestream{}, &stats.Livestreams},
		{&models.AnonymousLocation{}, &stats.Locations},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *adminRepository) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *adminRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *adminRepository) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *adminRepository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

func (r *adminRepository) ListCheckIns(ctx context.Context, limit, offset int) ([]models.CheckIn, int64, error) {
	var checkIns []models.CheckIn
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.CheckIn{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&checkIns).Error
	return checkIns, total, err
}

func (r *adminRepository) ListBounces(ctx context.Context, limit, offset int) ([]models.Bounce, int64, error) {
	var bounces []models.Bounce
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Bounce{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("Creator").Order("created_at DESC").Limit(limit).Offset(offset).Find(&bounces).Error
	return bounces, total, err
}

func (r *adminRepository) ListFollows(ctx context.Context, limit, offset int) ([]models.Follow, int64, error) {
	var follows []models.Follow
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&follows).Error
	return follows, total, err
}

func (r *adminRepository) FindBounce(ctx context.Context, id uint) (*models.Bounce, error) {
	var bounce models.Bounce
	if err := r.db.WithContext(ctx).First(&bounce, id).Error; err != nil {
		return nil, err
	}
	return &bounce, nil
}

func (r *adminRepository) UpdateBounceStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Bounce{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *adminRepository) DeleteBounce(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Bounce{}, id).Error
}
