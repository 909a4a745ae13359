package admin

import (
	"context"
	"errors"

	"bounce-service/internal/models"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBounceNotFound = errors.New("bounce not found")
	ErrBadStatus      = errors.New("invalid bounce status")
)

// Page wraps a list response with its pagination window.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type UpdateUserRequest struct {
	Nickname *string `json:"nickname"`
	Bio      *string `json:"bio"`
	IsAdmin  *bool   `json:"is_admin"`
}

type AdminService interface {
	Dashboard(ctx context.Context) (*Stats, error)
	Users(ctx context.Context, limit, offset int) (*Page[models.User], error)
	UpdateUser(ctx context.Context, id uint, req *UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	CheckIns(ctx context.Context, limit, offset int) (*Page[models.CheckIn], error)
	Bounces(ctx context.Context, limit, offset int) (*Page[models.Bounce], error)
	Follows(ctx context.Context, limit, offset int) (*Page[models.Follow], error)
	UpdateBounceStatus(ctx context.Context, id uint, status string) error
	DeleteBounce(ctx context.Context, id uint) error
}

type adminService struct {
	repo AdminRepository
}

func NewAdminService(repo AdminRepository) AdminService {
	return &adminService{repo: repo}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *adminService) Dashboard(ctx context.Context) (*Stats, error) {
	return s.repo.CollectStats(ctx)
}

func (s *adminService) Users(ctx context.Context, limit, offset int) (*Page[models.User], error) {
	limit, offset = clampPage(limit, offset)
	users, total, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[models.User]{Items: users, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uint, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.repo.FindUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

func (s *adminService) CheckIns(ctx context.Context, limit, offset int) (*Page[models.CheckIn], error) {
	limit, offset = clampPage(limit, offset)
	checkIns, total, err := s.repo.ListCheckIns(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[models.CheckIn]{Items: checkIns, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *adminService) Bounces(ctx context.Context, limit, offset int) (*Page[models.Bounce], error) {
	limit, offset = clampPage(limit, offset)
	bounces, total, err := s.repo.ListBounces(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[models.Bounce]{Items: bounces, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *adminService) Follows(ctx context.Context, limit, offset int) (*Page[models.Follow], error) {
	limit, offset = clampPage(limit, offset)
	follows, total, err := s.repo.ListFollows(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[models.Follow]{Items: follows, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *adminService) UpdateBounceStatus(ctx context.Context, id uint, status string) error {
	switch status {
	case models.BounceStatusActive, models.BounceStatusCancelled, models.BounceStatusEnded:
	default:
		return ErrBadStatus
	}

	if _, err := s.repo.FindBounce(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBounceNotFound
		}
		return err
	}
	return s.repo.UpdateBounceStatus(ctx, id, status)
}

func (s *adminService) DeleteBounce(ctx context.Context, id uint) error {
	if _, err := s.repo.FindBounce(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBounceNotFound
		}
		return err
	}
	return s.repo.DeleteBounce(ctx, id)
}
