package checkin

import (
	"context"
	"errors"
	"time"

	"bounce-service/internal/events"
	"bounce-service/internal/geo"
	"bounce-service/internal/models"
)

const (
	recentWindow       = 24 * time.Hour
	defaultRecentLimit = 100
)

var ErrOutsideGeofence = errors.New("location is outside the event area")

type CreateCheckInRequest struct {
	Latitude     float64 `json:"latitude" binding:"required"`
	Longitude    float64 `json:"longitude" binding:"required"`
	LocationName string  `json:"location_name"`
}

type CheckInResponse struct {
	ID           uint                 `json:"id"`
	User         *models.UserResponse `json:"user,omitempty"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	LocationName string               `json:"location_name,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type CheckInService interface {
	Create(ctx context.Context, userID uint, req *CreateCheckInRequest) (*CheckInResponse, error)
	Recent(ctx context.Context, limit int) ([]*CheckInResponse, error)
	ForUser(ctx context.Context, userID uint, limit int) ([]*CheckInResponse, error)
}

type checkInService struct {
	repo     CheckInRepository
	fence    geo.Fence
	producer *events.Producer
}

func NewCheckInService(repo CheckInRepository, fence geo.Fence, producer *events.Producer) CheckInService {
	return &checkInService{repo: repo, fence: fence, producer: producer}
}

func (s *checkInService) Create(ctx context.Context, userID uint, req *CreateCheckInRequest) (*CheckInResponse, error) {
	if !s.fence.Contains(req.Latitude, req.Longitude) {
		return nil, ErrOutsideGeofence
	}

	checkIn := &models.CheckIn{
		UserID:       userID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
	}
	if err := s.repo.Create(ctx, checkIn); err != nil {
		return nil, err
	}

	resp := toResponse(checkIn)
	s.producer.Emit(ctx, events.EventCheckInCreated, resp)
	return resp, nil
}

func (s *checkInService) Recent(ctx context.Context, limit int) ([]*CheckInResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultRecentLimit
	}

	checkIns, err := s.repo.Recent(ctx, time.Now().Add(-recentWindow), limit)
	if err != nil {
		return nil, err
	}
	return toResponses(checkIns), nil
}

func (s *checkInService) ForUser(ctx context.Context, userID uint, limit int) ([]*CheckInResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultRecentLimit
	}

	checkIns, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(checkIns), nil
}

func toResponse(c *models.CheckIn) *CheckInResponse {
	resp := &CheckInResponse{
		ID:           c.ID,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		LocationName: c.LocationName,
		CreatedAt:    c.CreatedAt,
	}
	if c.User.ID != 0 {
		resp.User = models.NewUserResponse(&c.User)
	}
	return resp
}

func toResponses(checkIns []models.CheckIn) []*CheckInResponse {
	out := make([]*CheckInResponse, 0, len(checkIns))
	for i := range checkIns {
		out = append(out, toResponse(&checkIns[i]))
	}
	return out
}
