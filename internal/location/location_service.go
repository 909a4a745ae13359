package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrLocationNotFound = errors.New("location not found")

// Broadcaster fans a realtime message out to every connected feed client.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg realtime.Message) error
}

type UpdateLocationRequest struct {
	// LocationID is the marker id from a previous update. Empty or unknown
	// ids start a fresh marker so stale clients cannot resurrect old ones.
	LocationID string   `json:"location_id"`
	Latitude   float64  `json:"latitude" binding:"required"`
	Longitude  float64  `json:"longitude" binding:"required"`
	AreaName   *string  `json:"area_name"`
}

type LocationResponse struct {
	LocationID  string    `json:"location_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	AreaName    *string   `json:"area_name,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

type LocationService interface {
	Update(ctx context.Context, req *UpdateLocationRequest) (*LocationResponse, error)
	Remove(ctx context.Context, locationID string) error
	Active(ctx context.Context) ([]*LocationResponse, error)
	// ExpireStale deletes markers past the TTL and announces each expiry.
	ExpireStale(ctx context.Context) (int, error)
}

type locationService struct {
	repo        LocationRepository
	broadcaster Broadcaster
	ttl         time.Duration
	log         *slog.Logger
}

func NewLocationService(repo LocationRepository, broadcaster Broadcaster, ttl time.Duration, log *slog.Logger) LocationService {
	return &locationService{
		repo:        repo,
		broadcaster: broadcaster,
		ttl:         ttl,
		log:         log,
	}
}

func (s *locationService) Update(ctx context.Context, req *UpdateLocationRequest) (*LocationResponse, error) {
	locationID := req.LocationID
	if locationID != "" {
		if _, err := s.repo.Find(ctx, locationID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			locationID = ""
		}
	}
	if locationID == "" {
		locationID = uuid.New().String()
	}

	loc := &models.AnonymousLocation{
		LocationID:  locationID,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		AreaName:    req.AreaName,
		LastUpdated: time.Now(),
	}
	if err := s.repo.Upsert(ctx, loc); err != nil {
		return nil, err
	}

	area := ""
	if loc.AreaName != nil {
		area = *loc.AreaName
	}
	msg := realtime.NewLocationUpdateMessage(loc.LocationID, loc.Latitude, loc.Longitude, area)
	if err := s.broadcaster.Broadcast(ctx, msg); err != nil {
		s.log.Warn("location broadcast failed", "location_id", loc.LocationID, "error", err)
	}

	return toResponse(loc), nil
}

func (s *locationService) Remove(ctx context.Context, locationID string) error {
	if _, err := s.repo.Find(ctx, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocationNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, locationID); err != nil {
		return err
	}

	if err := s.broadcaster.Broadcast(ctx, realtime.NewLocationExpiredMessage(locationID)); err != nil {
		s.log.Warn("location expiry broadcast failed", "location_id", locationID, "error", err)
	}
	return nil
}

func (s *locationService) Active(ctx context.Context) ([]*LocationResponse, error) {
	locs, err := s.repo.ListActive(ctx, time.Now().Add(-s.ttl))
	if err != nil {
		return nil, err
	}

	out := make([]*LocationResponse, 0, len(locs))
	for i := range locs {
		out = append(out, toResponse(&locs[i]))
	}
	return out, nil
}

func (s *locationService) ExpireStale(ctx context.Context) (int, error) {
	ids, err := s.repo.DeleteExpired(ctx, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := s.broadcaster.Broadcast(ctx, realtime.NewLocationExpiredMessage(id)); err != nil {
			s.log.Warn("location expiry broadcast failed", "location_id", id, "error", err)
		}
	}
	return len(ids), nil
}

func toResponse(loc *models.AnonymousLocation) *LocationResponse {
	return &LocationResponse{
		LocationID:  loc.LocationID,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		AreaName:    loc.AreaName,
		LastUpdated: loc.LastUpdated,
	}
}
