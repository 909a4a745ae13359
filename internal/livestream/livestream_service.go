package livestream

import (
	"context"
	"errors"
	"time"

	"bounce-service/internal/events"
	"bounce-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrStreamNotFound = errors.New("livestream not found")
	ErrNotStreamer    = errors.New("not the stream owner")
)

type StreamResponse struct {
	ID         uint                 `json:"id"`
	RoomID     string               `json:"room_id"`
	Streamer   *models.UserResponse `json:"streamer,omitempty"`
	PostID     string               `json:"post_id,omitempty"`
	Status     string               `json:"status"`
	MaxViewers int                  `json:"max_viewers"`
	StartedAt  time.Time            `json:"started_at"`
	EndedAt    *time.Time           `json:"ended_at,omitempty"`
}

type LivestreamService interface {
	Start(ctx context.Context, userID uint, postID string) (*StreamResponse, error)
	Stop(ctx context.Context, userID uint, roomID string) error
	Get(ctx context.Context, roomID string) (*StreamResponse, error)
	ListActive(ctx context.Context) ([]*StreamResponse, error)

	// RecordViewers and EndRoom back the tracking websocket.
	RecordViewers(ctx context.Context, roomID string, viewers int) error
	EndRoom(ctx context.Context, roomID string) error
}

type livestreamService struct {
	repo     LivestreamRepository
	producer *events.Producer
}

func NewLivestreamService(repo LivestreamRepository, producer *events.Producer) LivestreamService {
	return &livestreamService{repo: repo, producer: producer}
}

func (s *livestreamService) Start(ctx context.Context, userID uint, postID string) (*StreamResponse, error) {
	stream := &models.Livestream{
		UserID: userID,
		RoomID: uuid.New().String(),
		PostID: postID,
		Status: models.LivestreamStatusActive,
	}
	if err := s.repo.Create(ctx, stream); err != nil {
		return nil, err
	}

	resp := toResponse(stream)
	s.producer.Emit(ctx, events.EventStreamStarted, resp)
	return resp, nil
}

func (s *livestreamService) Stop(ctx context.Context, userID uint, roomID string) error {
	stream, err := s.repo.FindByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStreamNotFound
		}
		return err
	}
	if stream.UserID != userID {
		return ErrNotStreamer
	}
	return s.repo.End(ctx, roomID, time.Now())
}

func (s *livestreamService) Get(ctx context.Context, roomID string) (*StreamResponse, error) {
	stream, err := s.repo.FindByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStreamNotFound
		}
		return nil, err
	}
	return toResponse(stream), nil
}

func (s *livestreamService) ListActive(ctx context.Context) ([]*StreamResponse, error) {
	streams, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*StreamResponse, 0, len(streams))
	for i := range streams {
		out = append(out, toResponse(&streams[i]))
	}
	return out, nil
}

func (s *livestreamService) RecordViewers(ctx context.Context, roomID string, viewers int) error {
	if viewers < 0 {
		return nil
	}
	return s.repo.UpdateMaxViewers(ctx, roomID, viewers)
}

func (s *livestreamService) EndRoom(ctx context.Context, roomID string) error {
	return s.repo.End(ctx, roomID, time.Now())
}

func toResponse(stream *models.Livestream) *StreamResponse {
	resp := &StreamResponse{
		ID:         stream.ID,
		RoomID:     stream.RoomID,
		PostID:     stream.PostID,
		Status:     stream.Status,
		MaxViewers: stream.MaxViewers,
		StartedAt:  stream.CreatedAt,
		EndedAt:    stream.EndedAt,
	}
	if stream.User.ID != 0 {
		resp.Streamer = models.NewUserResponse(&stream.User)
	}
	return resp
}
