package bounce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bounce-service/internal/events"
	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"gorm.io/gorm"
)

const defaultListLimit = 50

var (
	ErrBounceNotFound  = errors.New("bounce not found")
	ErrInviteNotFound  = errors.New("invite not found")
	ErrAlreadyInvited  = errors.New("user already invited")
	ErrAlreadyAttendee = errors.New("already attending")
	ErrNotCreator      = errors.New("not the bounce creator")
	ErrBounceInactive  = errors.New("bounce is no longer active")
	ErrSelfInvite      = errors.New("cannot invite yourself")
	ErrInviteResolved  = errors.New("invite already responded to")
)

// Notifier pushes realtime messages to a specific user's connections.
type Notifier interface {
	SendToUser(ctx context.Context, userID uint, msg realtime.Message) (bool, error)
}

type CreateBounceRequest struct {
	VenueName    string    `json:"venue_name" binding:"required"`
	VenueAddress string    `json:"venue_address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	BounceTime   time.Time `json:"bounce_time"`
	IsNow        bool      `json:"is_now"`
	IsPublic     bool      `json:"is_public"`
	InviteeIDs   []uint    `json:"invitee_ids"`
}

type BounceResponse struct {
	ID           uint                 `json:"id"`
	Creator      *models.UserResponse `json:"creator,omitempty"`
	VenueName    string               `json:"venue_name"`
	VenueAddress string               `json:"venue_address,omitempty"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	BounceTime   time.Time            `json:"bounce_time"`
	IsNow        bool                 `json:"is_now"`
	IsPublic     bool                 `json:"is_public"`
	Status       string               `json:"status"`
	Attendees    int64                `json:"attendees"`
	CreatedAt    time.Time            `json:"created_at"`
}

type BounceService interface {
	Create(ctx context.Context, creatorID uint, req *CreateBounceRequest) (*BounceResponse, error)
	Get(ctx context.Context, bounceID uint) (*BounceResponse, error)
	ListActive(ctx context.Context, limit int) ([]*BounceResponse, error)
	ListMine(ctx context.Context, userID uint) ([]*BounceResponse, error)
	Cancel(ctx context.Context, userID, bounceID uint) error
	Invite(ctx context.Context, inviterID, bounceID, inviteeID uint) error
	Respond(ctx context.Context, userID, bounceID uint, accept bool) error
	PendingInvites(ctx context.Context, userID uint) ([]models.BounceInvite, error)
}

type bounceService struct {
	repo     BounceRepository
	notifier Notifier
	producer *events.Producer
	log      *slog.Logger
}

func NewBounceService(repo BounceRepository, notifier Notifier, producer *events.Producer, log *slog.Logger) BounceService {
	return &bounceService{
		repo:     repo,
		notifier: notifier,
		producer: producer,
		log:      log,
	}
}

func (s *bounceService) Create(ctx context.Context, creatorID uint, req *CreateBounceRequest) (*BounceResponse, error) {
	bounceTime := req.BounceTime
	if req.IsNow || bounceTime.IsZero() {
		bounceTime = time.Now()
	}

	bounce := &models.Bounce{
		CreatorID:    creatorID,
		VenueName:    req.VenueName,
		VenueAddress: req.VenueAddress,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		BounceTime:   bounceTime,
		IsNow:        req.IsNow,
		IsPublic:     req.IsPublic,
		Status:       models.BounceStatusActive,
	}
	if err := s.repo.Create(ctx, bounce); err != nil {
		return nil, err
	}

	// The creator attends their own bounce.
	if err := s.repo.CreateAttendee(ctx, &models.BounceAttendee{
		BounceID: bounce.ID,
		UserID:   creatorID,
	}); err != nil {
		return nil, err
	}

	for _, inviteeID := range req.InviteeIDs {
		if err := s.Invite(ctx, creatorID, bounce.ID, inviteeID); err != nil {
			s.log.Warn("bounce invite failed", "bounce_id", bounce.ID, "invitee_id", inviteeID, "error", err)
		}
	}

	resp, err := s.Get(ctx, bounce.ID)
	if err != nil {
		return nil, err
	}
	s.producer.Emit(ctx, events.EventBounceCreated, resp)
	return resp, nil
}

func (s *bounceService) Get(ctx context.Context, bounceID uint) (*BounceResponse, error) {
	bounce, err := s.repo.FindByID(ctx, bounceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBounceNotFound
		}
		return nil, err
	}
	return s.toResponse(ctx, bounce), nil
}

func (s *bounceService) ListActive(ctx context.Context, limit int) ([]*BounceResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}

	bounces, err := s.repo.ListActive(ctx, time.Now(), limit)
	if err != nil {
		return nil, err
	}

	out := make([]*BounceResponse, 0, len(bounces))
	for i := range bounces {
		out = append(out, s.toResponse(ctx, &bounces[i]))
	}
	return out, nil
}

func (s *bounceService) ListMine(ctx context.Context, userID uint) ([]*BounceResponse, error) {
	bounces, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*BounceResponse, 0, len(bounces))
	for i := range bounces {
		out = append(out, s.toResponse(ctx, &bounces[i]))
	}
	return out, nil
}

func (s *bounceService) Cancel(ctx context.Context, userID, bounceID uint) error {
	bounce, err := s.repo.FindByID(ctx, bounceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBounceNotFound
		}
		return err
	}
	if bounce.CreatorID != userID {
		return ErrNotCreator
	}
	return s.repo.UpdateStatus(ctx, bounceID, models.BounceStatusCancelled)
}

func (s *bounceService) Invite(ctx context.Context, inviterID, bounceID, inviteeID uint) error {
	if inviterID == inviteeID {
		return ErrSelfInvite
	}

	bounce, err := s.repo.FindByID(ctx, bounceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBounceNotFound
		}
		return err
	}
	if bounce.Status != models.BounceStatusActive {
		return ErrBounceInactive
	}
	if bounce.CreatorID != inviterID {
		return ErrNotCreator
	}

	if _, err := s.repo.FindInvite(ctx, bounceID, inviteeID); err == nil {
		return ErrAlreadyInvited
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.repo.CreateInvite(ctx, &models.BounceInvite{
		BounceID: bounceID,
		UserID:   inviteeID,
		Status:   models.InviteStatusPending,
	}); err != nil {
		return err
	}

	// Notification is best effort; the invite row is the source of truth.
	msg := realtime.NewNotificationMessage(inviterID,
		fmt.Sprintf("%s invited you to bounce at %s", bounce.Creator.Nickname, bounce.VenueName))
	if _, err := s.notifier.SendToUser(ctx, inviteeID, msg); err != nil {
		s.log.Warn("invite notification failed", "user_id", inviteeID, "error", err)
	}

	return nil
}

func (s *bounceService) Respond(ctx context.Context, userID, bounceID uint, accept bool) error {
	invite, err := s.repo.FindInvite(ctx, bounceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	if invite.Status != models.InviteStatusPending {
		return ErrInviteResolved
	}

	status := models.InviteStatusDeclined
	if accept {
		status = models.InviteStatusAccepted
	}
	if err := s.repo.UpdateInviteStatus(ctx, invite.ID, status); err != nil {
		return err
	}

	if !accept {
		return nil
	}

	exists, err := s.repo.AttendeeExists(ctx, bounceID, userID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyAttendee
	}
	return s.repo.CreateAttendee(ctx, &models.BounceAttendee{
		BounceID: bounceID,
		UserID:   userID,
	})
}

func (s *bounceService) PendingInvites(ctx context.Context, userID uint) ([]models.BounceInvite, error) {
	return s.repo.ListInvitesForUser(ctx, userID)
}

func (s *bounceService) toResponse(ctx context.Context, bounce *models.Bounce) *BounceResponse {
	attendees, err := s.repo.CountAttendees(ctx, bounce.ID)
	if err != nil {
		s.log.Warn("attendee count failed", "bounce_id", bounce.ID, "error", err)
	}

	resp := &BounceResponse{
		ID:           bounce.ID,
		VenueName:    bounce.VenueName,
		VenueAddress: bounce.VenueAddress,
		Latitude:     bounce.Latitude,
		Longitude:    bounce.Longitude,
		BounceTime:   bounce.BounceTime,
		IsNow:        bounce.IsNow,
		IsPublic:     bounce.IsPublic,
		Status:       bounce.Status,
		Attendees:    attendees,
		CreatedAt:    bounce.CreatedAt,
	}
	if bounce.Creator.ID != 0 {
		resp.Creator = models.NewUserResponse(&bounce.Creator)
	}
	return resp
}
