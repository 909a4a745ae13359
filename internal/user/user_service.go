package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"bounce-service/internal/events"
	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrAlreadyFollow = errors.New("already following this user")
	ErrNotFollowing  = errors.New("not following this user")
)

// Notifier pushes realtime messages to a specific user's connections.
type Notifier interface {
	SendToUser(ctx context.Context, userID uint, msg realtime.Message) (bool, error)
}

// ImageUploader stores an uploaded image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, prefix string, file *multipart.FileHeader) (string, error)
}

type ProfileResponse struct {
	*models.UserResponse
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

type UpdateProfileRequest struct {
	Nickname *string `json:"nickname"`
	Bio      *string `json:"bio"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*ProfileResponse, error)
	UploadProfilePicture(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error)
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	Followers(ctx context.Context, userID uint) ([]*models.UserResponse, error)
	Following(ctx context.Context, userID uint) ([]*models.UserResponse, error)

	// Exists backs the websocket feed's user check.
	Exists(ctx context.Context, userID uint) (bool, error)
	// IsAdmin backs the admin-only middleware.
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

type userService struct {
	repo     UserRepository
	notifier Notifier
	uploader ImageUploader
	producer *events.Producer
	log      *slog.Logger
}

func NewUserService(repo UserRepository, notifier Notifier, uploader ImageUploader, producer *events.Producer, log *slog.Logger) UserService {
	return &userService{
		repo:     repo,
		notifier: notifier,
		uploader: uploader,
		producer: producer,
		log:      log,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*ProfileResponse, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	followers, err := s.repo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.repo.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		UserResponse: models.NewUserResponse(u),
		Followers:    followers,
		Following:    following,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*ProfileResponse, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Nickname != nil {
		u.Nickname = *req.Nickname
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *userService) UploadProfilePicture(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	url, err := s.uploader.UploadImage(ctx, "profiles", file)
	if err != nil {
		return "", fmt.Errorf("upload profile picture: %w", err)
	}

	u.ProfilePicture = url
	if err := s.repo.Update(ctx, u); err != nil {
		return "", err
	}
	return url, nil
}

func (s *userService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return ErrSelfFollow
	}

	target, err := s.repo.FindByID(ctx, followingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	exists, err := s.repo.FollowExists(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyFollow
	}

	if err := s.repo.CreateFollow(ctx, &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}); err != nil {
		return err
	}

	s.producer.Emit(ctx, events.EventUserFollowed, map[string]uint{
		"follower_id":  followerID,
		"following_id": followingID,
	})

	// Notification is best effort; the follow itself already succeeded.
	follower, err := s.repo.FindByID(ctx, followerID)
	if err == nil {
		msg := realtime.NewNotificationMessage(followerID,
			fmt.Sprintf("%s started following you", follower.Nickname))
		if _, err := s.notifier.SendToUser(ctx, target.ID, msg); err != nil {
			s.log.Warn("follow notification failed", "user_id", target.ID, "error", err)
		}
	}

	return nil
}

func (s *userService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	deleted, err := s.repo.DeleteFollow(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFollowing
	}
	return nil
}

func (s *userService) Followers(ctx context.Context, userID uint) ([]*models.UserResponse, error) {
	users, err := s.repo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

func (s *userService) Following(ctx context.Context, userID uint) ([]*models.UserResponse, error) {
	users, err := s.repo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

func (s *userService) Exists(ctx context.Context, userID uint) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

func (s *userService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	return s.repo.IsAdmin(ctx, userID)
}

func toResponses(users []models.User) []*models.UserResponse {
	out := make([]*models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserResponse(&users[i]))
	}
	return out
}
