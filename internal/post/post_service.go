package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"bounce-service/internal/events"
	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"gorm.io/gorm"
)

const defaultFeedLimit = 50

var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post needs content or media")
	ErrAlreadyLiked = errors.New("post already liked")
	ErrNotLiked     = errors.New("post not liked")
	ErrNotOwner     = errors.New("not the post owner")
)

// Broadcaster fans a realtime message out to every connected feed client.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg realtime.Message) error
}

// ImageUploader stores post media and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, prefix string, file *multipart.FileHeader) (string, error)
}

type CreatePostRequest struct {
	Content   string   `form:"content" json:"content"`
	Latitude  *float64 `form:"latitude" json:"latitude"`
	Longitude *float64 `form:"longitude" json:"longitude"`
	VenueName *string  `form:"venue_name" json:"venue_name"`
}

type PostResponse struct {
	ID        uint                 `json:"id"`
	Author    *models.UserResponse `json:"author"`
	Content   string               `json:"content"`
	MediaURL  *string              `json:"media_url,omitempty"`
	MediaType *string              `json:"media_type,omitempty"`
	Latitude  *float64             `json:"latitude,omitempty"`
	Longitude *float64             `json:"longitude,omitempty"`
	VenueName *string              `json:"venue_name,omitempty"`
	Likes     int64                `json:"likes"`
	CreatedAt time.Time            `json:"created_at"`
}

type PostService interface {
	Create(ctx context.Context, userID uint, req *CreatePostRequest, media *multipart.FileHeader) (*PostResponse, error)
	Feed(ctx context.Context, limit, offset int) ([]*PostResponse, error)
	RecentFeed(ctx context.Context, limit int) (json.RawMessage, error)
	Get(ctx context.Context, postID uint) (*PostResponse, error)
	Delete(ctx context.Context, userID, postID uint) error
	Like(ctx context.Context, userID, postID uint) (int64, error)
	Unlike(ctx context.Context, userID, postID uint) (int64, error)
}

type postService struct {
	repo        PostRepository
	broadcaster Broadcaster
	uploader    ImageUploader
	producer    *events.Producer
	log         *slog.Logger
}

func NewPostService(repo PostRepository, broadcaster Broadcaster, uploader ImageUploader, producer *events.Producer, log *slog.Logger) PostService {
	return &postService{
		repo:        repo,
		broadcaster: broadcaster,
		uploader:    uploader,
		producer:    producer,
		log:         log,
	}
}

func (s *postService) Create(ctx context.Context, userID uint, req *CreatePostRequest, media *multipart.FileHeader) (*PostResponse, error) {
	if req.Content == "" && media == nil {
		return nil, ErrEmptyPost
	}

	post := &models.Post{
		UserID:    userID,
		Content:   req.Content,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		VenueName: req.VenueName,
	}

	if media != nil {
		url, err := s.uploader.UploadImage(ctx, "posts", media)
		if err != nil {
			return nil, fmt.Errorf("upload post media: %w", err)
		}
		mediaType := "image"
		post.MediaURL = &url
		post.MediaType = &mediaType
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Reload with the author preloaded so the pushed frame is complete.
	created, err := s.repo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, created)

	s.producer.Emit(ctx, events.EventPostCreated, resp)

	// Push is best effort; the post is already persisted.
	if raw, err := json.Marshal(resp); err == nil {
		if err := s.broadcaster.Broadcast(ctx, realtime.NewPostMessage(raw)); err != nil {
			s.log.Warn("post broadcast failed", "post_id", post.ID, "error", err)
		}
	}

	return resp, nil
}

func (s *postService) Feed(ctx context.Context, limit, offset int) ([]*PostResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.repo.Feed(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]*PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, s.toResponse(ctx, &posts[i]))
	}
	return out, nil
}

// RecentFeed serializes the newest posts for the snapshot pushed to a feed
// client right after it connects.
func (s *postService) RecentFeed(ctx context.Context, limit int) (json.RawMessage, error) {
	posts, err := s.Feed(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	return json.Marshal(posts)
}

func (s *postService) Get(ctx context.Context, postID uint) (*PostResponse, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.toResponse(ctx, post), nil
}

func (s *postService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if post.UserID != userID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, postID)
}

func (s *postService) Like(ctx context.Context, userID, postID uint) (int64, error) {
	if _, err := s.repo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPostNotFound
		}
		return 0, err
	}

	exists, err := s.repo.LikeExists(ctx, userID, postID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrAlreadyLiked
	}

	if err := s.repo.CreateLike(ctx, &models.Like{UserID: userID, PostID: postID}); err != nil {
		return 0, err
	}
	return s.repo.CountLikes(ctx, postID)
}

func (s *postService) Unlike(ctx context.Context, userID, postID uint) (int64, error) {
	deleted, err := s.repo.DeleteLike(ctx, userID, postID)
	if err != nil {
		return 0, err
	}
	if !deleted {
		return 0, ErrNotLiked
	}
	return s.repo.CountLikes(ctx, postID)
}

func (s *postService) toResponse(ctx context.Context, post *models.Post) *PostResponse {
	likes, err := s.repo.CountLikes(ctx, post.ID)
	if err != nil {
		s.log.Warn("like count failed", "post_id", post.ID, "error", err)
	}
	return &PostResponse{
		ID:        post.ID,
		Author:    models.NewUserResponse(&post.User),
		Content:   post.Content,
		MediaURL:  post.MediaURL,
		MediaType: post.MediaType,
		Latitude:  post.Latitude,
		Longitude: post.Longitude,
		VenueName: post.VenueName,
		Likes:     likes,
		CreatedAt: post.CreatedAt,
	}
}
