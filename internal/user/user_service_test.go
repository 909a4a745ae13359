package user

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"testing"

	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type followKey struct {
	follower  uint
	following uint
}

type fakeUserRepo struct {
	users   map[uint]*models.User
	follows map[followKey]bool
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:   make(map[uint]*models.User),
		follows: make(map[followKey]bool),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) IsAdmin(_ context.Context, id uint) (bool, error) {
	if u, ok := f.users[id]; ok {
		return u.IsAdmin, nil
	}
	return false, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) CreateFollow(_ context.Context, follow *models.Follow) error {
	f.follows[followKey{follow.FollowerID, follow.FollowingID}] = true
	return nil
}

func (f *fakeUserRepo) DeleteFollow(_ context.Context, followerID, followingID uint) (bool, error) {
	key := followKey{followerID, followingID}
	if !f.follows[key] {
		return false, nil
	}
	delete(f.follows, key)
	return true, nil
}

func (f *fakeUserRepo) FollowExists(_ context.Context, followerID, followingID uint) (bool, error) {
	return f.follows[followKey{followerID, followingID}], nil
}

func (f *fakeUserRepo) CountFollowers(_ context.Context, userID uint) (int64, error) {
	var n int64
	for k := range f.follows {
		if k.following == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) CountFollowing(_ context.Context, userID uint) (int64, error) {
	var n int64
	for k := range f.follows {
		if k.follower == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserRepo) ListFollowers(_ context.Context, userID uint) ([]models.User, error) {
	var out []models.User
	for k := range f.follows {
		if k.following == userID {
			out = append(out, *f.users[k.follower])
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListFollowing(_ context.Context, userID uint) ([]models.User, error) {
	var out []models.User
	for k := range f.follows {
		if k.follower == userID {
			out = append(out, *f.users[k.following])
		}
	}
	return out, nil
}

type fakeNotifier struct {
	sent []struct {
		userID uint
		msg    realtime.Message
	}
}

func (f *fakeNotifier) SendToUser(_ context.Context, userID uint, msg realtime.Message) (bool, error) {
	f.sent = append(f.sent, struct {
		userID uint
		msg    realtime.Message
	}{userID, msg})
	return true, nil
}

type fakeUploader struct {
	url string
}

func (f fakeUploader) UploadImage(context.Context, string, *multipart.FileHeader) (string, error) {
	return f.url, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUserFixture(t *testing.T) (*fakeUserRepo, *fakeNotifier, UserService) {
	t.Helper()
	repo := newFakeUserRepo(
		&models.User{Model: gorm.Model{ID: 1}, Email: "ana@example.com", Nickname: "ana"},
		&models.User{Model: gorm.Model{ID: 2}, Email: "ben@example.com", Nickname: "ben"},
	)
	notifier := &fakeNotifier{}
	svc := NewUserService(repo, notifier, fakeUploader{url: "https://cdn.example.com/p.jpg"}, nil, discardLogger())
	return repo, notifier, svc
}

func TestFollowCreatesRelationAndNotifies(t *testing.T) {
	repo, notifier, svc := newUserFixture(t)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	assert.True(t, repo.follows[followKey{1, 2}])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, uint(2), notifier.sent[0].userID)
	assert.Equal(t, realtime.MessageTypeNotification, notifier.sent[0].msg.Type)
}

func TestFollowRejectsSelfAndDuplicates(t *testing.T) {
	_, _, svc := newUserFixture(t)

	assert.ErrorIs(t, svc.Follow(context.Background(), 1, 1), ErrSelfFollow)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	assert.ErrorIs(t, svc.Follow(context.Background(), 1, 2), ErrAlreadyFollow)
}

func TestFollowUnknownTarget(t *testing.T) {
	_, _, svc := newUserFixture(t)

	assert.ErrorIs(t, svc.Follow(context.Background(), 1, 99), ErrUserNotFound)
}

func TestUnfollow(t *testing.T) {
	repo, _, svc := newUserFixture(t)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	require.NoError(t, svc.Unfollow(context.Background(), 1, 2))
	assert.False(t, repo.follows[followKey{1, 2}])

	assert.ErrorIs(t, svc.Unfollow(context.Background(), 1, 2), ErrNotFollowing)
}

func TestProfileCounts(t *testing.T) {
	_, _, svc := newUserFixture(t)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))

	profile, err := svc.GetProfile(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.Followers)
	assert.Equal(t, int64(0), profile.Following)
	assert.Equal(t, "ben", profile.Nickname)
}

func TestUpdateProfilePartialFields(t *testing.T) {
	repo, _, svc := newUserFixture(t)

	bio := "night owl"
	profile, err := svc.UpdateProfile(context.Background(), 1, &UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "night owl", profile.Bio)
	assert.Equal(t, "ana", profile.Nickname)
	assert.Equal(t, "night owl", repo.users[1].Bio)
}

func TestUploadProfilePicturePersistsURL(t *testing.T) {
	repo, _, svc := newUserFixture(t)

	url, err := svc.UploadProfilePicture(context.Background(), 1, &multipart.FileHeader{Filename: "p.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/p.jpg", url)
	assert.Equal(t, url, repo.users[1].ProfilePicture)
}
