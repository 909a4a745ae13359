package admin

import (
	"context"
	"testing"

	"bounce-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAdminRepo struct {
	users   map[uint]*models.User
	bounces map[uint]*models.Bounce
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{
		users:   make(map[uint]*models.User),
		bounces: make(map[uint]*models.Bounce),
	}
}

func (f *fakeAdminRepo) CollectStats(_ context.Context) (*Stats, error) {
	return &Stats{
		Users:   int64(len(f.users)),
		Bounces: int64(len(f.bounces)),
	}, nil
}

func (f *fakeAdminRepo) ListUsers(_ context.Context, limit, offset int) ([]models.User, int64, error) {
	var all []models.User
	for id := uint(1); int(id) <= len(f.users); id++ {
		if u, ok := f.users[id]; ok {
			all = append(all, *u)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeAdminRepo) UpdateUser(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeAdminRepo) FindUser(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) DeleteUser(_ context.Context, id uint) error {
	delete(f.users, id)
	return nil
}

func (f *fakeAdminRepo) ListCheckIns(context.Context, int, int) ([]models.CheckIn, int64, error) {
	return nil, 0, nil
}

func (f *fakeAdminRepo) ListBounces(context.Context, int, int) ([]models.Bounce, int64, error) {
	return nil, 0, nil
}

func (f *fakeAdminRepo) ListFollows(context.Context, int, int) ([]models.Follow, int64, error) {
	return nil, 0, nil
}

func (f *fakeAdminRepo) FindBounce(_ context.Context, id uint) (*models.Bounce, error) {
	if b, ok := f.bounces[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) UpdateBounceStatus(_ context.Context, id uint, status string) error {
	if b, ok := f.bounces[id]; ok {
		b.Status = status
	}
	return nil
}

func (f *fakeAdminRepo) DeleteBounce(_ context.Context, id uint) error {
	delete(f.bounces, id)
	return nil
}

func seedAdminRepo() *fakeAdminRepo {
	repo := newFakeAdminRepo()
	for i := uint(1); i <= 30; i++ {
		repo.users[i] = &models.User{Model: gorm.Model{ID: i}, Nickname: "user"}
	}
	repo.bounces[1] = &models.Bounce{Model: gorm.Model{ID: 1}, Status: models.BounceStatusActive}
	return repo
}

func TestUsersPagination(t *testing.T) {
	repo := seedAdminRepo()
	svc := NewAdminService(repo)

	page, err := svc.Users(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, int64(30), page.Total)

	last, err := svc.Users(context.Background(), 10, 25)
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)

	// Out-of-range limits fall back to the default page size.
	fallback, err := svc.Users(context.Background(), 10000, -5)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, fallback.Limit)
	assert.Equal(t, 0, fallback.Offset)
}

func TestUpdateUserPromotesAdmin(t *testing.T) {
	repo := seedAdminRepo()
	svc := NewAdminService(repo)

	isAdmin := true
	user, err := svc.UpdateUser(context.Background(), 3, &UpdateUserRequest{IsAdmin: &isAdmin})
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, repo.users[3].IsAdmin)

	_, err = svc.UpdateUser(context.Background(), 999, &UpdateUserRequest{IsAdmin: &isAdmin})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	repo := seedAdminRepo()
	svc := NewAdminService(repo)

	require.NoError(t, svc.DeleteUser(context.Background(), 5))
	assert.NotContains(t, repo.users, uint(5))

	assert.ErrorIs(t, svc.DeleteUser(context.Background(), 5), ErrUserNotFound)
}

func TestUpdateBounceStatusValidatesStatus(t *testing.T) {
	repo := seedAdminRepo()
	svc := NewAdminService(repo)

	assert.ErrorIs(t, svc.UpdateBounceStatus(context.Background(), 1, "paused"), ErrBadStatus)

	require.NoError(t, svc.UpdateBounceStatus(context.Background(), 1, models.BounceStatusEnded))
	assert.Equal(t, models.BounceStatusEnded, repo.bounces[1].Status)

	assert.ErrorIs(t, svc.UpdateBounceStatus(context.Background(), 42, models.BounceStatusEnded), ErrBounceNotFound)
}

func TestDashboardCounts(t *testing.T) {
	svc := NewAdminService(seedAdminRepo())

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(30), stats.Users)
	assert.Equal(t, int64(1), stats.Bounces)
}
