package bounce

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type attendKey struct {
	bounceID uint
	userID   uint
}

type fakeBounceRepo struct {
	bounces   map[uint]*models.Bounce
	invites   map[attendKey]*models.BounceInvite
	attendees map[attendKey]bool
	nextID    uint
}

func newFakeBounceRepo() *fakeBounceRepo {
	return &fakeBounceRepo{
		bounces:   make(map[uint]*models.Bounce),
		invites:   make(map[attendKey]*models.BounceInvite),
		attendees: make(map[attendKey]bool),
		nextID:    1,
	}
}

func (f *fakeBounceRepo) Create(_ context.Context, bounce *models.Bounce) error {
	bounce.ID = f.nextID
	f.nextID++
	bounce.Creator = models.User{Model: gorm.Model{ID: bounce.CreatorID}, Nickname: "creator"}
	f.bounces[bounce.ID] = bounce
	return nil
}

func (f *fakeBounceRepo) FindByID(_ context.Context, id uint) (*models.Bounce, error) {
	if b, ok := f.bounces[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBounceRepo) ListActive(_ context.Context, now time.Time, limit int) ([]models.Bounce, error) {
	var out []models.Bounce
	for _, b := range f.bounces {
		if b.Status != models.BounceStatusActive {
			continue
		}
		if !b.IsNow && b.BounceTime.Before(now) {
			continue
		}
		out = append(out, *b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBounceRepo) ListForUser(_ context.Context, userID uint) ([]models.Bounce, error) {
	var out []models.Bounce
	for _, b := range f.bounces {
		if b.CreatorID == userID || f.attendees[attendKey{b.ID, userID}] {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBounceRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	if b, ok := f.bounces[id]; ok {
		b.Status = status
	}
	return nil
}

func (f *fakeBounceRepo) CreateInvite(_ context.Context, invite *models.BounceInvite) error {
	invite.ID = f.nextID
	f.nextID++
	f.invites[attendKey{invite.BounceID, invite.UserID}] = invite
	return nil
}

func (f *fakeBounceRepo) FindInvite(_ context.Context, bounceID, userID uint) (*models.BounceInvite, error) {
	if inv, ok := f.invites[attendKey{bounceID, userID}]; ok {
		return inv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBounceRepo) UpdateInviteStatus(_ context.Context, inviteID uint, status string) error {
	for _, inv := range f.invites {
		if inv.ID == inviteID {
			inv.Status = status
		}
	}
	return nil
}

func (f *fakeBounceRepo) ListInvitesForUser(_ context.Context, userID uint) ([]models.BounceInvite, error) {
	var out []models.BounceInvite
	for k, inv := range f.invites {
		if k.userID == userID && inv.Status == models.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeBounceRepo) CreateAttendee(_ context.Context, attendee *models.BounceAttendee) error {
	f.attendees[attendKey{attendee.BounceID, attendee.UserID}] = true
	return nil
}

func (f *fakeBounceRepo) AttendeeExists(_ context.Context, bounceID, userID uint) (bool, error) {
	return f.attendees[attendKey{bounceID, userID}], nil
}

func (f *fakeBounceRepo) CountAttendees(_ context.Context, bounceID uint) (int64, error) {
	var n int64
	for k := range f.attendees {
		if k.bounceID == bounceID {
			n++
		}
	}
	return n, nil
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

func newBounceFixture(t *testing.T) (*fakeBounceRepo, *fakeNotifier, BounceService) {
	t.Helper()
	repo := newFakeBounceRepo()
	notifier := &fakeNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, notifier, NewBounceService(repo, notifier, nil, log)
}

func TestCreateAddsCreatorAsAttendee(t *testing.T) {
	repo, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{
		VenueName: "E11even",
		IsNow:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BounceStatusActive, resp.Status)
	assert.Equal(t, int64(1), resp.Attendees)
	assert.True(t, repo.attendees[attendKey{resp.ID, 1}])
}

func TestCreateInvitesAndNotifies(t *testing.T) {
	_, notifier, svc := newBounceFixture(t)

	_, err := svc.Create(context.Background(), 1, &CreateBounceRequest{
		VenueName:  "LIV",
		IsNow:      true,
		InviteeIDs: []uint{2, 3},
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, uint(2), notifier.sent[0].userID)
	assert.Equal(t, realtime.MessageTypeNotification, notifier.sent[0].msg.Type)
	assert.Contains(t, notifier.sent[0].msg.Text, "LIV")
}

func TestInviteRequiresCreator(t *testing.T) {
	_, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{VenueName: "LIV", IsNow: true})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Invite(context.Background(), 2, resp.ID, 3), ErrNotCreator)
	assert.ErrorIs(t, svc.Invite(context.Background(), 1, resp.ID, 1), ErrSelfInvite)
}

func TestInviteDuplicateRejected(t *testing.T) {
	_, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{VenueName: "LIV", IsNow: true})
	require.NoError(t, err)

	require.NoError(t, svc.Invite(context.Background(), 1, resp.ID, 2))
	assert.ErrorIs(t, svc.Invite(context.Background(), 1, resp.ID, 2), ErrAlreadyInvited)
}

func TestRespondAcceptJoinsAttendees(t *testing.T) {
	repo, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{VenueName: "LIV", IsNow: true})
	require.NoError(t, err)
	require.NoError(t, svc.Invite(context.Background(), 1, resp.ID, 2))

	require.NoError(t, svc.Respond(context.Background(), 2, resp.ID, true))
	assert.True(t, repo.attendees[attendKey{resp.ID, 2}])

	// Invite is spent.
	assert.ErrorIs(t, svc.Respond(context.Background(), 2, resp.ID, true), ErrInviteResolved)
}

func TestRespondDeclineDoesNotJoin(t *testing.T) {
	repo, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{VenueName: "LIV", IsNow: true})
	require.NoError(t, err)
	require.NoError(t, svc.Invite(context.Background(), 1, resp.ID, 2))

	require.NoError(t, svc.Respond(context.Background(), 2, resp.ID, false))
	assert.False(t, repo.attendees[attendKey{resp.ID, 2}])
}

func TestRespondWithoutInvite(t *testing.T) {
	_, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{VenueName: "LIV", IsNow: true})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Respond(context.Background(), 9, resp.ID, true), ErrInviteNotFound)
}

func TestCancelOnlyByCreator(t *testing.T) {
	repo, _, svc := newBounceFixture(t)

	resp, err := svc.Create(context.Background(), 1, &CreateBounceRequest{VenueName: "LIV", IsNow: true})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Cancel(context.Background(), 2, resp.ID), ErrNotCreator)
	require.NoError(t, svc.Cancel(context.Background(), 1, resp.ID))
	assert.Equal(t, models.BounceStatusCancelled, repo.bounces[resp.ID].Status)

	// No invites on a cancelled bounce.
	assert.ErrorIs(t, svc.Invite(context.Background(), 1, resp.ID, 2), ErrBounceInactive)
}
