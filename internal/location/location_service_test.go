package location

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"bounce-service/internal/models"
	"bounce-service/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLocationRepo struct {
	mu   sync.Mutex
	locs map[string]*models.AnonymousLocation
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locs: make(map[string]*models.AnonymousLocation)}
}

func (f *fakeLocationRepo) Upsert(_ context.Context, loc *models.AnonymousLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *loc
	f.locs[loc.LocationID] = &clone
	return nil
}

func (f *fakeLocationRepo) Find(_ context.Context, locationID string) (*models.AnonymousLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loc, ok := f.locs[locationID]; ok {
		return loc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLocationRepo) ListActive(_ context.Context, since time.Time) ([]models.AnonymousLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AnonymousLocation
	for _, loc := range f.locs {
		if !loc.LastUpdated.Before(since) {
			out = append(out, *loc)
		}
	}
	return out, nil
}

func (f *fakeLocationRepo) Delete(_ context.Context, locationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locs, locationID)
	return nil
}

func (f *fakeLocationRepo) DeleteExpired(_ context.Context, before time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, loc := range f.locs {
		if loc.LastUpdated.Before(before) {
			ids = append(ids, id)
			delete(f.locs, id)
		}
	}
	return ids, nil
}

func (f *fakeLocationRepo) put(loc *models.AnonymousLocation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locs[loc.LocationID] = loc
}

func (f *fakeLocationRepo) has(locationID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.locs[locationID]
	return ok
}

type fakeBroadcaster struct {
	messages []realtime.Message
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, msg realtime.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

func newLocationFixture(t *testing.T) (*fakeLocationRepo, *fakeBroadcaster, LocationService) {
	t.Helper()
	repo := newFakeLocationRepo()
	broadcaster := &fakeBroadcaster{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, broadcaster, NewLocationService(repo, broadcaster, 15*time.Minute, log)
}

func TestUpdateMintsNewMarkerAndBroadcasts(t *testing.T) {
	repo, broadcaster, svc := newLocationFixture(t)

	area := "Wynwood"
	resp, err := svc.Update(context.Background(), &UpdateLocationRequest{
		Latitude:  25.8011,
		Longitude: -80.1995,
		AreaName:  &area,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.LocationID)
	assert.True(t, repo.has(resp.LocationID))

	require.Len(t, broadcaster.messages, 1)
	msg := broadcaster.messages[0]
	assert.Equal(t, realtime.MessageTypeLocationUpdate, msg.Type)
	assert.Equal(t, resp.LocationID, msg.LocationID)
	require.NotNil(t, msg.Latitude)
	assert.InDelta(t, 25.8011, *msg.Latitude, 1e-9)
}

func TestUpdateKeepsKnownMarkerID(t *testing.T) {
	_, _, svc := newLocationFixture(t)

	first, err := svc.Update(context.Background(), &UpdateLocationRequest{Latitude: 25.80, Longitude: -80.20})
	require.NoError(t, err)

	second, err := svc.Update(context.Background(), &UpdateLocationRequest{
		LocationID: first.LocationID,
		Latitude:   25.81,
		Longitude:  -80.21,
	})
	require.NoError(t, err)
	assert.Equal(t, first.LocationID, second.LocationID)
}

func TestUpdateRotatesUnknownMarkerID(t *testing.T) {
	_, _, svc := newLocationFixture(t)

	resp, err := svc.Update(context.Background(), &UpdateLocationRequest{
		LocationID: "gone-marker",
		Latitude:   25.80,
		Longitude:  -80.20,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "gone-marker", resp.LocationID)
}

func TestActiveExcludesStaleMarkers(t *testing.T) {
	repo, _, svc := newLocationFixture(t)

	fresh, err := svc.Update(context.Background(), &UpdateLocationRequest{Latitude: 25.80, Longitude: -80.20})
	require.NoError(t, err)

	repo.put(&models.AnonymousLocation{
		LocationID:  "stale",
		LastUpdated: time.Now().Add(-20 * time.Minute),
	})

	active, err := svc.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.LocationID, active[0].LocationID)
}

func TestExpireStaleBroadcastsPerMarker(t *testing.T) {
	repo, broadcaster, svc := newLocationFixture(t)

	repo.put(&models.AnonymousLocation{LocationID: "old-1", LastUpdated: time.Now().Add(-30 * time.Minute)})
	repo.put(&models.AnonymousLocation{LocationID: "old-2", LastUpdated: time.Now().Add(-30 * time.Minute)})
	repo.put(&models.AnonymousLocation{LocationID: "live", LastUpdated: time.Now()})

	removed, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.True(t, repo.has("live"))

	require.Len(t, broadcaster.messages, 2)
	expired := map[string]bool{}
	for _, msg := range broadcaster.messages {
		assert.Equal(t, realtime.MessageTypeLocationExpired, msg.Type)
		expired[msg.LocationID] = true
	}
	assert.True(t, expired["old-1"])
	assert.True(t, expired["old-2"])
}

func TestRemoveAnnouncesExpiry(t *testing.T) {
	_, broadcaster, svc := newLocationFixture(t)

	resp, err := svc.Update(context.Background(), &UpdateLocationRequest{Latitude: 25.80, Longitude: -80.20})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), resp.LocationID))
	last := broadcaster.messages[len(broadcaster.messages)-1]
	assert.Equal(t, realtime.MessageTypeLocationExpired, last.Type)
	assert.Equal(t, resp.LocationID, last.LocationID)

	assert.ErrorIs(t, svc.Remove(context.Background(), resp.LocationID), ErrLocationNotFound)
}

func TestCleanerSweepsOnTick(t *testing.T) {
	repo, broadcaster, svc := newLocationFixture(t)
	repo.put(&models.AnonymousLocation{LocationID: "old", LastUpdated: time.Now().Add(-time.Hour)})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cleaner := NewCleaner(svc, 10*time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return !repo.has("old")
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	require.NotEmpty(t, broadcaster.messages)
	assert.Equal(t, realtime.MessageTypeLocationExpired, broadcaster.messages[0].Type)
}
