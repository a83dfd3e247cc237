package workers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"event-reward-system/models"
	"event-reward-system/services"
	"event-reward-system/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTerminalStore struct {
	store.ClaimStore

	claims    []models.RewardClaim
	lastSince time.Time
}

func (f *fakeTerminalStore) ListTerminalUpdatedSince(_ context.Context, since time.Time) ([]models.RewardClaim, error) {
	f.lastSince = since
	var out []models.RewardClaim
	for _, c := range f.claims {
		if c.UpdatedAt.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	events map[string]*models.Event
}

func (f *fakeCatalog) FindEventByID(_ context.Context, id string) (*models.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, services.ErrEventNotFound
}

func (f *fakeCatalog) ListEventRewards(context.Context, string) ([]models.Reward, error) {
	return nil, nil
}

type fakeUploader struct {
	puts map[string][]byte
	err  error
}

func (f *fakeUploader) Put(_ context.Context, key string, body []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[key] = body
	return nil
}

func terminalClaim(eventID string, updatedAt time.Time) models.RewardClaim {
	return models.RewardClaim{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		EventID:   eventID,
		Status:    models.ClaimStatusApproved,
		UpdatedAt: updatedAt,
	}
}

func TestExportGroupsByEventAndUsesSlugKeys(t *testing.T) {
	ctx := context.Background()
	eventA := uuid.NewString()
	eventB := uuid.NewString()
	now := time.Now().UTC()

	claims := &fakeTerminalStore{claims: []models.RewardClaim{
		terminalClaim(eventA, now),
		terminalClaim(eventA, now),
		terminalClaim(eventB, now),
	}}
	catalog := &fakeCatalog{events: map[string]*models.Event{
		eventA: {ID: eventA, Name: "Launch Week Login"},
	}}
	uploader := &fakeUploader{}

	w := NewClaimsExportWorker(claims, catalog, uploader)
	require.NoError(t, w.exportOnce(ctx))

	require.Len(t, uploader.puts, 2)
	var slugged, fallback string
	for key, body := range uploader.puts {
		lines := strings.Count(string(body), "\n")
		switch {
		case strings.HasPrefix(key, "claims/launch-week-login/"):
			slugged = key
			assert.Equal(t, 2, lines)
		case strings.HasPrefix(key, "claims/"+eventB+"/"):
			fallback = key
			assert.Equal(t, 1, lines)
		}
	}
	assert.NotEmpty(t, slugged, "expected a slug-named archive for the known event")
	assert.NotEmpty(t, fallback, "expected an ID-named archive for the unknown event")
}

func TestExportAdvancesWatermarkOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.NewString()
	claims := &fakeTerminalStore{claims: []models.RewardClaim{
		terminalClaim(eventID, time.Now().UTC()),
	}}
	catalog := &fakeCatalog{events: map[string]*models.Event{}}
	uploader := &fakeUploader{err: errors.New("bucket unreachable")}

	w := NewClaimsExportWorker(claims, catalog, uploader)
	before := w.lastExport

	require.Error(t, w.exportOnce(ctx))
	assert.Equal(t, before, w.lastExport, "failed cycle must not move the watermark")

	uploader.err = nil
	require.NoError(t, w.exportOnce(ctx))
	assert.True(t, w.lastExport.After(before), "successful cycle advances the watermark")
	assert.Equal(t, before, claims.lastSince, "retry must cover the failed window")
}

func TestExportSkipsQuietWindows(t *testing.T) {
	ctx := context.Background()
	claims := &fakeTerminalStore{}
	uploader := &fakeUploader{}

	w := NewClaimsExportWorker(claims, &fakeCatalog{}, uploader)
	require.NoError(t, w.exportOnce(ctx))
	assert.Empty(t, uploader.puts)
}
