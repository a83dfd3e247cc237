package store

import (
	"context"
	"testing"
	"time"

	"event-reward-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormClaimStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RewardClaim{}))
	return NewGormClaimStore(db)
}

func rejectedClaim(userID, eventID string) *models.RewardClaim {
	return &models.RewardClaim{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
		Status:  models.ClaimStatusRejected,
		Rewards: models.IssuedRewards{},
		Comment: "condition not met",
	}
}

func TestFindByUserAndEventNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindByUserAndEvent(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestInsertEnforcesUniqueUserEventPair(t *testing.T) {
	s := newTestStore(t)
	userID, eventID := uuid.NewString(), uuid.NewString()

	require.NoError(t, s.Insert(context.Background(), rejectedClaim(userID, eventID)))

	err := s.Insert(context.Background(), rejectedClaim(userID, eventID))
	assert.ErrorIs(t, err, ErrDuplicateClaim)

	// Different event for the same user is fine.
	require.NoError(t, s.Insert(context.Background(), rejectedClaim(userID, uuid.NewString())))
	// Different user for the same event is fine.
	require.NoError(t, s.Insert(context.Background(), rejectedClaim(uuid.NewString(), eventID)))
}

func TestInsertRoundTripsSnapshotAndVerifier(t *testing.T) {
	s := newTestStore(t)
	userID, eventID := uuid.NewString(), uuid.NewString()
	verifiedAt := time.Now().UTC().Truncate(time.Second)

	claim := &models.RewardClaim{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
		Status:  models.ClaimStatusApproved,
		Rewards: models.IssuedRewards{{
			RewardID: uuid.NewString(),
			Type:     models.RewardTypePoint,
			Value:    models.JSON(`{"amount":100,"currency":"gold"}`),
			IssuedAt: verifiedAt,
		}},
		VerifiedAt: &verifiedAt,
		VerifiedBy: models.Verifier{Kind: models.VerifierKindSystem},
	}
	require.NoError(t, s.Insert(context.Background(), claim))

	got, err := s.FindByUserAndEvent(context.Background(), userID, eventID)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, got.ID)
	assert.Equal(t, models.ClaimStatusApproved, got.Status)
	require.Len(t, got.Rewards, 1)
	assert.Equal(t, claim.Rewards[0].RewardID, got.Rewards[0].RewardID)
	assert.JSONEq(t, `{"amount":100,"currency":"gold"}`, string(got.Rewards[0].Value))
	assert.Equal(t, models.VerifierKindSystem, got.VerifiedBy.Kind)
}

func TestUpdateTerminalGuardsExpectedStatus(t *testing.T) {
	s := newTestStore(t)
	userID, eventID := uuid.NewString(), uuid.NewString()

	claim := rejectedClaim(userID, eventID)
	require.NoError(t, s.Insert(context.Background(), claim))

	verifiedAt := time.Now().UTC()
	claim.Status = models.ClaimStatusApproved
	claim.Rewards = models.IssuedRewards{{
		RewardID: uuid.NewString(),
		Type:     models.RewardTypeCoupon,
		Value:    models.JSON(`{"code":"WELCOME20","discountRate":20}`),
		IssuedAt: verifiedAt,
	}}
	claim.VerifiedAt = &verifiedAt
	claim.VerifiedBy = models.Verifier{Kind: models.VerifierKindSystem}
	claim.Comment = ""

	require.NoError(t, s.UpdateTerminal(context.Background(), claim, models.ClaimStatusRejected))

	got, err := s.FindByUserAndEvent(context.Background(), userID, eventID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusApproved, got.Status)
	require.Len(t, got.Rewards, 1)
	assert.Empty(t, got.Comment)

	// A second transition expecting REJECTED loses: the record moved on.
	err = s.UpdateTerminal(context.Background(), claim, models.ClaimStatusRejected)
	assert.ErrorIs(t, err, ErrStaleClaim)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.NewString()
	eventID := uuid.NewString()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		c := rejectedClaim(userID, uuid.NewString())
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Insert(ctx, c))
	}
	approved := rejectedClaim(userID, eventID)
	approved.Status = models.ClaimStatusApproved
	approved.CreatedAt = base.Add(time.Hour)
	require.NoError(t, s.Insert(ctx, approved))
	require.NoError(t, s.Insert(ctx, rejectedClaim(uuid.NewString(), eventID)))

	claims, total, err := s.List(ctx, ListQuery{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, claims, 4)
	assert.Equal(t, approved.ID, claims[0].ID, "newest first")

	claims, total, err = s.List(ctx, ListQuery{UserID: userID, Status: models.ClaimStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, claims, 1)
	assert.Equal(t, approved.ID, claims[0].ID)

	claims, total, err = s.List(ctx, ListQuery{EventID: eventID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	claims, total, err = s.List(ctx, ListQuery{UserID: userID, Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, claims, 1)
}

func TestDeleteStalePendingLeavesTerminalAndFreshRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := rejectedClaim(uuid.NewString(), uuid.NewString())
	stale.Status = models.ClaimStatusPending
	stale.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Insert(ctx, stale))

	fresh := rejectedClaim(uuid.NewString(), uuid.NewString())
	fresh.Status = models.ClaimStatusPending
	require.NoError(t, s.Insert(ctx, fresh))

	terminal := rejectedClaim(uuid.NewString(), uuid.NewString())
	terminal.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Insert(ctx, terminal))

	removed, err := s.DeleteStalePending(ctx, time.Now().Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = s.FindByUserAndEvent(ctx, stale.UserID, stale.EventID)
	assert.ErrorIs(t, err, ErrClaimNotFound)
	_, err = s.FindByUserAndEvent(ctx, fresh.UserID, fresh.EventID)
	assert.NoError(t, err)
	_, err = s.FindByUserAndEvent(ctx, terminal.UserID, terminal.EventID)
	assert.NoError(t, err)
}

func TestListTerminalUpdatedSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := rejectedClaim(uuid.NewString(), uuid.NewString())
	old.UpdatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, s.Insert(ctx, old))

	pending := rejectedClaim(uuid.NewString(), uuid.NewString())
	pending.Status = models.ClaimStatusPending
	require.NoError(t, s.Insert(ctx, pending))

	recent := rejectedClaim(uuid.NewString(), uuid.NewString())
	recent.Status = models.ClaimStatusApproved
	require.NoError(t, s.Insert(ctx, recent))

	claims, err := s.ListTerminalUpdatedSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	for _, c := range claims {
		assert.True(t, c.Terminal())
		assert.NotEqual(t, pending.ID, c.ID)
	}
	require.NotEmpty(t, claims)
	assert.Equal(t, recent.ID, claims[len(claims)-1].ID)
}
