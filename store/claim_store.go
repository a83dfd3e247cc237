package store

import (
	"context"
	"errors"
	"time"

	"event-reward-system/models"
)

var (
	// ErrClaimNotFound means no claim exists for the queried key.
	ErrClaimNotFound = errors.New("claim not found")
	// ErrDuplicateClaim is returned by Insert when the storage engine's unique
	// (user_id, event_id) index rejected the row, i.e. a concurrent submission won.
	ErrDuplicateClaim = errors.New("claim already exists for this user and event")
	// ErrStaleClaim is returned by UpdateTerminal when the record no longer holds
	// the expected status, meaning a concurrent submission got there first.
	ErrStaleClaim = errors.New("claim was modified by a concurrent submission")
)

// ListQuery filters and paginates claim listings.
type ListQuery struct {
	UserID  string
	EventID string
	Status  models.ClaimStatus
	Page    int
	Limit   int
}

// Normalize clamps pagination to sane bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}

// Offset returns the row offset for the normalized query.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ClaimStore is the persistence boundary for reward claims. Implementations
// must enforce uniqueness of (user_id, event_id) in the storage engine itself
// and write status plus reward snapshot atomically.
type ClaimStore interface {
	// FindByUserAndEvent returns the claim for the pair or ErrClaimNotFound.
	FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.RewardClaim, error)
	// Insert stores a new claim, returning ErrDuplicateClaim when the unique
	// index rejects it.
	Insert(ctx context.Context, claim *models.RewardClaim) error
	// UpdateTerminal writes the claim's terminal fields guarded on the record
	// still holding the expected status; ErrStaleClaim when it no longer does.
	UpdateTerminal(ctx context.Context, claim *models.RewardClaim, expected models.ClaimStatus) error
	// List returns a page of claims matching the query, newest first, plus the
	// total match count.
	List(ctx context.Context, q ListQuery) ([]models.RewardClaim, int64, error)
	// DeleteStalePending removes PENDING claims created before the cutoff and
	// reports how many were removed.
	DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error)
	// ListTerminalUpdatedSince returns APPROVED/REJECTED claims whose last
	// update is after the watermark, oldest first.
	ListTerminalUpdatedSince(ctx context.Context, since time.Time) ([]models.RewardClaim, error)
}
