package services

import (
	"context"
	"errors"
	"log"
	"time"

	"event-reward-system/models"
	"event-reward-system/store"

	"github.com/google/uuid"
)

// ClaimService drives the reward claim state machine. Concurrency correctness
// relies on the store's unique (user, event) index plus guarded updates; the
// service itself takes no locks.
type ClaimService struct {
	catalog  EventCatalog
	claims   store.ClaimStore
	verifier ConditionVerifier
	logger   *log.Logger
	now      func() time.Time
}

func NewClaimService(catalog EventCatalog, claims store.ClaimStore, verifier ConditionVerifier, logger *log.Logger) *ClaimService {
	return &ClaimService{
		catalog:  catalog,
		claims:   claims,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SubmitClaim processes one claim submission for (eventID, userID) and returns
// the persisted claim's public representation. Exactly one durable state
// transition happens per call that reaches persistence; any earlier abort
// leaves zero side effects. An authority outage never creates or rejects a
// claim.
func (s *ClaimService) SubmitClaim(ctx context.Context, eventID, userID string, user models.UserIdentity) (*models.ClaimResponse, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, claimErr(KindInvalidArgument, "invalid event ID")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, claimErr(KindInvalidArgument, "invalid user ID")
	}

	event, err := s.catalog.FindEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, claimErr(KindNotFound, "event not found")
		}
		return nil, s.internal("failed to load event", err)
	}

	if event.Status != models.EventStatusActive {
		return nil, claimErr(KindInvalidState, "event is not active")
	}
	if !event.InWindow(s.now()) {
		return nil, claimErr(KindInvalidState, "event is not in progress")
	}

	// Stage the claim in memory; nothing is persisted until the verdict is known.
	claim := &models.RewardClaim{
		ID:      uuid.NewString(),
		UserID:  userID,
		EventID: eventID,
		Status:  models.ClaimStatusPending,
	}
	var reuseFrom models.ClaimStatus

	existing, err := s.claims.FindByUserAndEvent(ctx, userID, eventID)
	switch {
	case err == nil:
		switch existing.Status {
		case models.ClaimStatusApproved:
			return nil, claimErr(KindAlreadyApproved, "reward already approved for this event")
		case models.ClaimStatusPending:
			return nil, claimErr(KindInProgress, "a claim for this event is already being processed")
		default:
			// A previously rejected user may have satisfied the condition since;
			// re-evaluate the same record.
			claim = existing
			reuseFrom = models.ClaimStatusRejected
		}
	case errors.Is(err, store.ErrClaimNotFound):
	default:
		return nil, s.internal("failed to load existing claim", err)
	}

	met, err := s.verifier.Verify(ctx, event, user)
	if err != nil {
		if errors.Is(err, ErrAuthorityUnavailable) {
			return nil, wrapClaimErr(KindVerificationUnavailable,
				"condition verification is temporarily unavailable", err)
		}
		// Unclassified verifier failures never turn into a silent rejection.
		return nil, s.internal("condition verification failed", err)
	}
	if ctx.Err() != nil {
		// No writes after cancellation.
		return nil, s.internal("submission cancelled", ctx.Err())
	}

	verifiedAt := s.now()
	claim.VerifiedAt = &verifiedAt
	claim.VerifiedBy = models.Verifier{Kind: models.VerifierKindSystem}

	if met {
		rewards, err := s.catalog.ListEventRewards(ctx, eventID)
		if err != nil {
			return nil, s.internal("failed to load event rewards", err)
		}
		issued := make(models.IssuedRewards, 0, len(rewards))
		for _, r := range rewards {
			issued = append(issued, models.IssuedReward{
				RewardID: r.ID,
				Type:     r.Type,
				Value:    r.Value,
				IssuedAt: verifiedAt,
			})
		}
		claim.Status = models.ClaimStatusApproved
		claim.Rewards = issued
		claim.Comment = ""
	} else {
		claim.Status = models.ClaimStatusRejected
		claim.Rewards = models.IssuedRewards{}
		claim.Comment = "condition not met"
	}

	if reuseFrom != "" {
		err = s.claims.UpdateTerminal(ctx, claim, reuseFrom)
	} else {
		err = s.claims.Insert(ctx, claim)
	}
	if err != nil {
		if errors.Is(err, store.ErrDuplicateClaim) || errors.Is(err, store.ErrStaleClaim) {
			return nil, s.conflictFromWinner(ctx, userID, eventID)
		}
		return nil, s.internal("failed to persist claim", err)
	}

	s.logger.Printf("[CLAIM] user %s event %s resolved %s", userID, eventID, claim.Status)
	return models.NewClaimResponse(claim), nil
}

// conflictFromWinner maps a lost persistence race onto the state of the record
// that won it, never onto an internal error.
func (s *ClaimService) conflictFromWinner(ctx context.Context, userID, eventID string) error {
	winner, err := s.claims.FindByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return s.internal("failed to load conflicting claim", err)
	}
	if winner.Status == models.ClaimStatusApproved {
		return claimErr(KindAlreadyApproved, "reward already approved for this event")
	}
	return claimErr(KindInProgress, "a claim for this event is already being processed")
}

// ClaimListResult is one page of claims.
type ClaimListResult struct {
	Data  []models.ClaimResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// ListUserClaims returns the caller's own claims.
func (s *ClaimService) ListUserClaims(ctx context.Context, userID string, q store.ListQuery) (*ClaimListResult, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, claimErr(KindInvalidArgument, "invalid user ID")
	}
	q.UserID = userID
	return s.listClaims(ctx, q)
}

// ListEventClaims is the operator view across all users.
func (s *ClaimService) ListEventClaims(ctx context.Context, q store.ListQuery) (*ClaimListResult, error) {
	return s.listClaims(ctx, q)
}

func (s *ClaimService) listClaims(ctx context.Context, q store.ListQuery) (*ClaimListResult, error) {
	if q.EventID != "" {
		if _, err := uuid.Parse(q.EventID); err != nil {
			return nil, claimErr(KindInvalidArgument, "invalid event ID")
		}
	}
	switch q.Status {
	case "", models.ClaimStatusPending, models.ClaimStatusApproved, models.ClaimStatusRejected:
	default:
		return nil, claimErr(KindInvalidArgument, "invalid claim status filter")
	}

	q = q.Normalize()
	claims, total, err := s.claims.List(ctx, q)
	if err != nil {
		return nil, s.internal("failed to list claims", err)
	}

	data := make([]models.ClaimResponse, 0, len(claims))
	for i := range claims {
		data = append(data, *models.NewClaimResponse(&claims[i]))
	}
	return &ClaimListResult{Data: data, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *ClaimService) internal(message string, err error) *ClaimError {
	s.logger.Printf("[CLAIM] %s: %v", message, err)
	return wrapClaimErr(KindInternal, "reward claim processing failed", err)
}
