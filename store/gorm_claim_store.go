package store

import (
	"context"
	"errors"
	"time"

	"event-reward-system/models"

	"gorm.io/gorm"
)

// GormClaimStore is the relational ClaimStore. Uniqueness comes from the
// composite index declared on models.RewardClaim; the *gorm.DB must be opened
// with TranslateError so violations surface as gorm.ErrDuplicatedKey.
type GormClaimStore struct {
	db *gorm.DB
}

func NewGormClaimStore(db *gorm.DB) *GormClaimStore {
	return &GormClaimStore{db: db}
}

func (s *GormClaimStore) FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.RewardClaim, error) {
	var claim models.RewardClaim
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (s *GormClaimStore) Insert(ctx context.Context, claim *models.RewardClaim) error {
	if err := s.db.WithContext(ctx).Create(claim).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateClaim
		}
		return err
	}
	return nil
}

func (s *GormClaimStore) UpdateTerminal(ctx context.Context, claim *models.RewardClaim, expected models.ClaimStatus) error {
	// Single guarded UPDATE: status, snapshot and verification fields land
	// together or not at all.
	res := s.db.WithContext(ctx).
		Model(&models.RewardClaim{}).
		Where("id = ? AND status = ?", claim.ID, expected).
		Updates(map[string]interface{}{
			"status":                  claim.Status,
			"rewards":                 claim.Rewards,
			"verified_at":             claim.VerifiedAt,
			"verified_by_kind":        claim.VerifiedBy.Kind,
			"verified_by_operator_id": claim.VerifiedBy.OperatorID,
			"comment":                 claim.Comment,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleClaim
	}
	return nil
}

func (s *GormClaimStore) List(ctx context.Context, q ListQuery) ([]models.RewardClaim, int64, error) {
	q = q.Normalize()

	query := s.db.WithContext(ctx).Model(&models.RewardClaim{})
	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.EventID != "" {
		query = query.Where("event_id = ?", q.EventID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var claims []models.RewardClaim
	if err := query.
		Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

func (s *GormClaimStore) DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.ClaimStatusPending, olderThan).
		Delete(&models.RewardClaim{})
	return res.RowsAffected, res.Error
}

func (s *GormClaimStore) ListTerminalUpdatedSince(ctx context.Context, since time.Time) ([]models.RewardClaim, error) {
	var claims []models.RewardClaim
	err := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at > ?",
			[]models.ClaimStatus{models.ClaimStatusApproved, models.ClaimStatusRejected}, since).
		Order("updated_at ASC").
		Find(&claims).Error
	return claims, err
}
