package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClaimStatus is the state of a reward claim. APPROVED and REJECTED are
// terminal; no automatic transition leaves them.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// VerifierKind distinguishes automatic system verification from manual review
// by an operator.
type VerifierKind string

const (
	VerifierKindSystem   VerifierKind = "SYSTEM"
	VerifierKindOperator VerifierKind = "OPERATOR"
)

// Verifier records who resolved a claim. OperatorID is set only for
// OPERATOR-kind verification.
type Verifier struct {
	Kind       VerifierKind `json:"kind,omitempty" bson:"kind,omitempty"`
	OperatorID string       `json:"operator_id,omitempty" bson:"operator_id,omitempty"`
}

// IssuedReward is a snapshot of a reward at the moment a claim was approved.
// Later edits to the reward do not change snapshots already issued.
type IssuedReward struct {
	RewardID string     `json:"reward_id" bson:"reward_id"`
	Type     RewardType `json:"type" bson:"type"`
	Value    JSON       `json:"value" bson:"value"`
	IssuedAt time.Time  `json:"issued_at" bson:"issued_at"`
}

// IssuedRewards is stored as one jsonb column so the snapshot is written
// atomically with the status field.
type IssuedRewards []IssuedReward

func (r IssuedRewards) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *IssuedRewards) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = IssuedRewards{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported type %T for rewards column", src)
	}
}

// RewardClaim is a user's request to receive an event's rewards plus its
// resolved outcome. The claim engine is the only writer. At most one claim
// exists per (user, event) pair, enforced by a unique composite index in the
// storage engine rather than application checks.
type RewardClaim struct {
	ID         string        `gorm:"primaryKey;type:uuid" json:"id" bson:"_id"`
	UserID     string        `gorm:"type:uuid;not null;uniqueIndex:idx_claims_user_event" json:"user_id" bson:"user_id"`
	EventID    string        `gorm:"type:uuid;not null;uniqueIndex:idx_claims_user_event;index" json:"event_id" bson:"event_id"`
	Status     ClaimStatus   `gorm:"not null;index;default:'PENDING'" json:"status" bson:"status"`
	Evidence   JSON          `gorm:"type:jsonb" json:"evidence,omitempty" bson:"evidence,omitempty"`
	Rewards    IssuedRewards `gorm:"type:jsonb" json:"rewards" bson:"rewards"`
	VerifiedAt *time.Time    `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	VerifiedBy Verifier      `gorm:"embedded;embeddedPrefix:verified_by_" json:"verified_by,omitempty" bson:"verified_by,omitempty"`
	Comment    string        `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updated_at" bson:"updated_at"`
}

// Terminal reports whether the claim reached a final outcome.
func (c *RewardClaim) Terminal() bool {
	return c.Status == ClaimStatusApproved || c.Status == ClaimStatusRejected
}

// ClaimResponse is the public representation returned to callers.
type ClaimResponse struct {
	ID        string        `json:"id"`
	EventID   string        `json:"event_id"`
	UserID    string        `json:"user_id"`
	Status    ClaimStatus   `json:"status"`
	Rewards   IssuedRewards `json:"rewards"`
	CreatedAt time.Time     `json:"created_at"`
	Comment   string        `json:"comment,omitempty"`
}

// NewClaimResponse maps a persisted claim to its public representation.
func NewClaimResponse(c *RewardClaim) *ClaimResponse {
	rewards := c.Rewards
	if rewards == nil {
		rewards = IssuedRewards{}
	}
	return &ClaimResponse{
		ID:        c.ID,
		EventID:   c.EventID,
		UserID:    c.UserID,
		Status:    c.Status,
		Rewards:   rewards,
		CreatedAt: c.CreatedAt,
		Comment:   c.Comment,
	}
}
