package store

import (
	"context"
	"errors"
	"time"

	"event-reward-system/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClaimStore is the document-oriented ClaimStore, for deployments that
// keep claims in MongoDB. The unique compound index
// on (user_id, event_id) provides the same race closure the relational store
// gets from its composite index.
type MongoClaimStore struct {
	collection *mongo.Collection
}

func NewMongoClaimStore(db *mongo.Database) *MongoClaimStore {
	return &MongoClaimStore{collection: db.Collection("reward_claims")}
}

// EnsureIndexes creates the indexes the store's contract depends on. Call once
// at startup before serving traffic.
func (s *MongoClaimStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "event_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (s *MongoClaimStore) FindByUserAndEvent(ctx context.Context, userID, eventID string) (*models.RewardClaim, error) {
	var claim models.RewardClaim
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID, "event_id": eventID}).Decode(&claim)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (s *MongoClaimStore) Insert(ctx context.Context, claim *models.RewardClaim) error {
	now := time.Now().UTC()
	claim.CreatedAt = now
	claim.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, claim); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateClaim
		}
		return err
	}
	return nil
}

func (s *MongoClaimStore) UpdateTerminal(ctx context.Context, claim *models.RewardClaim, expected models.ClaimStatus) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": claim.ID, "status": expected},
		bson.M{"$set": bson.M{
			"status":      claim.Status,
			"rewards":     claim.Rewards,
			"verified_at": claim.VerifiedAt,
			"verified_by": claim.VerifiedBy,
			"comment":     claim.Comment,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleClaim
	}
	return nil
}

func (s *MongoClaimStore) List(ctx context.Context, q ListQuery) ([]models.RewardClaim, int64, error) {
	q = q.Normalize()

	filter := bson.M{}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}
	if q.EventID != "" {
		filter["event_id"] = q.EventID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var claims []models.RewardClaim
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

func (s *MongoClaimStore) DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{
		"status":     models.ClaimStatusPending,
		"created_at": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoClaimStore) ListTerminalUpdatedSince(ctx context.Context, since time.Time) ([]models.RewardClaim, error) {
	cursor, err := s.collection.Find(ctx, bson.M{
		"status":     bson.M{"$in": []models.ClaimStatus{models.ClaimStatusApproved, models.ClaimStatusRejected}},
		"updated_at": bson.M{"$gt": since},
	}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var claims []models.RewardClaim
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}
