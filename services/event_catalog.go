package services

import (
	"context"
	"errors"

	"event-reward-system/models"

	"gorm.io/gorm"
)

// ErrEventNotFound means the event id resolves to nothing in the catalog.
var ErrEventNotFound = errors.New("event not found")

// EventCatalog is read-only access to the event/reward data owned by the
// administrative subsystem. The claim engine never writes through it.
type EventCatalog interface {
	FindEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEventRewards(ctx context.Context, eventID string) ([]models.Reward, error)
}

// GormEventCatalog reads events and rewards from the shared database.
type GormEventCatalog struct {
	db *gorm.DB
}

func NewGormEventCatalog(db *gorm.DB) *GormEventCatalog {
	return &GormEventCatalog{db: db}
}

func (c *GormEventCatalog) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (c *GormEventCatalog) ListEventRewards(ctx context.Context, eventID string) ([]models.Reward, error) {
	var rewards []models.Reward
	err := c.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&rewards).Error
	return rewards, err
}
