package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventType selects which eligibility check applies to an event.
// Only LOGIN has an automatic verifier today; the remaining types exist so
// operators can author them ahead of verifier support.
type EventType string

const (
	EventTypeLogin           EventType = "LOGIN"
	EventTypeLevelUp         EventType = "LEVEL_UP"
	EventTypeMissionComplete EventType = "MISSION_COMPLETE"
	EventTypeItemCollect     EventType = "ITEM_COLLECT"
	EventTypeFriendInvite    EventType = "FRIEND_INVITE"
)

// EventStatus indicates the operational state of an event. Transitions are
// driven by the administrative subsystem; the claim engine only reads them.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusActive    EventStatus = "ACTIVE"
	EventStatusEnded     EventStatus = "ENDED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// EventCondition is one rule a user must satisfy to receive the event's rewards.
type EventCondition struct {
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

// EventConditions is stored as a single jsonb column to keep the ordered list
// atomic with the rest of the event row.
type EventConditions []EventCondition

func (c EventConditions) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (c *EventConditions) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = EventConditions{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported type %T for conditions column", src)
	}
}

// Event represents a campaign event owned by the administrative subsystem.
// Invariant: StartDate < EndDate.
type Event struct {
	ID          string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Type        EventType       `gorm:"not null" json:"type"`
	StartDate   time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate     time.Time       `gorm:"not null;index" json:"end_date"`
	Conditions  EventConditions `gorm:"type:jsonb" json:"conditions"`
	Status      EventStatus     `gorm:"not null;index" json:"status"`
	CreatedBy   string          `gorm:"type:uuid;not null;index" json:"created_by"`
	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// InWindow reports whether t falls inside the event's participation window.
func (e *Event) InWindow(t time.Time) bool {
	return !t.Before(e.StartDate) && !t.After(e.EndDate)
}
