package models

// RewardType indicates what kind of value a reward carries
type RewardType string

const (
	RewardTypePoint  RewardType = "POINT"
	RewardTypeItem   RewardType = "ITEM"
	RewardTypeCoupon RewardType = "COUPON"
)

// Reward represents a reward attached to an event. All rewards of an event are
// issued together when a claim is approved. The Value payload depends on Type:
// POINT {amount, currency}, ITEM {itemId, rarity}, COUPON {code, discountRate}.
type Reward struct {
	ID          string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	EventID     string     `gorm:"type:uuid;not null;index" json:"event_id"`
	Name        string     `gorm:"not null" json:"name"`
	Type        RewardType `gorm:"not null;index" json:"type"`
	Value       JSON       `gorm:"type:jsonb;not null" json:"value"`
	Quantity    int        `gorm:"not null" json:"quantity"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedBy   string     `gorm:"type:uuid;not null;index" json:"created_by"`
	Timestamps
}
