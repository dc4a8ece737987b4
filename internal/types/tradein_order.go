package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TradeInOrder is written exactly once, by Finalize. FinalPrice is copied out
// of the session's quote at that moment and never recomputed afterwards.
// PickupDetails is an opaque payload for the pickup/order collaborators; the
// engine stores it without interpreting it.
type TradeInOrder struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	FinalPrice    decimal.Decimal `gorm:"column:final_price;type:numeric(12,2);not null" json:"final_price"`
	PickupDetails datatypes.JSON  `gorm:"column:pickup_details;type:jsonb" json:"pickup_details"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

func (TradeInOrder) TableName() string {
	return "trade_in_order"
}
