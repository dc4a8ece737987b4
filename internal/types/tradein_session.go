package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	StatusDraft           SessionStatus = "draft"
	StatusPriced          SessionStatus = "priced"
	StatusPickupScheduled SessionStatus = "pickup_scheduled"
	StatusOrdered         SessionStatus = "ordered"
	StatusExpired         SessionStatus = "expired"
	StatusCancelled       SessionStatus = "cancelled"
)

// TradeInSession is the durable record correlating a user, a product variant,
// an assessment and its quote. Assessment and Quote are stored as JSON
// documents; the session service recomputes Quote on every assessment
// mutation, so the columns never drift apart.
//
// IDs are assigned in Go (uuid.New) rather than by a database default so the
// same model works on the sqlite test driver.
type TradeInSession struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Category       string         `gorm:"column:category;not null" json:"category"`
	ProductID      string         `gorm:"column:product_id;not null;index" json:"product_id"`
	VariantID      string         `gorm:"column:variant_id;not null" json:"variant_id"`
	Assessment     datatypes.JSON `gorm:"column:assessment;type:jsonb" json:"assessment"`
	Quote          datatypes.JSON `gorm:"column:quote;type:jsonb" json:"quote"`
	Status         SessionStatus  `gorm:"column:status;not null;index" json:"status"`
	ExtensionCount int            `gorm:"column:extension_count;not null;default:0" json:"extension_count"`
	ExpiresAt      time.Time      `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TradeInSession) TableName() string {
	return "trade_in_session"
}

// ExpiredAt reports whether the session's TTL has lapsed at the given time.
// Terminal sessions never expire; they already left the lifecycle.
func (s *TradeInSession) ExpiredAt(now time.Time) bool {
	if s.Terminal() {
		return false
	}
	return now.After(s.ExpiresAt)
}

func (s *TradeInSession) Terminal() bool {
	switch s.Status {
	case StatusOrdered, StatusExpired, StatusCancelled:
		return true
	}
	return false
}
