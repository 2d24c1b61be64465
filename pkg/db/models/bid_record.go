package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidRecord tracks auction state for a listing. A row with a nil BidderID is
// an auction nobody has bid on yet; Offer then holds the starting price.
type BidRecord struct {
	ListingID  uuid.UUID       `gorm:"column:listing_id;type:uuid;primaryKey"`
	BidderID   *uuid.UUID      `gorm:"column:bidder_id;type:uuid"`
	BidderName *string         `gorm:"column:bidder_name"`
	Offer      decimal.Decimal `gorm:"column:offer;type:numeric(20,2);not null"`
	PlacedAt   *time.Time      `gorm:"column:placed_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HasBidder reports whether at least one bid has been placed.
func (b *BidRecord) HasBidder() bool {
	return b != nil && b.BidderID != nil
}
