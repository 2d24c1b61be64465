package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is an active marketplace entry. A row exists only while the listing
// is live; sold, withdrawn, and settled listings are removed and survive as
// SaleRecord rows.
type Listing struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	SellerName  string          `gorm:"column:seller_name;not null"`
	ItemID      int64           `gorm:"column:item_id;not null;uniqueIndex"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(20,2);not null"`
	ListingTime time.Time       `gorm:"column:listing_time;not null"`
	ExpiryTime  time.Time       `gorm:"column:expiry_time;not null;index"`
	Bid         *BidRecord      `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	Item        *ItemBlob       `gorm:"foreignKey:ItemID;references:ID"`
}

// IsAuction reports whether the listing accepts bids instead of direct buys.
func (l *Listing) IsAuction() bool {
	return l.Bid != nil
}

// Expired reports whether the listing has passed its expiry at the given time.
func (l *Listing) Expired(now time.Time) bool {
	return !l.ExpiryTime.After(now)
}
