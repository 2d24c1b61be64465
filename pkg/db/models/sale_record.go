package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/pkg/enums"
)

// SaleRecord is the immutable transaction log row written when a listing is
// bought or an auction settles. Kind and Meta snapshot the item because the
// blob row moves on with the buyer.
type SaleRecord struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ListingID  uuid.UUID       `gorm:"column:listing_id;type:uuid;not null"`
	SellerID   uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	SellerName string          `gorm:"column:seller_name;not null"`
	BuyerID    uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;index"`
	BuyerName  string          `gorm:"column:buyer_name;not null"`
	Kind       string          `gorm:"column:kind;not null"`
	Meta       int             `gorm:"column:meta;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(20,2);not null"`
	SaleType   enums.SaleType  `gorm:"column:sale_type;type:sale_type_enum;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime;index"`
}
