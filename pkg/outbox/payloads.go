package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingEventData is the data section for listing lifecycle events.
type ListingEventData struct {
	ListingID  uuid.UUID       `json:"listingId"`
	SellerID   uuid.UUID       `json:"sellerId"`
	SellerName string          `json:"sellerName"`
	Kind       string          `json:"kind"`
	Meta       int             `json:"meta"`
	Price      decimal.Decimal `json:"price"`
	Auction    bool            `json:"auction"`
	ExpiryTime time.Time       `json:"expiryTime"`
}

// SaleEventData is the data section for listing_sold and bid_won events.
type SaleEventData struct {
	ListingID uuid.UUID       `json:"listingId"`
	SellerID  uuid.UUID       `json:"sellerId"`
	BuyerID   uuid.UUID       `json:"buyerId"`
	BuyerName string          `json:"buyerName"`
	Price     decimal.Decimal `json:"price"`
}

// BidEventData is the data section for bid_placed and bid_outbid events.
type BidEventData struct {
	ListingID  uuid.UUID       `json:"listingId"`
	BidderID   uuid.UUID       `json:"bidderId"`
	BidderName string          `json:"bidderName"`
	Offer      decimal.Decimal `json:"offer"`
	Previous   *uuid.UUID      `json:"previousBidderId,omitempty"`
}

// BinEventData is the data section for bin_item_claimed events.
type BinEventData struct {
	PlayerID uuid.UUID `json:"playerId"`
	ItemID   int64     `json:"itemId"`
}
