package auctionhouse

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// ListingView is the read model handed to callers. Item payloads are only
// included where the caller needs to render the item itself.
type ListingView struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"sellerId"`
	SellerName  string          `json:"sellerName"`
	ItemID      int64           `json:"itemId"`
	Kind        string          `json:"kind"`
	Meta        int             `json:"meta"`
	Payload     []byte          `json:"payload,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Auction     bool            `json:"auction"`
	BidderID    *uuid.UUID      `json:"bidderId,omitempty"`
	BidderName  *string         `json:"bidderName,omitempty"`
	ListingTime time.Time       `json:"listingTime"`
	ExpiryTime  time.Time       `json:"expiryTime"`
}

// ListingPage is one page of listings plus paging metadata.
type ListingPage struct {
	Listings []ListingView `json:"listings"`
	Page     int           `json:"page"`
	LastPage int           `json:"lastPage"`
	Total    int64         `json:"total"`
}

// GroupView summarizes listings sharing the same item kind and meta.
type GroupView struct {
	Kind  string `json:"kind"`
	Meta  int    `json:"meta"`
	Count int64  `json:"count"`
}

// GroupPage is one page of listing groups plus paging metadata.
type GroupPage struct {
	Groups   []GroupView `json:"groups"`
	Page     int         `json:"page"`
	LastPage int         `json:"lastPage"`
	Total    int64       `json:"total"`
}

// SaleView is the read model for a completed sale.
type SaleView struct {
	ID         uuid.UUID       `json:"id"`
	ListingID  uuid.UUID       `json:"listingId"`
	SellerID   uuid.UUID       `json:"sellerId"`
	SellerName string          `json:"sellerName"`
	BuyerID    uuid.UUID       `json:"buyerId"`
	BuyerName  string          `json:"buyerName"`
	Kind       string          `json:"kind"`
	Meta       int             `json:"meta"`
	Price      decimal.Decimal `json:"price"`
	SaleType   string          `json:"saleType"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// SalePage is one page of sale records plus paging metadata.
type SalePage struct {
	Sales    []SaleView `json:"sales"`
	Page     int        `json:"page"`
	LastPage int        `json:"lastPage"`
	Total    int64      `json:"total"`
}

// BinView is the read model for a collection bin entry.
type BinView struct {
	ItemID        int64     `json:"itemId"`
	Kind          string    `json:"kind"`
	Meta          int       `json:"meta"`
	Payload       []byte    `json:"payload,omitempty"`
	PlacementTime time.Time `json:"placementTime"`
}

// PlayerView combines identity and marketplace usage for a player.
type PlayerView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Listings int64     `json:"listings"`
	Binned   int64     `json:"binned"`
}

func listingView(listing *models.Listing) ListingView {
	view := ListingView{
		ID:          listing.ID,
		SellerID:    listing.SellerID,
		SellerName:  listing.SellerName,
		ItemID:      listing.ItemID,
		Price:       listing.Price,
		Auction:     listing.IsAuction(),
		ListingTime: listing.ListingTime,
		ExpiryTime:  listing.ExpiryTime,
	}
	if listing.Item != nil {
		view.Kind = listing.Item.Kind
		view.Meta = listing.Item.Meta
		view.Payload = listing.Item.Payload
	}
	if listing.IsAuction() && listing.Bid.HasBidder() {
		view.BidderID = listing.Bid.BidderID
		view.BidderName = listing.Bid.BidderName
	}
	return view
}

func listingViews(rows []models.Listing) []ListingView {
	views := make([]ListingView, 0, len(rows))
	for i := range rows {
		views = append(views, listingView(&rows[i]))
	}
	return views
}

func saleView(record *models.SaleRecord) SaleView {
	return SaleView{
		ID:         record.ID,
		ListingID:  record.ListingID,
		SellerID:   record.SellerID,
		SellerName: record.SellerName,
		BuyerID:    record.BuyerID,
		BuyerName:  record.BuyerName,
		Kind:       record.Kind,
		Meta:       record.Meta,
		Price:      record.Price,
		SaleType:   string(record.SaleType),
		CreatedAt:  record.CreatedAt,
	}
}

func saleViews(rows []models.SaleRecord) []SaleView {
	views := make([]SaleView, 0, len(rows))
	for i := range rows {
		views = append(views, saleView(&rows[i]))
	}
	return views
}
