package auctionhouse

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

func cacheListing(itemID int64) *models.Listing {
	return &models.Listing{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		SellerName: "steve",
		ItemID:     itemID,
		Price:      decimal.NewFromInt(100),
		ExpiryTime: time.Now().Add(time.Hour),
		Item:       &models.ItemBlob{ID: itemID, Kind: "dirt"},
	}
}

func TestCachePutAlsoCachesItem(t *testing.T) {
	cache := newHouseCache()
	listing := cacheListing(7)

	cache.putListing(listing)

	if got, ok := cache.listing(listing.ID); !ok || got != listing {
		t.Fatal("expected listing cached")
	}
	if item, ok := cache.item(7); !ok || item != listing.Item {
		t.Fatal("expected item cached alongside listing")
	}
}

func TestCacheEvictListingDropsItem(t *testing.T) {
	cache := newHouseCache()
	listing := cacheListing(7)
	cache.putListing(listing)

	cache.evictListing(listing.ID)

	if _, ok := cache.listing(listing.ID); ok {
		t.Fatal("expected listing evicted")
	}
	if _, ok := cache.item(7); ok {
		t.Fatal("expected item evicted with listing")
	}
}

func TestCacheWarmLoadsAllRows(t *testing.T) {
	cache := newHouseCache()
	rows := []models.Listing{*cacheListing(1), *cacheListing(2)}

	cache.warm(rows)

	if cache.len() != 2 {
		t.Fatalf("expected 2 cached listings, got %d", cache.len())
	}
	for i := range rows {
		if _, ok := cache.listing(rows[i].ID); !ok {
			t.Fatalf("expected row %d cached", i)
		}
	}
}
