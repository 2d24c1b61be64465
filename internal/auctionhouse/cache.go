package auctionhouse

import (
	"github.com/google/uuid"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// houseCache is the read-through cache for live listings and their item
// blobs. It is only touched while the service mutex is held; because every
// mutation evicts under that same mutex, cached rows never go stale inside
// this process.
type houseCache struct {
	entries map[uuid.UUID]*models.Listing
	items   map[int64]*models.ItemBlob
}

func newHouseCache() *houseCache {
	return &houseCache{
		entries: make(map[uuid.UUID]*models.Listing),
		items:   make(map[int64]*models.ItemBlob),
	}
}

func (c *houseCache) listing(id uuid.UUID) (*models.Listing, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

func (c *houseCache) putListing(listing *models.Listing) {
	if listing == nil {
		return
	}
	c.entries[listing.ID] = listing
	if listing.Item != nil {
		c.items[listing.Item.ID] = listing.Item
	}
}

func (c *houseCache) evictListing(id uuid.UUID) {
	if entry, ok := c.entries[id]; ok {
		delete(c.items, entry.ItemID)
	}
	delete(c.entries, id)
}

func (c *houseCache) item(id int64) (*models.ItemBlob, bool) {
	item, ok := c.items[id]
	return item, ok
}

func (c *houseCache) putItem(item *models.ItemBlob) {
	if item == nil {
		return
	}
	c.items[item.ID] = item
}

func (c *houseCache) evictItem(id int64) {
	delete(c.items, id)
}

func (c *houseCache) warm(rows []models.Listing) {
	for i := range rows {
		c.putListing(&rows[i])
	}
}

func (c *houseCache) len() int {
	return len(c.entries)
}
