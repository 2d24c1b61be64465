package listings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// GroupRow aggregates live listings sharing an item kind and meta.
type GroupRow struct {
	Kind  string `json:"kind"`
	Meta  int    `json:"meta"`
	Count int64  `json:"count"`
}

// Repository manages persistence for live listings and their bid rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, listing *models.Listing) error
	Get(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Remove(ctx context.Context, id uuid.UUID) error
	UpdateBid(ctx context.Context, listingID uuid.UUID, bid *models.BidRecord) error

	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int) ([]models.Listing, error)
	CountGroup(ctx context.Context, kind string, meta int) (int64, error)
	ListGroup(ctx context.Context, kind string, meta int, offset, limit int) ([]models.Listing, error)
	CountGroups(ctx context.Context) (int64, error)
	ListGroups(ctx context.Context, offset, limit int) ([]GroupRow, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error)

	Expiring(ctx context.Context, cutoff time.Time) ([]models.Listing, error)
	UnsettledBids(ctx context.Context, now time.Time) ([]models.Listing, error)
	NextExpiry(ctx context.Context, after time.Time) (*time.Time, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a listing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Add persists the listing together with its bid row when present.
func (r *repository) Add(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Preload("Item").
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

// Remove deletes the listing; the bid row follows via cascade.
func (r *repository) Remove(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", id).
		Delete(&models.BidRecord{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Listing{}, "id = ?", id).Error
}

// UpdateBid overwrites the bid row and lifts the listing price to the offer,
// so browse pages always show the amount the next bid must beat.
func (r *repository) UpdateBid(ctx context.Context, listingID uuid.UUID, bid *models.BidRecord) error {
	if err := r.db.WithContext(ctx).
		Model(&models.BidRecord{}).
		Where("listing_id = ?", listingID).
		Updates(map[string]any{
			"bidder_id":   bid.BidderID,
			"bidder_name": bid.BidderName,
			"offer":       bid.Offer,
			"placed_at":   bid.PlacedAt,
		}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Update("price", bid.Offer).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Listing{}).Count(&count).Error
	return count, err
}

// List returns live listings, soonest expiry first.
func (r *repository) List(ctx context.Context, offset, limit int) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Preload("Item").
		Order("expiry_time ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountGroup(ctx context.Context, kind string, meta int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Joins("JOIN item_blobs ON item_blobs.id = listings.item_id").
		Where("item_blobs.kind = ? AND item_blobs.meta = ?", kind, meta).
		Count(&count).Error
	return count, err
}

func (r *repository) ListGroup(ctx context.Context, kind string, meta int, offset, limit int) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Preload("Item").
		Joins("JOIN item_blobs ON item_blobs.id = listings.item_id").
		Where("item_blobs.kind = ? AND item_blobs.meta = ?", kind, meta).
		Order("listings.price ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountGroups(ctx context.Context) (int64, error) {
	grouped := r.db.
		Model(&models.Listing{}).
		Select("item_blobs.kind, item_blobs.meta").
		Joins("JOIN item_blobs ON item_blobs.id = listings.item_id").
		Group("item_blobs.kind, item_blobs.meta")

	var count int64
	err := r.db.WithContext(ctx).
		Table("(?) AS groups", grouped).
		Count(&count).Error
	return count, err
}

func (r *repository) ListGroups(ctx context.Context, offset, limit int) ([]GroupRow, error) {
	var rows []GroupRow
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Select("item_blobs.kind AS kind, item_blobs.meta AS meta, COUNT(*) AS count").
		Joins("JOIN item_blobs ON item_blobs.id = listings.item_id").
		Group("item_blobs.kind, item_blobs.meta").
		Order("count DESC, kind ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Preload("Item").
		Where("seller_id = ?", sellerID).
		Order("expiry_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Expiring returns listings whose expiry falls at or before cutoff, soonest
// first. Callers pass now plus the sweep horizon.
func (r *repository) Expiring(ctx context.Context, cutoff time.Time) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Preload("Item").
		Where("expiry_time <= ?", cutoff).
		Order("expiry_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UnsettledBids returns expired listings that still hold a winning bid
// awaiting settlement.
func (r *repository) UnsettledBids(ctx context.Context, now time.Time) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Bid").
		Preload("Item").
		Joins("JOIN bid_records ON bid_records.listing_id = listings.id").
		Where("listings.expiry_time <= ? AND bid_records.bidder_id IS NOT NULL", now).
		Order("listings.expiry_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// NextExpiry returns the soonest expiry strictly after the given time, or nil
// when no live listing expires later.
func (r *repository) NextExpiry(ctx context.Context, after time.Time) (*time.Time, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("expiry_time > ?", after).
		Order("expiry_time ASC").
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing.ExpiryTime, nil
}
