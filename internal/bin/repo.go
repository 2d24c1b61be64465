package bin

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db"
	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// Repository manages persistence for collection bin entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, entry *models.BinEntry) error
	Get(ctx context.Context, itemID int64) (*models.BinEntry, error)
	Remove(ctx context.Context, itemID int64) error
	ListForPlayer(ctx context.Context, playerID uuid.UUID) ([]models.BinEntry, error)
	CountForPlayer(ctx context.Context, playerID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a bin repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Add inserts the entry. A duplicate item_id means the item is already
// binned; restores retried after a failed delivery treat that as done.
func (r *repository) Add(ctx context.Context, entry *models.BinEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if db.IsUniqueViolation(err, "bin_entries") {
		return nil
	}
	return err
}

func (r *repository) Get(ctx context.Context, itemID int64) (*models.BinEntry, error) {
	var entry models.BinEntry
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Remove(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.BinEntry{}).Error
}

// ListForPlayer returns the player's binned items with blobs preloaded,
// oldest placements first.
func (r *repository) ListForPlayer(ctx context.Context, playerID uuid.UUID) ([]models.BinEntry, error) {
	var entries []models.BinEntry
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("player_id = ?", playerID).
		Order("placement_time ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CountForPlayer(ctx context.Context, playerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BinEntry{}).
		Where("player_id = ?", playerID).
		Count(&count).Error
	return count, err
}
