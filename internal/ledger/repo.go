package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// Repository manages persistence for the immutable sale log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.SaleRecord) error
	List(ctx context.Context, offset, limit int) ([]models.SaleRecord, error)
	Count(ctx context.Context) (int64, error)
	ListForPlayer(ctx context.Context, playerID uuid.UUID, offset, limit int) ([]models.SaleRecord, error)
	CountForPlayer(ctx context.Context, playerID uuid.UUID) (int64, error)
	ListSoldForPlayer(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]models.SaleRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sale log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.SaleRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// List returns sale records newest first.
func (r *repository) List(ctx context.Context, offset, limit int) ([]models.SaleRecord, error) {
	var records []models.SaleRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleRecord{}).Count(&count).Error
	return count, err
}

// ListForPlayer returns sales where the player was either side of the trade.
func (r *repository) ListForPlayer(ctx context.Context, playerID uuid.UUID, offset, limit int) ([]models.SaleRecord, error) {
	var records []models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("seller_id = ? OR buyer_id = ?", playerID, playerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListSoldForPlayer returns the player's seller-side sales inside [from, to],
// newest first.
func (r *repository) ListSoldForPlayer(ctx context.Context, sellerID uuid.UUID, from, to time.Time) ([]models.SaleRecord, error) {
	var records []models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND created_at >= ? AND created_at <= ?", sellerID, from, to).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) CountForPlayer(ctx context.Context, playerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SaleRecord{}).
		Where("seller_id = ? OR buyer_id = ?", playerID, playerID).
		Count(&count).Error
	return count, err
}
