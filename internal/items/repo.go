package items

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// Repository manages persistence for serialized item blobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, item *models.ItemBlob) error
	Get(ctx context.Context, id int64) (*models.ItemBlob, error)
	Remove(ctx context.Context, id int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Add persists the blob and fills in its generated id.
func (r *repository) Add(ctx context.Context, item *models.ItemBlob) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Get(ctx context.Context, id int64) (*models.ItemBlob, error) {
	var item models.ItemBlob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) Remove(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.ItemBlob{}, id).Error
}
