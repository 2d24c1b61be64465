package players

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cosmicpe/auctionhouse-backend/pkg/db/models"
)

// Stats summarizes how much of the marketplace a player currently occupies.
type Stats struct {
	Listings int64 `json:"listings"`
	Binned   int64 `json:"binned"`
}

// Repository manages persistence for player records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, player *models.Player) error
	Get(ctx context.Context, id uuid.UUID) (*models.Player, error)
	LookupByName(ctx context.Context, name string) (*models.Player, error)
	Stats(ctx context.Context, id uuid.UUID) (Stats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a player repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts the player or refreshes the stored gamertag. Names move
// between accounts over time, so the last writer wins.
func (r *repository) Upsert(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(player).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

func (r *repository) LookupByName(ctx context.Context, name string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

// Stats counts the player's live listings and binned items in one round trip
// per table. Both counts feed the max-listings policy check.
func (r *repository) Stats(ctx context.Context, id uuid.UUID) (Stats, error) {
	var stats Stats
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("seller_id = ?", id).
		Count(&stats.Listings).Error
	if err != nil {
		return Stats{}, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.BinEntry{}).
		Where("player_id = ?", id).
		Count(&stats.Binned).Error
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
