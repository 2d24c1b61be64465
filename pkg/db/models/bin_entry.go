package models

import (
	"time"

	"github.com/google/uuid"
)

// BinEntry parks an item in a player's collection bin until they claim it.
type BinEntry struct {
	ItemID        int64     `gorm:"column:item_id;primaryKey"`
	PlayerID      uuid.UUID `gorm:"column:player_id;type:uuid;not null;index"`
	PlacementTime time.Time `gorm:"column:placement_time;not null"`
	Item          *ItemBlob `gorm:"foreignKey:ItemID;references:ID"`
}
