package models

import (
	"time"

	"github.com/google/uuid"
)

// Player mirrors a game account the marketplace has seen. Name is refreshed
// on every authenticated request so gamertag lookups stay current.
type Player struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
