package models

import "time"

// ItemBlob stores the serialized game item backing a listing or bin entry.
// Kind and Meta are denormalized from the payload so group queries never
// deserialize blobs.
type ItemBlob struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Payload   []byte    `gorm:"column:payload;not null"`
	Kind      string    `gorm:"column:kind;not null;index:idx_item_blobs_group"`
	Meta      int       `gorm:"column:meta;not null;index:idx_item_blobs_group"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
