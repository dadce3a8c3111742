package entity

import (
	"time"
)

// FIDBase is shared by tables keyed by a Farcaster user id. The id is
// assigned by Farcaster, never by the database.
type FIDBase struct {
	FID       int64 `gorm:"column:fid;primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Migration struct {
	Version   string `gorm:"primaryKey"`
	CreatedAt time.Time
}
