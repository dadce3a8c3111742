package entity

import (
	"database/sql"
	"time"
)

// UnmintedGeneration is a generated artwork whose owner has not minted yet.
// The row is removed once the mint is confirmed.
type UnmintedGeneration struct {
	FIDBase

	Username       string
	WarpletTokenID string
	ImageData      string `gorm:"type:mediumtext"`
	GeneratedAt    time.Time
	CastSent       bool `gorm:"index"`
	CastSentAt     sql.NullTime
}
