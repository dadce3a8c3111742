package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/geoplet/backend/pkg/xcontext"
)

// Snapshots of the tables as they were first released.
// NOTE: DO NOT MODIFY THESE STRUCTS.
type UnmintedGeneration0 struct {
	FID         int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Username    string
	ImageData   string `gorm:"type:mediumtext"`
	GeneratedAt time.Time
	CastSent    bool `gorm:"index"`
	CastSentAt  sql.NullTime
}

func (UnmintedGeneration0) TableName() string { return "unminted_generations" }

type MintPayment0 struct {
	FID              int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Recipient        string
	Payer            string
	Amount           string
	SettlementTxHash string
	Status           string `gorm:"index"`
	VoucherNonce     string
	VoucherDeadline  int64
	VoucherSignature string
	MintTxHash       string
}

func (MintPayment0) TableName() string { return "mint_payments" }

func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(&UnmintedGeneration0{}, &MintPayment0{})
}
