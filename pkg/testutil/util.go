package testutil

import (
	"context"
	"time"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/pkg/logger"
	"github.com/geoplet/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Deterministic key used by tests to sign vouchers. Never use it on a real
// network.
const SignerPrivateKey = "b0057716d5917badaf911b193b12b910811c1497b5bada8d7711f758981c3773"

const ContractAddress = "0x999999cf1046e68e36E1aA2E0E07105eDDD1f08E"

func MockConfigs() config.Configs {
	cfg := config.Default()
	cfg.Auth = config.AuthConfigs{
		AdminPassword: "admin-password",
		TokenSecret:   "secret",
		AccessToken: config.TokenConfigs{
			Name:       "access_token",
			Expiration: config.Duration{Duration: time.Minute},
		},
	}
	cfg.Mint.ContractAddress = ContractAddress
	cfg.Mint.SignerPrivateKey = SignerPrivateKey
	cfg.Payment.PayTo = "0x1111111111111111111111111111111111111111"
	cfg.Marketplace.WarpletContract = "0x2222222222222222222222222222222222222222"
	cfg.Marketplace.GeopletContract = ContractAddress
	cfg.Neynar.APIKey = "neynar-key"
	cfg.Neynar.SignerUUID = "signer-uuid"
	cfg.OpenAI.APIKey = "openai-key"

	return cfg
}

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// Every connection to :memory: opens its own empty database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}
