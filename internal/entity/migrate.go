package entity

import (
	"context"

	"github.com/geoplet/backend/pkg/xcontext"
)

// MigrateTable creates every table with its latest schema. It is used by
// tests and by fresh deployments.
func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&UnmintedGeneration{},
		&MintPayment{},
		&Migration{},
	)
}
