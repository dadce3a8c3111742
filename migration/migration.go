package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Migrator func(ctx context.Context) error

// Migrators contains every schema version. Never modify a released version,
// add a new one instead.
var Migrators = map[string]Migrator{
	"0000": migrate0000,
	"0001": migrate0001,
}

// Migrate applies, in order, every version which has not been recorded in the
// migrations table yet.
func Migrate(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if err := db.AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	versions := make([]string, 0, len(Migrators))
	for v := range Migrators {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	for _, version := range versions {
		err := db.Take(&entity.Migration{}, "version=?", version).Error
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := Run(ctx, version); err != nil {
			return err
		}
	}

	return nil
}

// Run applies a single version and records it.
func Run(ctx context.Context, version string) error {
	migrator, ok := Migrators[version]
	if !ok {
		return fmt.Errorf("not found version %s", version)
	}

	if err := migrator(ctx); err != nil {
		return fmt.Errorf("cannot migrate version %s: %w", version, err)
	}

	xcontext.Logger(ctx).Infof("Migrated database to version %s", version)
	return xcontext.DB(ctx).Create(&entity.Migration{Version: version}).Error
}
