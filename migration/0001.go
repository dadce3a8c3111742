package migration

import (
	"context"

	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/pkg/xcontext"
)

func migrate0001(ctx context.Context) error {
	return xcontext.DB(ctx).Migrator().AddColumn(&entity.UnmintedGeneration{}, "WarpletTokenID")
}
