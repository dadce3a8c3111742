package main

import (
	"github.com/geoplet/backend/migration"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())

	if version := cctx.String("version"); version != "" {
		return migration.Run(s.ctx, version)
	}

	if cctx.Bool("auto") {
		return migration.AutoMigrate(s.ctx)
	}

	return migration.Migrate(s.ctx)
}
