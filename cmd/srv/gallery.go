package main

import (
	"fmt"

	"github.com/geoplet/backend/pkg/gallery"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startGallery(cctx *cli.Context) error {
	cfg := xcontext.Configs(s.ctx)
	loader := gallery.NewLoader(cfg.Client.ServerURL, cctx.Int("size")).
		WithCacheTTL(cfg.Gallery.CacheTTL.Duration)

	for i := 0; i < cctx.Int("pages") && loader.HasMore(); i++ {
		if _, err := loader.LoadMore(s.ctx); err != nil {
			return err
		}
	}

	for _, item := range loader.Items() {
		fmt.Printf("%s\t%s\t%s\n", item.TokenID, item.Name, item.Image)
	}

	return nil
}
