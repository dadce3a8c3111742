package main

import (
	"context"
	"net/http"
	"time"

	"github.com/geoplet/backend/internal/middleware"
	"github.com/geoplet/backend/pkg/router"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	cfg := xcontext.Configs(s.ctx)
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}

	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadEthClient()
	s.loadStorage()
	s.loadEndpoint()
	s.loadAuthenticator()
	s.loadRateLimiter()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()
	s.startPrometheus()

	s.server = &http.Server{
		Addr:              cfg.ApiServer.Address(),
		Handler:           s.router.Handler(cfg.Cors),
		ReadHeaderTimeout: 10 * time.Second,
	}

	xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stop")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(xcontext.DB(s.ctx), xcontext.Configs(s.ctx), xcontext.Logger(s.ctx))
	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	// Outgoing calls share the server's http client.
	httpClient := xcontext.HTTPClient(s.ctx)
	s.router.With(func(ctx context.Context) context.Context {
		return xcontext.WithHTTPClient(ctx, httpClient)
	})

	// Mint API
	router.GET(s.router, "/getEligibility", s.mintDomain.GetEligibility)
	router.POST(s.router, "/requestMintVoucher", s.mintDomain.RequestVoucher)
	router.GET(s.router, "/getVoucher", s.mintDomain.GetVoucher)
	router.POST(s.router, "/confirmMint", s.mintDomain.ConfirmMint)

	// NFT API
	router.GET(s.router, "/getWarplets", s.nftDomain.GetWarplets)
	router.GET(s.router, "/getGallery", s.galleryDomain.GetGallery)

	// Artwork API
	router.POST(s.router, "/generate", s.generationDomain.Generate)
	router.GET(s.router, "/imageProxy", s.imageProxyDomain.Proxy)
	router.POST(s.router, "/uploadImage", s.fileDomain.UploadImage)

	// Admin API
	router.POST(s.router, "/admin/login", s.adminDomain.Login)

	adminRouter := s.router.Branch()
	adminRouter.Before(middleware.NewOnlyAdmin(s.tokenEngine).Middleware())
	{
		router.GET(adminRouter, "/admin/getUnconverted", s.adminDomain.GetUnconverted)
		router.POST(adminRouter, "/admin/markContacted", s.adminDomain.MarkContacted)
		router.POST(adminRouter, "/admin/sendCast", s.adminDomain.SendCast)
		router.POST(adminRouter, "/admin/testAPIKey", s.adminDomain.TestAPIKey)
	}
}
