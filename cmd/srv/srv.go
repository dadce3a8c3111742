package main

import (
	"context"
	"net/http"
	"time"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/domain"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/internal/repository"
	"github.com/geoplet/backend/migration"
	"github.com/geoplet/backend/pkg/api/neynar"
	"github.com/geoplet/backend/pkg/api/openai"
	"github.com/geoplet/backend/pkg/api/x402"
	"github.com/geoplet/backend/pkg/authenticator"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/logger"
	"github.com/geoplet/backend/pkg/prometheus"
	"github.com/geoplet/backend/pkg/ratelimit"
	"github.com/geoplet/backend/pkg/router"
	"github.com/geoplet/backend/pkg/storage"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/geoplet/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	paymentRepo  repository.PaymentRepository
	unmintedRepo repository.UnmintedRepository

	redisClient    xredis.Client
	ethClient      eth.EthClient
	storage        storage.Storage
	neynarEndpoint *neynar.Endpoint
	openaiEndpoint *openai.Endpoint
	facilitator    *x402.Facilitator
	tokenEngine    authenticator.TokenEngine[model.AdminToken]
	uploadLimiter  *ratelimit.FixedWindow

	mintDomain       domain.MintDomain
	nftDomain        domain.NFTDomain
	galleryDomain    domain.GalleryDomain
	generationDomain domain.GenerationDomain
	imageProxyDomain domain.ImageProxyDomain
	fileDomain       domain.FileDomain
	adminDomain      domain.AdminDomain

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.ParseLevel(cfg.LogLevel)))
	return nil
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database

	logLevel := gormlogger.Silent
	switch cfg.LogLevel {
	case "error":
		logLevel = gormlogger.Error
	case "warn":
		logLevel = gormlogger.Warn
	case "info":
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadEthClient() {
	client := eth.NewEthClients(xcontext.Configs(s.ctx).Eth.Chain)
	client.Start(s.ctx)
	s.ethClient = client
}

func (s *srv) loadStorage() {
	var err error
	s.storage, err = storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadEndpoint() {
	cfg := xcontext.Configs(s.ctx)
	s.neynarEndpoint = neynar.New(cfg.Neynar)
	s.openaiEndpoint = openai.New(cfg.OpenAI)
	s.facilitator = x402.NewFacilitator(cfg.Payment)
}

func (s *srv) loadAuthenticator() {
	cfg := xcontext.Configs(s.ctx).Auth
	s.tokenEngine = authenticator.NewTokenEngine[model.AdminToken](
		cfg.TokenSecret, cfg.AccessToken.Expiration.Duration)
}

func (s *srv) loadRateLimiter() {
	cfg := xcontext.Configs(s.ctx).RateLimit

	var store ratelimit.Store
	switch cfg.Store {
	case "redis":
		store = ratelimit.NewRedisStore(s.redisClient, common.RedisKeyRateLimitPrefix)
	default:
		store = ratelimit.NewMemoryStore()
	}

	s.uploadLimiter = ratelimit.NewFixedWindow(store, cfg.Window.Duration, cfg.Limit)
}

func (s *srv) loadRepos() {
	s.paymentRepo = repository.NewPaymentRepository()
	s.unmintedRepo = repository.NewUnmintedRepository()
}

func (s *srv) loadDomains() {
	var err error
	s.mintDomain, err = domain.NewMintDomain(s.ctx, s.paymentRepo, s.unmintedRepo,
		s.ethClient, s.facilitator, s.neynarEndpoint)
	if err != nil {
		panic(err)
	}

	s.nftDomain, err = domain.NewNFTDomain(s.ctx, s.redisClient, s.ethClient)
	if err != nil {
		panic(err)
	}

	s.galleryDomain, err = domain.NewGalleryDomain(s.ctx, s.redisClient, s.ethClient)
	if err != nil {
		panic(err)
	}

	s.generationDomain = domain.NewGenerationDomain(s.unmintedRepo, s.openaiEndpoint)
	s.imageProxyDomain = domain.NewImageProxyDomain()
	s.fileDomain = domain.NewFileDomain(s.storage, s.uploadLimiter)
	s.adminDomain = domain.NewAdminDomain(s.unmintedRepo, s.tokenEngine, s.neynarEndpoint, s.storage)
}

func (s *srv) startPrometheus() {
	cfg := xcontext.Configs(s.ctx)
	if cfg.PrometheusServer.Port == "" {
		return
	}

	go func() {
		httpSrv := &http.Server{
			Addr:              cfg.PrometheusServer.Address(),
			Handler:           prometheus.NewHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		xcontext.Logger(s.ctx).Infof("Starting prometheus on port: %s", cfg.PrometheusServer.Port)
		if err := httpSrv.ListenAndServe(); err != nil {
			xcontext.Logger(s.ctx).Errorf("Prometheus server stopped: %v", err)
		}
	}()
}
