package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	BaseChainID     = 8453
	BaseUSDCAddress = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

// Default returns configurations usable for a local deployment on Base.
func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "INFO",
		Database: DatabaseConfigs{
			Host:     "localhost",
			Port:     "3306",
			Database: "geoplets",
			User:     "mysql",
			LogLevel: "error",
		},
		ApiServer:        ServerConfigs{Port: "8080"},
		PrometheusServer: ServerConfigs{Port: "9090"},
		Auth: AuthConfigs{
			AccessToken: TokenConfigs{
				Name:       "admin_token",
				Expiration: Duration{24 * time.Hour},
			},
		},
		Storage: S3Configs{
			Region: "auto",
			Bucket: "geoplets",
		},
		File:  FileConfigs{MaxSize: 2 * 1024 * 1024},
		Redis: RedisConfigs{Addr: "localhost:6379"},
		Eth: EthConfigs{
			Chain: ChainConfig{
				Chain:      "base",
				ChainID:    BaseChainID,
				Rpcs:       []string{"https://mainnet.base.org"},
				UseEip1559: true,
				BlockTime:  2,
				AdjustTime: 1,
			},
		},
		Mint: MintConfigs{
			VoucherTTL:       Duration{10 * time.Minute},
			FallbackGasLimit: 3_000_000,
			MaxArtifactBytes: 24 * 1024,
			UsdcAddress:      BaseUSDCAddress,
			PriceUSDC:        "2000000",
			AcquireURL:       "https://app.uniswap.org/swap?chain=base&outputCurrency=" + BaseUSDCAddress,
			ReceiptTimeout:   Duration{2 * time.Minute},
		},
		Payment: PaymentConfigs{
			Enabled:           true,
			FacilitatorURL:    "https://x402.org/facilitator",
			Network:           "base",
			MaxTimeoutSeconds: 300,
			Description:       "Geoplet mint",
		},
		Marketplace: MarketplaceConfigs{
			Provider:   "rarible",
			RaribleURL: "https://api.rarible.org",
			AlchemyURL: "https://base-mainnet.g.alchemy.com",
			Blockchain: "BASE",
		},
		Neynar: NeynarConfigs{
			URL:           "https://api.neynar.com",
			CastBatchSize: 5,
		},
		OpenAI: OpenAIConfigs{
			URL:    "https://api.openai.com",
			Model:  "gpt-image-1",
			Size:   "1024x1024",
			Prompt: "Redraw this character as a flat geometric artwork made of simple shapes and bold colors. Keep the pose and the palette.",
		},
		ImageProxy: ImageProxyConfigs{
			AllowedHosts: []string{
				"i.imgur.com",
				"imagedelivery.net",
				"ipfs.io",
				"gateway.pinata.cloud",
				"nft-cdn.alchemy.com",
				"res.cloudinary.com",
			},
			MaxDimension: 1024,
		},
		RateLimit: RateLimitConfigs{
			Store:  "memory",
			Window: Duration{time.Minute},
			Limit:  10,
		},
		Gallery: GalleryConfigs{
			CacheTTL:        Duration{5 * time.Minute},
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Client: ClientConfigs{ServerURL: "http://localhost:8080"},
	}
}

// Load reads defaults, then the TOML file at path if given, then environment
// overrides.
func Load(path string) (Configs, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Configs) applyEnv() {
	str := map[string]*string{
		"ENV":                     &cfg.Env,
		"LOG_LEVEL":               &cfg.LogLevel,
		"DATABASE_HOST":           &cfg.Database.Host,
		"DATABASE_PORT":           &cfg.Database.Port,
		"DATABASE_NAME":           &cfg.Database.Database,
		"DATABASE_USER":           &cfg.Database.User,
		"DATABASE_PASSWORD":       &cfg.Database.Password,
		"API_PORT":                &cfg.ApiServer.Port,
		"PROMETHEUS_PORT":         &cfg.PrometheusServer.Port,
		"ADMIN_PASSWORD":          &cfg.Auth.AdminPassword,
		"AUTH_TOKEN_SECRET":       &cfg.Auth.TokenSecret,
		"S3_ENDPOINT":             &cfg.Storage.Endpoint,
		"S3_PUBLIC_ENDPOINT":      &cfg.Storage.PublicEndpoint,
		"S3_ACCESS_KEY":           &cfg.Storage.AccessKey,
		"S3_SECRET_KEY":           &cfg.Storage.SecretKey,
		"REDIS_ADDR":              &cfg.Redis.Addr,
		"REDIS_PASSWORD":          &cfg.Redis.Password,
		"MINT_CONTRACT_ADDRESS":   &cfg.Mint.ContractAddress,
		"MINT_SIGNER_PRIVATE_KEY": &cfg.Mint.SignerPrivateKey,
		"MINT_PRICE_USDC":         &cfg.Mint.PriceUSDC,
		"X402_FACILITATOR_URL":    &cfg.Payment.FacilitatorURL,
		"X402_PAY_TO":             &cfg.Payment.PayTo,
		"X402_RESOURCE":           &cfg.Payment.Resource,
		"MARKETPLACE_PROVIDER":    &cfg.Marketplace.Provider,
		"RARIBLE_API_KEY":         &cfg.Marketplace.RaribleAPIKey,
		"ALCHEMY_API_KEY":         &cfg.Marketplace.AlchemyAPIKey,
		"WARPLET_CONTRACT":        &cfg.Marketplace.WarpletContract,
		"NEYNAR_API_KEY":          &cfg.Neynar.APIKey,
		"NEYNAR_SIGNER_UUID":      &cfg.Neynar.SignerUUID,
		"OPENAI_API_KEY":          &cfg.OpenAI.APIKey,
		"RATE_LIMIT_STORE":        &cfg.RateLimit.Store,
		"CLIENT_SERVER_URL":       &cfg.Client.ServerURL,
		"CLIENT_PRIVATE_KEY":      &cfg.Client.PrivateKey,
	}

	for name, field := range str {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}

	if v, ok := os.LookupEnv("ETH_RPCS"); ok {
		cfg.Eth.Chain.Rpcs = strings.Split(v, ",")
	}

	if v, ok := os.LookupEnv("X402_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Payment.Enabled = b
		}
	}

	// The gallery lists the same contract that mints.
	if cfg.Marketplace.GeopletContract == "" {
		cfg.Marketplace.GeopletContract = cfg.Mint.ContractAddress
	}
}

// ValidateAPI fails fast on credentials the api command cannot start without.
func (cfg Configs) ValidateAPI() error {
	var errs []error
	if cfg.Auth.TokenSecret == "" {
		errs = append(errs, errors.New("missing auth token secret"))
	}

	if cfg.Auth.AdminPassword == "" {
		errs = append(errs, errors.New("missing admin password"))
	}

	if cfg.Mint.SignerPrivateKey == "" {
		errs = append(errs, errors.New("missing voucher signer private key"))
	}

	errs = append(errs, cfg.validateChain()...)

	if cfg.Payment.Enabled {
		if cfg.Payment.FacilitatorURL == "" {
			errs = append(errs, errors.New("missing x402 facilitator url"))
		}

		if cfg.Payment.PayTo == "" {
			errs = append(errs, errors.New("missing x402 pay-to address"))
		}
	}

	switch cfg.Marketplace.Provider {
	case "rarible", "alchemy":
	default:
		errs = append(errs, errors.New("marketplace provider must be rarible or alchemy"))
	}

	return errors.Join(errs...)
}

// ValidateClient fails fast on settings the mint command needs.
func (cfg Configs) ValidateClient() error {
	errs := cfg.validateChain()
	if cfg.Client.PrivateKey == "" {
		errs = append(errs, errors.New("missing client wallet private key"))
	}

	if cfg.Client.ServerURL == "" {
		errs = append(errs, errors.New("missing server url"))
	}

	return errors.Join(errs...)
}

func (cfg Configs) validateChain() []error {
	var errs []error
	if cfg.Mint.ContractAddress == "" {
		errs = append(errs, errors.New("missing mint contract address"))
	}

	if len(cfg.Eth.Chain.Rpcs) == 0 {
		errs = append(errs, errors.New("missing chain rpcs"))
	}

	if cfg.Mint.MaxArtifactBytes <= 0 {
		errs = append(errs, errors.New("max artifact bytes must be positive"))
	}

	return errs
}
