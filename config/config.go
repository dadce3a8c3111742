package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string
	LogLevel string

	Database         DatabaseConfigs
	ApiServer        ServerConfigs
	PrometheusServer ServerConfigs
	Auth             AuthConfigs
	Storage          S3Configs
	File             FileConfigs
	Redis            RedisConfigs
	Eth              EthConfigs
	Mint             MintConfigs
	Payment          PaymentConfigs
	Marketplace      MarketplaceConfigs
	Neynar           NeynarConfigs
	OpenAI           OpenAIConfigs
	ImageProxy       ImageProxyConfigs
	RateLimit        RateLimitConfigs
	Gallery          GalleryConfigs
	Cors             CorsConfigs
	Client           ClientConfigs
}

// Duration lets TOML files carry values like "5m" or "100ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type AuthConfigs struct {
	AdminPassword string
	TokenSecret   string
	AccessToken   TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration Duration
}

type S3Configs struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	SSLDisabled    bool
	Bucket         string
}

type FileConfigs struct {
	MaxSize int64
}

type RedisConfigs struct {
	Addr     string
	Password string
	DB       int
}

type EthConfigs struct {
	Chain ChainConfig
}

type ChainConfig struct {
	Chain   string   `toml:"chain" json:"chain"`
	ChainID int64    `toml:"chain_id" json:"chain_id"`
	Rpcs    []string `toml:"rpcs" json:"rpcs"`

	// ETH
	UseEip1559 bool `toml:"use_eip_1559" json:"use_eip_1559"` // For gas calculation

	BlockTime  int `toml:"block_time" json:"block_time"`
	AdjustTime int `toml:"adjust_time" json:"adjust_time"`
}

type MintConfigs struct {
	ContractAddress  string
	SignerPrivateKey string
	VoucherTTL       Duration
	FallbackGasLimit uint64
	MaxArtifactBytes int
	UsdcAddress      string
	PriceUSDC        string
	AcquireURL       string
	ReceiptTimeout   Duration
}

type PaymentConfigs struct {
	Enabled           bool
	FacilitatorURL    string
	PayTo             string
	Network           string
	MaxTimeoutSeconds int
	Resource          string
	Description       string
}

type MarketplaceConfigs struct {
	Provider        string
	RaribleURL      string
	RaribleAPIKey   string
	AlchemyURL      string
	AlchemyAPIKey   string
	WarpletContract string
	GeopletContract string
	Blockchain      string
}

type NeynarConfigs struct {
	URL             string
	APIKey          string
	SignerUUID      string
	VerifyRecipient bool
	CastBatchSize   int
	AppURL          string
}

type OpenAIConfigs struct {
	URL    string
	APIKey string
	Model  string
	Prompt string
	Size   string
}

type ImageProxyConfigs struct {
	AllowedHosts []string
	MaxDimension uint
}

type RateLimitConfigs struct {
	Store  string
	Window Duration
	Limit  int
}

type GalleryConfigs struct {
	CacheTTL        Duration
	DefaultPageSize int
	MaxPageSize     int
}

type CorsConfigs struct {
	AllowedOrigins []string
}

// ClientConfigs are only used by the command line mint and gallery clients.
type ClientConfigs struct {
	ServerURL  string
	PrivateKey string
}
