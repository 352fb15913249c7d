package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Multiplexer MultiplexerConfig `yaml:"multiplexer" mapstructure:"multiplexer"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

type ServerConfig struct {
	Port              int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
}

type LoggingConfig struct {
	Level  string            `yaml:"level" mapstructure:"level"`
	Format string            `yaml:"format" mapstructure:"format"`
	Output string            `yaml:"output" mapstructure:"output"`
	File   LoggingFileConfig `yaml:"file" mapstructure:"file"`
}

// LoggingFileConfig aplica cuando output es file o stdout+file
type LoggingFileConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend" mapstructure:"backend"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// StorageConfig elige dónde viven los puntos de gráficos y las cotizaciones históricas
type StorageConfig struct {
	Backend string       `yaml:"backend" mapstructure:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite" mapstructure:"sqlite"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type MultiplexerConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	EventBuffer       int           `yaml:"event_buffer" mapstructure:"event_buffer"`
	SubscriberBuffer  int           `yaml:"subscriber_buffer" mapstructure:"subscriber_buffer"`
	UpdateTimeout     time.Duration `yaml:"update_timeout" mapstructure:"update_timeout"`
	FeedRetryInterval time.Duration `yaml:"feed_retry_interval" mapstructure:"feed_retry_interval"`
	SnapshotTimeout   time.Duration `yaml:"snapshot_timeout" mapstructure:"snapshot_timeout"`
}

type ProvidersConfig struct {
	CoinGecko     CoinGeckoConfig     `yaml:"coingecko" mapstructure:"coingecko"`
	CoinMarketCap CoinMarketCapConfig `yaml:"coinmarketcap" mapstructure:"coinmarketcap"`
	Kraken        KrakenConfig        `yaml:"kraken" mapstructure:"kraken"`
	MarketInfo    MarketInfoConfig    `yaml:"market_info" mapstructure:"market_info"`
}

type CoinGeckoConfig struct {
	BaseURL        string            `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string            `yaml:"api_key" mapstructure:"api_key"`
	Timeout        time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	RequestTimeout time.Duration     `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries     int               `yaml:"max_retries" mapstructure:"max_retries"`
	CoinIDs        map[string]string `yaml:"coin_ids" mapstructure:"coin_ids"`
}

type CoinMarketCapConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
}

type KrakenConfig struct {
	Enabled              bool          `yaml:"enabled" mapstructure:"enabled"`
	RestURL              string        `yaml:"rest_url" mapstructure:"rest_url"`
	WebSocketURL         string        `yaml:"websocket_url" mapstructure:"websocket_url"`
	Timeout              time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestTimeout       time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries           int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" mapstructure:"max_reconnect_attempts"`
	FallbackPollInterval time.Duration `yaml:"fallback_poll_interval" mapstructure:"fallback_poll_interval"`
}

type MarketInfoConfig struct {
	ExpirationInterval time.Duration `yaml:"expiration_interval" mapstructure:"expiration_interval"`
}

type RateLimitConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	Capacity   int  `yaml:"capacity" mapstructure:"capacity"`
	RefillRate int  `yaml:"refill_rate" mapstructure:"refill_rate"`
}

type AuthConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	HeaderName  string   `yaml:"header_name" mapstructure:"header_name"`
	UnauthPaths []string `yaml:"unauth_paths" mapstructure:"unauth_paths"`
}

// DevelopmentConfig: mock_mode reemplaza todos los proveedores por datos sintéticos
type DevelopmentConfig struct {
	MockMode  bool `yaml:"mock_mode" mapstructure:"mock_mode"`
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`
}

// GetDefaultConfig retorna la configuración por defecto
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			ShutdownTimeout:   30 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: LoggingFileConfig{
				Path:       "logs/xrates-sync-service.log",
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     5 * time.Minute,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Storage: StorageConfig{
			Backend: "cache",
			SQLite: SQLiteConfig{
				Path: "data/xrates.db",
			},
		},
		Multiplexer: MultiplexerConfig{
			PollInterval:      time.Minute,
			EventBuffer:       8,
			SubscriberBuffer:  16,
			UpdateTimeout:     15 * time.Second,
			FeedRetryInterval: 30 * time.Second,
			SnapshotTimeout:   10 * time.Second,
		},
		Providers: ProvidersConfig{
			CoinGecko: CoinGeckoConfig{
				BaseURL:        "https://api.coingecko.com/api/v3",
				Timeout:        10 * time.Second,
				RequestTimeout: 5 * time.Second,
				MaxRetries:     3,
				CoinIDs: map[string]string{
					"BTC":  "bitcoin",
					"ETH":  "ethereum",
					"LTC":  "litecoin",
					"XRP":  "ripple",
					"BNB":  "binancecoin",
					"SOL":  "solana",
					"ADA":  "cardano",
					"DOGE": "dogecoin",
				},
			},
			CoinMarketCap: CoinMarketCapConfig{
				BaseURL:        "https://pro-api.coinmarketcap.com/v1/cryptocurrency",
				Timeout:        10 * time.Second,
				RequestTimeout: 5 * time.Second,
				MaxRetries:     3,
			},
			Kraken: KrakenConfig{
				Enabled:              true,
				RestURL:              "https://api.kraken.com/0/public",
				WebSocketURL:         "wss://ws.kraken.com",
				Timeout:              10 * time.Second,
				RequestTimeout:       3 * time.Second,
				MaxRetries:           3,
				MaxReconnectAttempts: 10,
				FallbackPollInterval: 30 * time.Second,
			},
			MarketInfo: MarketInfoConfig{
				ExpirationInterval: 5 * time.Minute,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Capacity:   100,
			RefillRate: 10,
		},
		Auth: AuthConfig{
			Enabled:     false,
			HeaderName:  "X-API-Key",
			UnauthPaths: []string{"/health", "/ready", "/metrics", "/swagger/"},
		},
	}
}

// YAML renderiza la configuración efectiva. Los secretos se enmascaran.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	masked.Cache.Redis.Password = mask(c.Cache.Redis.Password)
	masked.Providers.CoinGecko.APIKey = mask(c.Providers.CoinGecko.APIKey)
	masked.Providers.CoinMarketCap.APIKey = mask(c.Providers.CoinMarketCap.APIKey)
	masked.Auth.APIKey = mask(c.Auth.APIKey)
	return yaml.Marshal(&masked)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}
