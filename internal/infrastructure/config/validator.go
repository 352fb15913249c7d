package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator revisa la configuración cargada antes de arrancar
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate retorna el primer error encontrado, prefijado con la sección
func (v *Validator) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	checks := []struct {
		section string
		check   func() error
	}{
		{"server", func() error { return v.validateServer(config.Server) }},
		{"logging", func() error { return v.validateLogging(config.Logging) }},
		{"cache", func() error { return v.validateCache(config.Cache) }},
		{"storage", func() error { return v.validateStorage(config.Storage) }},
		{"multiplexer", func() error { return v.validateMultiplexer(config.Multiplexer) }},
		{"providers", func() error { return v.validateProviders(config.Providers, config.Development) }},
		{"rate limit", func() error { return v.validateRateLimit(config.RateLimit) }},
		{"auth", func() error { return v.validateAuth(config.Auth) }},
	}

	for _, c := range checks {
		if err := c.check(); err != nil {
			return fmt.Errorf("%s config validation failed: %w", c.section, err)
		}
	}
	return nil
}

func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	if config.ReadHeaderTimeout < 0 {
		return fmt.Errorf("read_header_timeout cannot be negative, got: %v", config.ReadHeaderTimeout)
	}

	return nil
}

func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, config.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, config.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	validOutputs := []string{"stdout", "stderr", "file", "stdout+file"}
	if !contains(validOutputs, config.Output) {
		return fmt.Errorf("invalid log output: %s, must be one of: %v", config.Output, validOutputs)
	}

	if strings.Contains(strings.ToLower(config.Output), "file") {
		if config.File.Path == "" {
			return fmt.Errorf("logging file.path cannot be empty when output is %s", config.Output)
		}
		if config.File.MaxSizeMB <= 0 {
			return fmt.Errorf("logging file.max_size_mb must be positive, got: %d", config.File.MaxSizeMB)
		}
		if config.File.MaxBackups < 0 || config.File.MaxAgeDays < 0 {
			return fmt.Errorf("logging file retention cannot be negative")
		}
	}

	return nil
}

func (v *Validator) validateCache(config CacheConfig) error {
	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid cache backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	if config.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", config.TTL)
	}

	if strings.EqualFold(config.Backend, "redis") {
		return v.validateRedis(config.Redis)
	}

	return nil
}

func (v *Validator) validateRedis(config RedisConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	return nil
}

func (v *Validator) validateStorage(config StorageConfig) error {
	validBackends := []string{"cache", "sqlite"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid storage backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	if strings.EqualFold(config.Backend, "sqlite") && config.SQLite.Path == "" {
		return fmt.Errorf("sqlite path cannot be empty")
	}

	return nil
}

func (v *Validator) validateMultiplexer(config MultiplexerConfig) error {
	durations := map[string]time.Duration{
		"poll_interval":       config.PollInterval,
		"update_timeout":      config.UpdateTimeout,
		"feed_retry_interval": config.FeedRetryInterval,
		"snapshot_timeout":    config.SnapshotTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got: %v", name, d)
		}
	}

	if config.PollInterval < time.Second {
		return fmt.Errorf("poll_interval too short: %v, min 1s", config.PollInterval)
	}

	if config.EventBuffer < 1 {
		return fmt.Errorf("event_buffer must be at least 1, got: %d", config.EventBuffer)
	}

	if config.SubscriberBuffer < 1 {
		return fmt.Errorf("subscriber_buffer must be at least 1, got: %d", config.SubscriberBuffer)
	}

	return nil
}

func (v *Validator) validateProviders(config ProvidersConfig, dev DevelopmentConfig) error {
	if config.MarketInfo.ExpirationInterval <= 0 {
		return fmt.Errorf("market_info expiration_interval must be positive, got: %v", config.MarketInfo.ExpirationInterval)
	}

	// en mock_mode no se contacta ningún proveedor
	if dev.MockMode {
		return nil
	}

	cg := config.CoinGecko
	if err := v.validateURL(cg.BaseURL, "coingecko base_url"); err != nil {
		return err
	}
	if err := v.validateTimeouts("coingecko", cg.Timeout, cg.RequestTimeout, cg.MaxRetries); err != nil {
		return err
	}
	if len(cg.CoinIDs) == 0 {
		return fmt.Errorf("coingecko coin_ids cannot be empty")
	}

	cmc := config.CoinMarketCap
	if cmc.APIKey != "" {
		if err := v.validateURL(cmc.BaseURL, "coinmarketcap base_url"); err != nil {
			return err
		}
		if err := v.validateTimeouts("coinmarketcap", cmc.Timeout, cmc.RequestTimeout, cmc.MaxRetries); err != nil {
			return err
		}
	}

	return v.validateKraken(config.Kraken)
}

func (v *Validator) validateKraken(config KrakenConfig) error {
	if !config.Enabled {
		return nil
	}

	if err := v.validateURL(config.RestURL, "kraken rest_url"); err != nil {
		return err
	}

	if err := v.validateWebSocketURL(config.WebSocketURL, "kraken websocket_url"); err != nil {
		return err
	}

	if err := v.validateTimeouts("kraken", config.Timeout, config.RequestTimeout, config.MaxRetries); err != nil {
		return err
	}

	if config.FallbackPollInterval <= 0 {
		return fmt.Errorf("kraken fallback_poll_interval must be positive, got: %v", config.FallbackPollInterval)
	}

	if config.MaxReconnectAttempts < 0 {
		return fmt.Errorf("kraken max_reconnect_attempts cannot be negative, got: %d", config.MaxReconnectAttempts)
	}

	return nil
}

func (v *Validator) validateTimeouts(name string, timeout, requestTimeout time.Duration, maxRetries int) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive, got: %v", name, timeout)
	}

	if requestTimeout <= 0 {
		return fmt.Errorf("%s request_timeout must be positive, got: %v", name, requestTimeout)
	}

	if requestTimeout > timeout {
		return fmt.Errorf("%s request_timeout (%v) should not exceed timeout (%v)", name, requestTimeout, timeout)
	}

	if maxRetries < 1 || maxRetries > 10 {
		return fmt.Errorf("%s max_retries must be between 1-10, got: %d", name, maxRetries)
	}

	return nil
}

func (v *Validator) validateRateLimit(config RateLimitConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.Capacity <= 0 {
		return fmt.Errorf("rate_limit capacity must be positive when enabled, got: %d", config.Capacity)
	}

	if config.RefillRate <= 0 {
		return fmt.Errorf("rate_limit refill_rate must be positive when enabled, got: %d", config.RefillRate)
	}

	if config.Capacity > 10000 {
		return fmt.Errorf("rate_limit capacity too high: %d, max 10000", config.Capacity)
	}

	if config.RefillRate > 1000 {
		return fmt.Errorf("rate_limit refill_rate too high: %d, max 1000", config.RefillRate)
	}

	return nil
}

func (v *Validator) validateAuth(config AuthConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.APIKey == "" {
		return fmt.Errorf("auth api_key cannot be empty when enabled")
	}

	if config.HeaderName == "" {
		return fmt.Errorf("auth header_name cannot be empty when enabled")
	}

	return nil
}

func (v *Validator) validateURL(rawURL, fieldName string) error {
	return v.validateScheme(rawURL, fieldName, "http", "https")
}

func (v *Validator) validateWebSocketURL(rawURL, fieldName string) error {
	return v.validateScheme(rawURL, fieldName, "ws", "wss")
}

func (v *Validator) validateScheme(rawURL, fieldName string, schemes ...string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if !contains(schemes, parsedURL.Scheme) {
		return fmt.Errorf("invalid %s scheme: %s, must be one of: %v", fieldName, parsedURL.Scheme, schemes)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
