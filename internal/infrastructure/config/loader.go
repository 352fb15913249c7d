package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix para variables de entorno: XRATES_SERVER_PORT, XRATES_CACHE_REDIS_ADDR...
const EnvPrefix = "XRATES"

// Loader carga la configuración con Viper: defaults, archivo YAML y variables de entorno
type Loader struct {
	v          *viper.Viper
	configFile string
}

func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// WithConfigFile fuerza un archivo concreto en lugar de buscar config.yaml
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Load lee defaults, archivo y env vars, en ese orden de prioridad creciente
func (l *Loader) Load() (*Config, error) {
	if err := l.setupViper(); err != nil {
		return nil, fmt.Errorf("failed to setup viper: %w", err)
	}

	if err := l.v.ReadInConfig(); err != nil {
		// sin config.yaml se usan defaults + env
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	config := GetDefaultConfig()
	// coin_ids se decodifica desde viper, que ya tiene los defaults
	config.Providers.CoinGecko.CoinIDs = nil
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.overrideWithEnvVars(config)
	return config, nil
}

func (l *Loader) setupViper() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath("./configs")
		l.v.AddConfigPath("../configs")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("/etc/xrates-sync-service")
	}

	if err := l.registerDefaults(); err != nil {
		return err
	}

	l.v.AutomaticEnv()
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()
	return nil
}

// registerDefaults registra cada hoja de GetDefaultConfig como default de viper.
// AutomaticEnv solo resuelve claves que viper ya conoce.
func (l *Loader) registerDefaults() error {
	raw, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}

	for key, value := range flatten("", tree) {
		l.v.SetDefault(key, value)
	}
	return nil
}

func flatten(prefix string, tree map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flatten(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// bindEnvVars mapea nombres cortos de uso común
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"server.port":                               "PORT",
		"cache.backend":                             "CACHE_BACKEND",
		"cache.ttl":                                 "CACHE_TTL",
		"cache.redis.addr":                          "REDIS_ADDR",
		"cache.redis.password":                      "REDIS_PASSWORD",
		"cache.redis.db":                            "REDIS_DB",
		"storage.backend":                           "STORAGE_BACKEND",
		"storage.sqlite.path":                       "SQLITE_PATH",
		"providers.coingecko.api_key":               "COINGECKO_API_KEY",
		"providers.coinmarketcap.api_key":           "CMC_API_KEY",
		"providers.kraken.enabled":                  "KRAKEN_ENABLED",
		"providers.market_info.expiration_interval": "EXPIRATION_INTERVAL",
		"logging.level":                             "LOG_LEVEL",
		"logging.format":                            "LOG_FORMAT",
		"logging.output":                            "LOG_OUTPUT",
		"rate_limit.enabled":                        "RATE_LIMIT_ENABLED",
		"rate_limit.capacity":                       "RATE_LIMIT_CAPACITY",
		"rate_limit.refill_rate":                    "RATE_LIMIT_REFILL_RATE",
		"auth.api_key":                              "API_KEY",
		"development.mock_mode":                     "MOCK_MODE",
		"development.debug_mode":                    "DEBUG_MODE",
	}

	for configKey, envVar := range envMappings {
		// BindEnv con nombre explícito conserva la variante con prefijo
		_ = l.v.BindEnv(configKey, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(configKey, ".", "_")), envVar)
	}
}

// overrideWithEnvVars maneja las env vars que no encajan en una sola clave
func (l *Loader) overrideWithEnvVars(config *Config) {
	// XRATES_COIN_IDS="BTC=bitcoin,ETH=ethereum"
	if raw := os.Getenv(EnvPrefix + "_COIN_IDS"); raw != "" {
		ids := parseCoinIDs(raw)
		if len(ids) > 0 {
			config.Providers.CoinGecko.CoinIDs = ids
		}
	}

	if len(config.Providers.CoinGecko.CoinIDs) == 0 {
		config.Providers.CoinGecko.CoinIDs = GetDefaultConfig().Providers.CoinGecko.CoinIDs
	}

	upper := make(map[string]string, len(config.Providers.CoinGecko.CoinIDs))
	for asset, id := range config.Providers.CoinGecko.CoinIDs {
		upper[strings.ToUpper(asset)] = id
	}
	config.Providers.CoinGecko.CoinIDs = upper
}

func parseCoinIDs(raw string) map[string]string {
	ids := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		asset, id, ok := strings.Cut(strings.TrimSpace(entry), "=")
		asset = strings.ToUpper(strings.TrimSpace(asset))
		id = strings.TrimSpace(id)
		if !ok || asset == "" || id == "" {
			continue
		}
		ids[asset] = id
	}
	return ids
}

// LoadForEnvironment aplica encima config.<env>.yaml si existe
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if environment == "" || l.configFile != "" {
		return config, nil
	}

	l.v.SetConfigName(fmt.Sprintf("config.%s", environment))
	if err := l.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to merge environment config: %w", err)
		}
		return config, nil
	}

	return l.unmarshal()
}

// GetEnvironment determina el entorno actual desde ENV / ENVIRONMENT
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development"
	}
	return env
}
