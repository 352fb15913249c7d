package logging

import (
	"fmt"
	"sync"
)

// LoggerSet agrupa el logger base y los loggers por dominio
type LoggerSet struct {
	Base        Logger
	HTTP        HTTPLogger
	ExternalAPI ExternalAPILogger
	Cache       CacheLogger
	Feed        FeedLogger
	Security    SecurityLogger
}

// NewLoggerSet construye todos los loggers de dominio sobre un mismo base
func NewLoggerSet(base Logger) *LoggerSet {
	return &LoggerSet{
		Base:        base,
		HTTP:        NewHTTPLogger(base),
		ExternalAPI: NewExternalAPILogger(base),
		Cache:       NewCacheLogger(base),
		Feed:        NewFeedLogger(base),
		Security:    NewSecurityLogger(base),
	}
}

// NewLoggerSetFromConfig crea el logger base desde config y arma el set
func NewLoggerSetFromConfig(config *LoggerConfig) (*LoggerSet, error) {
	base, err := NewStructuredLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create base logger: %w", err)
	}
	return NewLoggerSet(base), nil
}

var (
	globalMu      sync.RWMutex
	globalLoggers *LoggerSet
)

// InitializeGlobalLoggers reemplaza el set global
func InitializeGlobalLoggers(config *LoggerConfig) error {
	set, err := NewLoggerSetFromConfig(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global loggers: %w", err)
	}
	SetGlobalLoggers(set)
	return nil
}

// SetGlobalLoggers instala un set ya construido (útil en tests)
func SetGlobalLoggers(set *LoggerSet) {
	globalMu.Lock()
	globalLoggers = set
	globalMu.Unlock()
}

// GetGlobalLoggers retorna el set global; si no fue inicializado usa la configuración por defecto
func GetGlobalLoggers() *LoggerSet {
	globalMu.RLock()
	set := globalLoggers
	globalMu.RUnlock()
	if set != nil {
		return set
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLoggers == nil {
		base, _ := NewStructuredLogger(DefaultConfig())
		globalLoggers = NewLoggerSet(base)
	}
	return globalLoggers
}

func GetGlobalLogger() Logger {
	return GetGlobalLoggers().Base
}

func SetGlobalLogLevel(level LogLevel) {
	GetGlobalLoggers().Base.SetLevel(level)
}

func NewDevelopmentConfig(service string) *LoggerConfig {
	return NewConfig(service, "dev", "development").
		WithLevel(LevelDebug).
		WithFormat(FormatText).
		WithSource(true)
}

func NewProductionConfig(service, version string) *LoggerConfig {
	return NewConfig(service, version, "production").
		WithLevel(LevelInfo).
		WithFormat(FormatJSON)
}
