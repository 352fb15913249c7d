package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "xrates-sync-service/docs"
	"xrates-sync-service/internal/application/multiplex"
	"xrates-sync-service/internal/application/services"
	"xrates-sync-service/internal/domain/interfaces"
	"xrates-sync-service/internal/infrastructure/config"
	"xrates-sync-service/internal/infrastructure/exchange"
	"xrates-sync-service/internal/infrastructure/exchange/kraken"
	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
	"xrates-sync-service/internal/infrastructure/provider/coingecko"
	"xrates-sync-service/internal/infrastructure/provider/coinmarketcap"
	"xrates-sync-service/internal/infrastructure/repositories/cache"
	"xrates-sync-service/internal/infrastructure/repositories/sqlstore"
	"xrates-sync-service/internal/infrastructure/web/handlers"
	"xrates-sync-service/internal/infrastructure/web/router"
	"xrates-sync-service/internal/infrastructure/web/server"
)

const serviceName = "xrates-sync-service"

// version se sobrescribe con -ldflags "-X main.version=..."
var version = "1.0.0"

// @title xrates-sync-service API
// @version 1.0
// @description Exchange rate charts kept in sync with live market data, shared across subscribers.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			log.Fatalf("Failed to render configuration: %v", err)
		}
		os.Stdout.Write(out)
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("%s stopped with error: %v", serviceName, err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = loader.WithConfigFile(path).Load()
	} else {
		cfg, err = loader.LoadForEnvironment(config.GetEnvironment())
	}
	if err != nil {
		return nil, err
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) (io.Closer, error) {
	output, closer, err := logging.OpenOutput(cfg.Logging.Output, logging.FileConfig{
		Path:       cfg.Logging.File.Path,
		MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAgeDays: cfg.Logging.File.MaxAgeDays,
		Compress:   cfg.Logging.File.Compress,
	})
	if err != nil {
		return nil, err
	}

	level := logging.LogLevelFromString(cfg.Logging.Level)
	if cfg.Development.DebugMode {
		level = logging.LevelDebug
	}

	loggerConfig := logging.NewConfig(serviceName, version, config.GetEnvironment()).
		WithLevel(level).
		WithFormat(logging.LogFormatFromString(cfg.Logging.Format)).
		WithOutput(output)
	if err := logging.InitializeGlobalLoggers(loggerConfig); err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	return closer, nil
}

// stores agrupa la persistencia elegida por storage.backend
type stores struct {
	charts  interfaces.ChartPointStore
	history interfaces.HistoricalRateStore
	pingers map[string]handlers.Pinger
	closers []io.Closer
}

func buildStores(ctx context.Context, cfg *config.Config) (*stores, *cache.MarketInfoAdapter, error) {
	backend, err := cache.New(ctx, cache.Config{
		Type:          cache.CacheType(cfg.Cache.Backend),
		RedisAddr:     cfg.Cache.Redis.Addr,
		RedisDB:       cfg.Cache.Redis.DB,
		RedisPassword: cfg.Cache.Redis.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}

	s := &stores{pingers: make(map[string]handlers.Pinger)}
	if p, ok := backend.(handlers.Pinger); ok {
		s.pingers["cache"] = p
	}
	if c, ok := backend.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := sqlstore.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			s.close()
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		s.charts, s.history = db, db
		s.pingers["store"] = db
		s.closers = append(s.closers, db)
	default:
		s.charts = cache.NewChartPointAdapter(backend)
		s.history = cache.NewHistoricalRateAdapter(backend)
	}

	return s, cache.NewMarketInfoAdapter(backend, cfg.Cache.TTL), nil
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			logging.WarnWithError(context.Background(), "Failed to close store", err, nil)
		}
	}
}

// upstream son los proveedores REST y el WebSocket de Kraken (nil si no aplica)
type upstream struct {
	charts     interfaces.ChartProvider
	latest     []interfaces.LatestRateProvider
	historical interfaces.HistoricalRateProvider
	top        interfaces.TopMarketsProvider
	ws         *kraken.WebSocketClient
}

func buildUpstream(ctx context.Context, cfg *config.Config) *upstream {
	if cfg.Development.MockMode {
		logging.Warn(ctx, "Mock mode enabled, using simulated market data", nil)
		mock := exchange.NewMockProvider()
		return &upstream{
			charts:     mock,
			latest:     []interfaces.LatestRateProvider{mock},
			historical: mock,
			top:        mock,
		}
	}

	p := cfg.Providers
	gecko := coingecko.NewProvider(coingecko.Config{
		BaseURL:        p.CoinGecko.BaseURL,
		APIKey:         p.CoinGecko.APIKey,
		Timeout:        p.CoinGecko.Timeout,
		RequestTimeout: p.CoinGecko.RequestTimeout,
		MaxRetries:     p.CoinGecko.MaxRetries,
		CoinIDs:        p.CoinGecko.CoinIDs,
	})
	u := &upstream{
		charts:     gecko,
		latest:     []interfaces.LatestRateProvider{gecko},
		historical: gecko,
	}

	if p.Kraken.Enabled {
		krakenCfg := kraken.Config{
			RestURL:              p.Kraken.RestURL,
			WebSocketURL:         p.Kraken.WebSocketURL,
			Timeout:              p.Kraken.Timeout,
			RequestTimeout:       p.Kraken.RequestTimeout,
			MaxRetries:           p.Kraken.MaxRetries,
			MaxReconnectAttempts: p.Kraken.MaxReconnectAttempts,
			SubscriberBuffer:     cfg.Multiplexer.SubscriberBuffer,
		}
		u.latest = append(u.latest, kraken.NewRestClient(krakenCfg))
		u.ws = kraken.NewWebSocketClient(krakenCfg)
	}

	if p.CoinMarketCap.APIKey != "" {
		u.top = coinmarketcap.NewProvider(coinmarketcap.Config{
			BaseURL:        p.CoinMarketCap.BaseURL,
			APIKey:         p.CoinMarketCap.APIKey,
			Timeout:        p.CoinMarketCap.Timeout,
			RequestTimeout: p.CoinMarketCap.RequestTimeout,
			MaxRetries:     p.CoinMarketCap.MaxRetries,
		})
	} else {
		logging.Info(ctx, "CoinMarketCap API key not set, top markets disabled", nil)
	}
	return u
}

func run(cfg *config.Config) error {
	logCloser, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info(ctx, "Starting service", logging.Fields{
		"version":     version,
		"environment": config.GetEnvironment(),
		"mock_mode":   cfg.Development.MockMode,
	})
	metrics.SetApplicationInfo(version, runtime.Version())

	st, rates, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	up := buildUpstream(ctx, cfg)

	marketInfo := services.NewMarketInfoService(services.MarketInfoDeps{
		Rates:      rates,
		Latest:     up.latest,
		Historical: up.historical,
		History:    st.history,
		Top:        up.top,
		Expiration: cfg.Providers.MarketInfo.ExpirationInterval,
	})
	charts := services.NewChartInfoService(up.charts, st.charts)

	// sin WebSocket el feed hace sólo polling REST
	var primary interfaces.LiveRateFeed
	if up.ws != nil {
		primary = up.ws
	}
	feed := exchange.NewFallbackRateFeed(primary, marketInfo, rates, exchange.FallbackConfig{
		PollInterval:   cfg.Providers.Kraken.FallbackPollInterval,
		RequestTimeout: cfg.Providers.Kraken.RequestTimeout,
	})

	mxConfig := multiplex.Config{
		PollInterval:      cfg.Multiplexer.PollInterval,
		EventBuffer:       cfg.Multiplexer.EventBuffer,
		SubscriberBuffer:  cfg.Multiplexer.SubscriberBuffer,
		UpdateTimeout:     cfg.Multiplexer.UpdateTimeout,
		FeedRetryInterval: cfg.Multiplexer.FeedRetryInterval,
	}
	mx := multiplex.New(multiplex.NewSchedulerFactory(charts, feed, mxConfig), mxConfig)

	handler := router.New(router.Deps{
		Health:    handlers.NewHealthHandler(st.pingers),
		Charts:    handlers.NewChartHandler(mx, cfg.Multiplexer.SnapshotTimeout),
		Rates:     handlers.NewRatesHandler(marketInfo),
		Auth:      cfg.Auth,
		RateLimit: cfg.RateLimit,
	})
	srv := server.NewServer(handler, cfg.Server.Port, cfg.Server.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logging.Info(context.Background(), "Shutting down service", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// primero se cortan las conexiones HTTP y luego los schedulers
		err := srv.Stop(shutdownCtx)
		mx.Shutdown()
		if up.ws != nil {
			if cerr := up.ws.Close(); cerr != nil {
				logging.WarnWithError(shutdownCtx, "Failed to close Kraken WebSocket", cerr, nil)
			}
		}
		return err
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logging.Info(context.Background(), "Service stopped", nil)
	return err
}
