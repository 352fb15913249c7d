package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"xrates-sync-service/internal/infrastructure/logging"
	"xrates-sync-service/internal/infrastructure/metrics"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultRequestTimeout = 5 * time.Second
	DefaultMaxRetries     = 3
	BaseBackoff           = 200 * time.Millisecond
	MaxBackoff            = 3 * time.Second
)

// ClientConfig configura un cliente JSON con reintentos
type ClientConfig struct {
	Service        string
	BaseURL        string
	Timeout        time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	Headers        map[string]string
	BaseBackoff    time.Duration
	// RequestsPerSecond limita las llamadas salientes; 0 desactiva el límite
	RequestsPerSecond float64
	Burst             int
}

// Client hace GETs JSON a un proveedor con reintentos exponenciales sobre errores retryables
type Client struct {
	service        string
	baseURL        string
	httpClient     *http.Client
	headers        map[string]string
	requestTimeout time.Duration
	maxRetries     uint
	baseBackoff    time.Duration
	limiter        *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = BaseBackoff
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		if cfg.Burst <= 0 {
			cfg.Burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	return &Client{
		service:        cfg.Service,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		headers:        cfg.Headers,
		requestTimeout: cfg.RequestTimeout,
		maxRetries:     uint(cfg.MaxRetries),
		baseBackoff:    cfg.BaseBackoff,
		limiter:        limiter,
	}
}

// GetJSON hace GET baseURL+path?query y decodifica en out.
// endpoint es la etiqueta de baja cardinalidad usada en métricas y logs.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, query url.Values, out interface{}) error {
	err := retry.Do(
		func() error {
			if err := c.wait(ctx, endpoint); err != nil {
				return err
			}
			reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
			defer cancel()
			return c.do(reqCtx, endpoint, path, query, out)
		},
		retry.Attempts(c.maxRetries),
		retry.Delay(c.baseBackoff),
		retry.MaxDelay(MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordExternalAPIRetry(c.service, endpoint)
			logging.Warn(ctx, "Provider retry attempt", logging.Fields{
				logging.FieldExternalService:  c.service,
				logging.FieldExternalEndpoint: endpoint,
				"attempt":                     n + 1,
				"max_attempts":                c.maxRetries,
				logging.FieldError:            err.Error(),
			})
		}),
	)
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.service, endpoint, err)
	}
	return nil
}

// wait respeta el límite de llamadas del proveedor. Un error aquí no se reintenta.
func (c *Client) wait(ctx context.Context, endpoint string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		logging.Warn(ctx, "Provider rate limit wait aborted", logging.Fields{
			logging.FieldExternalService:  c.service,
			logging.FieldExternalEndpoint: endpoint,
			logging.FieldError:            err.Error(),
		})
		return fmt.Errorf("%w: rate limit wait: %v", ErrNonRetryable, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrNonRetryable, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	logging.ExternalAPI().RequestStarted(ctx, c.service, endpoint, http.MethodGet)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Nanoseconds()) / 1e6

	if err != nil {
		metrics.RecordExternalAPICall(c.service, endpoint, 0, elapsed.Seconds())
		logging.ExternalAPI().RequestFailed(ctx, c.service, endpoint, 0, err, durationMs)
		return fmt.Errorf("%w: %v", ErrRetryableRequest, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordExternalAPICall(c.service, endpoint, resp.StatusCode, elapsed.Seconds())
	logging.ExternalRequest(ctx, c.service, endpoint, durationMs, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP 404", ErrNoData)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP 429 (rate limited)", ErrRetryableRequest)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d (server error)", ErrRetryableRequest, resp.StatusCode)
	default:
		return fmt.Errorf("%w: HTTP %d (client error)", ErrNonRetryable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrRetryableRequest, err)
	}
	return nil
}

// IsRetryable decide si un error amerita otro intento
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRetryableRequest) || errors.Is(err, context.DeadlineExceeded)
}
