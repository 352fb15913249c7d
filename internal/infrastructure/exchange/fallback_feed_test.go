package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/domain/entities"
	"xrates-sync-service/internal/infrastructure/exchange/kraken"
)

type fakePrimary struct {
	ch    chan *entities.MarketInfo
	err   error
	calls atomic.Int32
}

func (f *fakePrimary) Subscribe(ctx context.Context, asset, currency string) (<-chan *entities.MarketInfo, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

// fakeLookup devuelve una cotización con timestamp creciente en cada llamada
type fakeLookup struct {
	calls  atomic.Int32
	frozen bool
	err    error
}

func (f *fakeLookup) Latest(ctx context.Context, asset, currency string) (*entities.MarketInfo, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	ts := int64(1_000)
	if !f.frozen {
		ts += int64(n)
	}
	return &entities.MarketInfo{Asset: asset, Currency: currency, Rate: decimal.NewFromInt(int64(n)), Timestamp: ts, Source: "rest"}, nil
}

type recordingWriter struct {
	mu    sync.Mutex
	infos []*entities.MarketInfo
}

func (w *recordingWriter) Set(ctx context.Context, info *entities.MarketInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.infos = append(w.infos, info)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.infos)
}

func liveInfo(ts int64, rate string) *entities.MarketInfo {
	return &entities.MarketInfo{Asset: "BTC", Currency: "USD", Rate: decimal.RequireFromString(rate), Timestamp: ts, Source: "ws"}
}

func next(t *testing.T, ch <-chan *entities.MarketInfo) *entities.MarketInfo {
	t.Helper()
	select {
	case info, ok := <-ch:
		require.True(t, ok, "feed closed")
		return info
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for feed value")
		return nil
	}
}

func TestFallbackRateFeed_ForwardsLiveValues(t *testing.T) {
	primary := &fakePrimary{ch: make(chan *entities.MarketInfo, 4)}
	lookup := &fakeLookup{}
	writer := &recordingWriter{}
	feed := NewFallbackRateFeed(primary, lookup, writer, FallbackConfig{PollInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := feed.Subscribe(ctx, "btc", "usd")
	require.NoError(t, err)

	primary.ch <- liveInfo(10, "100")
	assert.Equal(t, "100", next(t, out).Rate.String())

	primary.ch <- liveInfo(11, "101")
	assert.Equal(t, "101", next(t, out).Rate.String())

	assert.Equal(t, 2, writer.count())
	assert.Equal(t, int32(0), lookup.calls.Load())
}

func TestFallbackRateFeed_PollsWhenPrimaryUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakePrimary
	}{
		{"subscribe error", &fakePrimary{err: kraken.ErrConnectionFailed}},
		{"primary disabled", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{}
			var feed *FallbackRateFeed
			if tt.primary == nil {
				feed = NewFallbackRateFeed(nil, lookup, nil, FallbackConfig{PollInterval: 10 * time.Millisecond})
			} else {
				feed = NewFallbackRateFeed(tt.primary, lookup, nil, FallbackConfig{PollInterval: 10 * time.Millisecond})
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			out, err := feed.Subscribe(ctx, "BTC", "USD")
			require.NoError(t, err)

			first := next(t, out)
			second := next(t, out)
			assert.Equal(t, "rest", first.Source)
			assert.Greater(t, second.Timestamp, first.Timestamp)
		})
	}
}

func TestFallbackRateFeed_ClosedPrimarySwitchesToPolling(t *testing.T) {
	primary := &fakePrimary{ch: make(chan *entities.MarketInfo)}
	lookup := &fakeLookup{}
	feed := NewFallbackRateFeed(primary, lookup, nil, FallbackConfig{PollInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := feed.Subscribe(ctx, "BTC", "USD")
	require.NoError(t, err)

	close(primary.ch)

	info := next(t, out)
	assert.Equal(t, "rest", info.Source)
	assert.Equal(t, int32(1), lookup.calls.Load())
}

// Un WebSocket que acepta y cierra enseguida no debe generar reconexiones ni consultas sin pausa
func TestFallbackRateFeed_FlappingPrimaryIsPaced(t *testing.T) {
	closed := make(chan *entities.MarketInfo)
	close(closed)
	primary := &fakePrimary{ch: closed}
	lookup := &fakeLookup{}
	feed := NewFallbackRateFeed(primary, lookup, nil, FallbackConfig{PollInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := feed.Subscribe(ctx, "BTC", "USD")
	require.NoError(t, err)

	assert.Equal(t, "rest", next(t, out).Source)

	time.Sleep(300 * time.Millisecond)

	// ~6 intervalos: una reconexión y una consulta por intervalo, con margen
	assert.LessOrEqual(t, primary.calls.Load(), int32(10))
	assert.LessOrEqual(t, lookup.calls.Load(), int32(10))
	assert.GreaterOrEqual(t, lookup.calls.Load(), int32(2))
}

func TestFallbackRateFeed_StalePrimaryTriggersPoll(t *testing.T) {
	primary := &fakePrimary{ch: make(chan *entities.MarketInfo)}
	lookup := &fakeLookup{}
	feed := NewFallbackRateFeed(primary, lookup, nil, FallbackConfig{PollInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := feed.Subscribe(ctx, "BTC", "USD")
	require.NoError(t, err)

	assert.Equal(t, "rest", next(t, out).Source)
}

func TestFallbackRateFeed_SkipsValuesThatDoNotAdvance(t *testing.T) {
	lookup := &fakeLookup{frozen: true}
	feed := NewFallbackRateFeed(nil, lookup, nil, FallbackConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := feed.Subscribe(ctx, "BTC", "USD")
	require.NoError(t, err)

	next(t, out)
	require.Eventually(t, func() bool { return lookup.calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)

	select {
	case info := <-out:
		t.Fatalf("unexpected duplicate value %v", info)
	default:
	}
}

func TestFallbackRateFeed_CancelClosesChannel(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("down")}
	feed := NewFallbackRateFeed(nil, lookup, nil, FallbackConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	out, err := feed.Subscribe(ctx, "BTC", "USD")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("feed channel not closed after cancel")
	}
}

func TestFallbackReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "unknown"},
		{fmt.Errorf("x: %w", kraken.ErrInvalidPair), "unsupported_pair"},
		{kraken.ErrWebSocketClosed, "connection_closed"},
		{fmt.Errorf("dial: %w", kraken.ErrConnectionFailed), "connection_error"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("boom"), "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackReason(tt.err))
		})
	}
}
