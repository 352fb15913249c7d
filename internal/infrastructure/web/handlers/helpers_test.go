package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"xrates-sync-service/internal/application/multiplex"
	"xrates-sync-service/internal/domain/entities"
)

// scriptedDriver publica lo que indique el script de su clave al arrancar
type scriptedDriver struct {
	key       entities.SubscriptionKey
	sink      multiplex.Sink
	script    func(key entities.SubscriptionKey, sink multiplex.Sink, stop <-chan struct{})
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

func (d *scriptedDriver) Start() {
	d.startOnce.Do(func() {
		go d.script(d.key, d.sink, d.stop)
	})
}

func (d *scriptedDriver) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func newTestMultiplexer(script func(key entities.SubscriptionKey, sink multiplex.Sink, stop <-chan struct{})) *multiplex.Multiplexer {
	factory := func(key entities.SubscriptionKey, sink multiplex.Sink) multiplex.Driver {
		return &scriptedDriver{key: key, sink: sink, script: script, stop: make(chan struct{})}
	}
	return multiplex.New(factory, multiplex.Config{})
}

func sampleChart(key entities.SubscriptionKey) *entities.ChartInfo {
	points := []entities.ChartPoint{
		{Value: decimal.NewFromInt(100), Volume: decimal.Zero, Timestamp: 1_700_000_000},
		{Value: decimal.NewFromInt(110), Volume: decimal.Zero, Timestamp: 1_700_003_600},
	}
	return entities.NewChartInfo(key, points, time.Unix(1_700_003_600, 0))
}

// chartScript: BTC publica cada 20ms hasta Stop, NONE responde sin datos, SLOW nunca publica
func chartScript(key entities.SubscriptionKey, sink multiplex.Sink, stop <-chan struct{}) {
	switch key.AssetID {
	case "NONE":
		sink.NoData(key, fmt.Errorf("%w: %s", entities.ErrNoChartInfo, key))
	case "SLOW":
		<-stop
	default:
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		sink.Publish(key, sampleChart(key))
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sink.Publish(key, sampleChart(key))
			}
		}
	}
}

// chartSourceFunc adapta una función a interfaces.UpdateSource
type chartSourceFunc func(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error)

func (f chartSourceFunc) Update(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error) {
	return f(ctx, key, latest)
}

func chartRouter(h *ChartHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/charts/{asset}/{currency}/{kind}", h.GetChart)
	r.HandleFunc("/api/v1/charts/{asset}/{currency}/{kind}/stream", h.StreamChart)
	r.HandleFunc("/api/v1/subscriptions", h.GetSubscriptions)
	return r
}

type fakeMarketInfoService struct {
	latest     *entities.MarketInfo
	latestErr  error
	historical *entities.HistoricalRate
	histErr    error
	top        []*entities.TopMarket
	topErr     error

	gotAt    time.Time
	gotLimit int
	gotCur   string
}

func (f *fakeMarketInfoService) Latest(_ context.Context, asset, currency string) (*entities.MarketInfo, error) {
	f.gotCur = currency
	return f.latest, f.latestErr
}

func (f *fakeMarketInfoService) Historical(_ context.Context, asset, currency string, at time.Time) (*entities.HistoricalRate, error) {
	f.gotAt = at
	return f.historical, f.histErr
}

func (f *fakeMarketInfoService) TopMarkets(_ context.Context, limit int, currency string) ([]*entities.TopMarket, error) {
	f.gotLimit = limit
	f.gotCur = currency
	return f.top, f.topErr
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var errPingFailed = errors.New("connection refused")
