package multiplex

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"xrates-sync-service/internal/domain/entities"
)

// fakeDriver cuenta arranques y paradas
type fakeDriver struct {
	key    entities.SubscriptionKey
	sink   Sink
	starts atomic.Int32
	stops  atomic.Int32
}

func (d *fakeDriver) Start() { d.starts.Add(1) }
func (d *fakeDriver) Stop()  { d.stops.Add(1) }

type driverRecorder struct {
	mu      sync.Mutex
	drivers []*fakeDriver
}

func (r *driverRecorder) factory(key entities.SubscriptionKey, sink Sink) Driver {
	d := &fakeDriver{key: key, sink: sink}
	r.mu.Lock()
	r.drivers = append(r.drivers, d)
	r.mu.Unlock()
	return d
}

func (r *driverRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drivers)
}

func (r *driverRecorder) last() *fakeDriver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.drivers) == 0 {
		return nil
	}
	return r.drivers[len(r.drivers)-1]
}

// sourceFunc adapta una función a UpdateSource
type sourceFunc func(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error)

func (f sourceFunc) Update(ctx context.Context, key entities.SubscriptionKey, latest *entities.MarketInfo) (*entities.ChartInfo, error) {
	return f(ctx, key, latest)
}

// fakeFeed entrega un canal controlado por el test
type fakeFeed struct {
	mu    sync.Mutex
	ch    chan *entities.MarketInfo
	err   error
	calls int
}

func (f *fakeFeed) Subscribe(ctx context.Context, asset, currency string) (<-chan *entities.MarketInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingSink guarda lo que publica un scheduler
type recordingSink struct {
	mu        sync.Mutex
	published []*entities.ChartInfo
	noData    []error
}

func (s *recordingSink) Publish(_ entities.SubscriptionKey, info *entities.ChartInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, info)
}

func (s *recordingSink) NoData(_ entities.SubscriptionKey, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noData = append(s.noData, err)
}

func (s *recordingSink) publishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *recordingSink) noDataCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.noData)
}

func chartAt(key entities.SubscriptionKey, ts int64) *entities.ChartInfo {
	return &entities.ChartInfo{Key: key, StartTimestamp: ts, EndTimestamp: ts, UpdatedAt: time.Unix(ts, 0)}
}

func testConfig() Config {
	return Config{
		PollInterval:      10 * time.Millisecond,
		EventBuffer:       4,
		SubscriberBuffer:  8,
		UpdateTimeout:     time.Second,
		FeedRetryInterval: 20 * time.Millisecond,
	}
}

func receive(ch <-chan *entities.ChartInfo, timeout time.Duration) (*entities.ChartInfo, bool) {
	select {
	case info, ok := <-ch:
		return info, ok
	case <-time.After(timeout):
		return nil, false
	}
}
