package multiplex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xrates-sync-service/internal/domain/entities"
)

func TestBroadcast_PublishReachesAllReaders(t *testing.T) {
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	b := newBroadcast(key.Kind, 4)

	r1 := b.attach()
	r2 := b.attach()

	assert.Equal(t, 2, b.publish(chartAt(key, 100)))

	for _, r := range []*reader{r1, r2} {
		info := <-r.ch
		assert.Equal(t, int64(100), info.EndTimestamp)
	}
}

func TestBroadcast_NoReplay(t *testing.T) {
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	b := newBroadcast(key.Kind, 4)

	r1 := b.attach()
	b.publish(chartAt(key, 100))

	r2 := b.attach()
	b.publish(chartAt(key, 105))

	assert.Len(t, r1.ch, 2)
	require.Len(t, r2.ch, 1)
	assert.Equal(t, int64(105), (<-r2.ch).EndTimestamp)
}

func TestBroadcast_SlowReaderDropsOldest(t *testing.T) {
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	b := newBroadcast(key.Kind, 2)
	r := b.attach()

	b.publish(chartAt(key, 1))
	b.publish(chartAt(key, 2))
	b.publish(chartAt(key, 3))

	require.Len(t, r.ch, 2)
	assert.Equal(t, int64(2), (<-r.ch).EndTimestamp)
	assert.Equal(t, int64(3), (<-r.ch).EndTimestamp)
}

func TestBroadcast_FailTerminatesEveryReaderOnce(t *testing.T) {
	key := entities.NewSubscriptionKey("XYZ", "USD", entities.KindHourly)
	b := newBroadcast(key.Kind, 2)
	r1 := b.attach()
	r2 := b.attach()

	failure := errors.New("boom")
	b.fail(failure)
	b.fail(errors.New("second"))
	b.complete()

	for _, r := range []*reader{r1, r2} {
		_, ok := <-r.ch
		assert.False(t, ok)
		assert.Equal(t, failure, r.Err())
	}

	assert.Equal(t, 0, b.publish(chartAt(key, 1)))

	late := b.attach()
	_, ok := <-late.ch
	assert.False(t, ok)
	assert.Equal(t, failure, late.Err())
}

func TestBroadcast_DetachLeavesOthers(t *testing.T) {
	key := entities.NewSubscriptionKey("BTC", "USD", entities.KindHourly)
	b := newBroadcast(key.Kind, 2)
	r1 := b.attach()
	r2 := b.attach()

	b.detach(r1)
	assert.Equal(t, 1, b.size())
	assert.Equal(t, 1, b.publish(chartAt(key, 1)))

	_, ok := <-r1.ch
	assert.False(t, ok)
	assert.NoError(t, r1.Err())
	assert.Len(t, r2.ch, 1)

	b.complete()
	assert.True(t, b.isClosed())
}
