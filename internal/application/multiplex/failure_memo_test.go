package multiplex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"xrates-sync-service/internal/domain/entities"
)

func TestFailureMemo(t *testing.T) {
	memo := NewFailureMemo()
	xyz := entities.NewSubscriptionKey("XYZ", "USD", entities.KindHourly)
	abc := entities.NewSubscriptionKey("ABC", "USD", entities.KindHourly)

	assert.False(t, memo.IsFailed(xyz))
	assert.True(t, memo.MarkFailed(xyz))
	assert.False(t, memo.MarkFailed(xyz))
	assert.True(t, memo.IsFailed(xyz))
	assert.False(t, memo.IsFailed(abc))

	memo.MarkFailed(abc)
	assert.Equal(t, 2, memo.Len())
	assert.Equal(t, []entities.SubscriptionKey{abc, xyz}, memo.Keys())
}

func TestFailureMemo_ConcurrentMarkOnlyOneWins(t *testing.T) {
	memo := NewFailureMemo()
	key := entities.NewSubscriptionKey("XYZ", "EUR", entities.KindWeek)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if memo.MarkFailed(key) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, memo.Len())
}
