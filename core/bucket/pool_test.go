package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"artifact-store/core/bucket"

	"github.com/stretchr/testify/assert"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := bucket.NewPool(3)
	assert.Equal(t, 3, pool.Size())

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := bucket.Submit(context.Background(), pool, func() (int, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return i, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, i, v)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Positive(t, atomic.LoadInt32(&peak))
}

func TestPool_CanceledWhileWaitingForSlot(t *testing.T) {
	pool := bucket.NewPool(1)
	release := make(chan struct{})

	go func() {
		_, _ = bucket.Submit(context.Background(), pool, func() (int, error) {
			<-release
			return 0, nil
		})
	}()
	defer close(release)

	// let the first call take the only slot
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := bucket.Submit(ctx, pool, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
