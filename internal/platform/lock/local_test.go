package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalShopLocker_SerialisesSameShop(t *testing.T) {
	l := NewLocalShopLocker()
	ctx := context.Background()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "u1", "s1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			_ = unlock(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Empty(t, l.slots, "slots are dropped once nobody waits on them")
}

func TestLocalShopLocker_ContextCancelled(t *testing.T) {
	l := NewLocalShopLocker()
	unlock, err := l.Lock(context.Background(), "u1", "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "u1", "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a different shop is independent
	unlockOther, err := l.Lock(context.Background(), "u1", "s2")
	require.NoError(t, err)
	require.NoError(t, unlockOther(context.Background()))

	require.NoError(t, unlock(context.Background()))
	require.NoError(t, unlock(context.Background()), "unlock is idempotent")
}
