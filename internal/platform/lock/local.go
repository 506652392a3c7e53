package lock

import (
	"context"
	"sync"

	"github.com/SscSPs/khata_backend/internal/core/ports/repositories"
)

// LocalShopLocker serialises work per shop within one process.
type LocalShopLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{} // holds one token while locked
	refs int
}

// NewLocalShopLocker creates an in-process locker.
func NewLocalShopLocker() *LocalShopLocker {
	return &LocalShopLocker{slots: make(map[string]*slot)}
}

var _ repositories.ShopLocker = (*LocalShopLocker)(nil)

// Lock blocks until the shop is free or ctx is done.
func (l *LocalShopLocker) Lock(ctx context.Context, userID, shopID string) (func(context.Context) error, error) {
	key := userID + ":" + shopID

	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
		return nil
	}, nil
}

func (l *LocalShopLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
