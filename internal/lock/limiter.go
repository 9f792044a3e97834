package lock

import (
	"context"
	"sync"
)

// Limiter не даёт двум операциям с одним ключом выполняться одновременно.
// Разные ключи не блокируют друг друга.
type Limiter struct {
	mu    sync.Mutex
	byKey map[string]*entry
}

type entry struct {
	ch   chan struct{} // буфер 1: занятость слота
	refs int
}

func New() *Limiter {
	return &Limiter{byKey: make(map[string]*entry)}
}

func (l *Limiter) acquire(key string) *entry {
	l.mu.Lock()
	e, ok := l.byKey[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.byKey[key] = e
	}
	e.refs++
	l.mu.Unlock()
	return e
}

func (l *Limiter) release(key string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.byKey, key)
	}
	l.mu.Unlock()
}

// Lock ждёт освобождения ключа или отмены контекста. Возвращает функцию unlock.
func (l *Limiter) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquire(key)
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// Len — число ключей, которые сейчас удерживаются или ожидаются.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
