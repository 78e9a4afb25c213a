package service

import (
	"context"
	"sync"
)

// keyedLock serializes work per key so concurrent uploads for the same chat
// user run one at a time. Acquire blocks until the key frees up or the
// context is done. Release must only follow a successful Acquire.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]*lockSlot)}
}

// Acquire takes the lock for key, waiting behind any current holder.
func (l *keyedLock) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.drop(key, false)
		return ctx.Err()
	}
}

// Release frees the lock for key.
func (l *keyedLock) Release(key string) {
	l.drop(key, true)
}

// drop removes one reference to the key's slot; held marks whether the
// caller owns the token. Slots are discarded once nobody holds or waits.
func (l *keyedLock) drop(key string, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		return
	}
	if held {
		<-slot.ch
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
