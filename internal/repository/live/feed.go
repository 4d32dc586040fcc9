// Package live fans out full-result snapshots to live subscribers keyed by owner.
//
// Delivery is latest-wins: each subscriber holds at most one pending value and a
// newer publish replaces an unread one, so slow readers skip intermediate states
// but always observe the most recent one.
package live

import (
	"context"
	"sort"
	"sync"
)

type subscriber[T any] struct {
	ch chan T
}

// Feed routes published values to the subscribers of a key.
type Feed[T any] struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber[T]]struct{}
}

// NewFeed returns an empty Feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[string]map[*subscriber[T]]struct{})}
}

// Subscribe registers a subscriber for key. The returned channel is closed once ctx is done.
func (f *Feed[T]) Subscribe(ctx context.Context, key string) <-chan T {
	s := &subscriber[T]{ch: make(chan T, 1)}
	f.mu.Lock()
	if f.subs[key] == nil {
		f.subs[key] = make(map[*subscriber[T]]struct{})
	}
	f.subs[key][s] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(key, s)
	}()
	return s.ch
}

func (f *Feed[T]) remove(key string, s *subscriber[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.subs[key]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(f.subs, key)
	}
	close(s.ch)
}

// Publish delivers v to every current subscriber of key.
func (f *Feed[T]) Publish(key string, v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs[key] {
		Offer(s.ch, v)
	}
}

// Keys returns the keys that currently have at least one subscriber, sorted.
func (f *Feed[T]) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.subs))
	for k := range f.subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key has subscribers.
func (f *Feed[T]) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[key]) > 0
}

// Offer puts v on a buffered channel, dropping a value still waiting to be read.
// ch must have capacity of at least one and a single sender.
func Offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
