package inventory

import (
	"context"
	"log/slog"
	"sync"
)

// Snapshot is the full balance table at one point in time.
type Snapshot []*Balance

// Loader reads the current balance snapshot.
type Loader func(ctx context.Context) (Snapshot, error)

// Feed fans balance snapshots out to subscribers.
// Each subscriber owns a one-slot mailbox holding only the latest snapshot,
// so a slow reader skips intermediate states and never blocks a publisher.
type Feed struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	load   Loader
	closed bool
}

func NewFeed(load Loader) *Feed {
	return &Feed{
		subs: make(map[*Subscription]struct{}),
		load: load,
	}
}

type Subscription struct {
	feed *Feed
	ch   chan Snapshot
	once sync.Once
}

// C delivers snapshots. It is closed when the subscription or the feed is closed.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Close() {
	s.feed.remove(s)
}

func (s *Subscription) offer(snap Snapshot) {
	select {
	case <-s.ch:
	default:
	}

	select {
	case s.ch <- snap:
	default:
	}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Subscribe registers a new observer.
func (f *Feed) Subscribe() *Subscription {
	sub := &Subscription{feed: f, ch: make(chan Snapshot, 1)}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		sub.close()
		return sub
	}

	f.subs[sub] = struct{}{}

	return sub
}

func (f *Feed) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.subs, sub)
	sub.close()
}

// Publish hands snap to every subscriber.
func (f *Feed) Publish(snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for sub := range f.subs {
		sub.offer(snap)
	}
}

// Changed reloads the snapshot and publishes it. Load failures are logged and dropped.
func (f *Feed) Changed(ctx context.Context) {
	if f.load == nil || f.subscribers() == 0 {
		return
	}

	snap, err := f.load(ctx)
	if err != nil {
		slog.Warn("failed to load balance snapshot", "error", err)
		return
	}

	f.Publish(snap)
}

func (f *Feed) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subs)
}

// Close closes every subscription. Later subscriptions are returned closed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	for sub := range f.subs {
		sub.close()
		delete(f.subs, sub)
	}
}
