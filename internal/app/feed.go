package app

import (
	"sync"

	"quiz-performance-service/internal/performance"
)

// Feed fans out fresh performance summaries to a user's live viewers.
type Feed struct {
	// refreshMu serializes compute-then-publish so viewers never see an older
	// summary after a newer one.
	refreshMu sync.Mutex

	mu          sync.Mutex
	subscribers map[chan performance.Summary]struct{}
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed() *Feed {
	return &Feed{
		subscribers: make(map[chan performance.Summary]struct{}),
	}
}

// Attach registers a new viewer channel. Feed stores call it under their own lock so a
// viewer can never join a feed that is being removed.
func (f *Feed) Attach() chan performance.Summary {
	ch := make(chan performance.Summary, 8)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

// Detach removes and closes ch. It reports whether the feed is now empty.
func (f *Feed) Detach(ch chan performance.Summary) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[ch]; ok {
		delete(f.subscribers, ch)
		close(ch)
	}
	return len(f.subscribers) == 0
}

// refresh runs compute and hands its result to deliver while holding refreshMu.
func (f *Feed) refresh(compute func() (performance.Summary, error), deliver func(performance.Summary)) error {
	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()
	summary, err := compute()
	if err != nil {
		return err
	}
	deliver(summary)
	return nil
}

func (f *Feed) publish(summary performance.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		offer(ch, summary)
	}
}

// send delivers to a single viewer if it is still attached.
func (f *Feed) send(ch chan performance.Summary, summary performance.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[ch]; ok {
		offer(ch, summary)
	}
}

// offer never blocks: a slow viewer loses its oldest pending summary.
func offer(ch chan performance.Summary, summary performance.Summary) {
	select {
	case ch <- summary:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- summary
	}
}
