package app

import (
	"sync"

	"millionaire-service/internal/domain"
)

// Feed fans leaderboard snapshots out to subscribers.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func newFeed() *Feed {
	return &Feed{subscribers: make(map[chan domain.Leaderboard]struct{})}
}

func (f *Feed) subscribe(initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: drop its oldest snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (f *Feed) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
