package app

import (
	"context"
	"sync"
	"testing"
)

func TestLocalLockerSerializesKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "game:1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}

	l := locker.(*localLocker)
	if len(l.locks) != 0 {
		t.Fatalf("expected lock entries released, got %d", len(l.locks))
	}
}

func TestLocalLockerUnlockTwice(t *testing.T) {
	locker := NewLocalLocker()
	unlock, _ := locker.Lock(context.Background(), "k")
	unlock()
	unlock()
	again, _ := locker.Lock(context.Background(), "k")
	again()
}

func TestFeedDropsStaleUpdates(t *testing.T) {
	feed := newFeed()
	ch, cancel := feed.subscribe(domainLeaderboard(0))
	defer cancel()

	for i := 1; i <= 20; i++ {
		feed.publish(domainLeaderboard(i))
	}
	var last int
	for len(ch) > 0 {
		lb := <-ch
		last = lb.Entries[0].Balance
	}
	if last != 20 {
		t.Fatalf("expected newest snapshot last, got %d", last)
	}

	cancel()
	if feed.size() != 0 {
		t.Fatalf("expected no subscribers after cancel")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
}
