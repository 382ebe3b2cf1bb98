package gmaps

import (
	"context"
	"testing"
)

// fakeFeed simulates the virtualized feed: each scroll materializes
// grow more cards up to cap, and the end marker appears at endAt cards.
type fakeFeed struct {
	count   int
	grow    int
	cap     int
	endAt   int
	scrolls int
}

func (f *fakeFeed) CardCount(ctx context.Context) (int, error) { return f.count, nil }

func (f *fakeFeed) EndOfList(ctx context.Context) bool {
	return f.endAt > 0 && f.count >= f.endAt
}

func (f *fakeFeed) ScrollFeed(ctx context.Context) {
	f.scrolls++
	f.count += f.grow
	if f.cap > 0 && f.count > f.cap {
		f.count = f.cap
	}
}

func (f *fakeFeed) Settle(ctx context.Context) {}

func TestLoadFeedReachesTarget(t *testing.T) {
	feed := &fakeFeed{grow: 5}
	got := LoadFeed(context.Background(), feed, 12, 40)
	if got < 12 {
		t.Fatalf("expected at least 12 cards, got %d", got)
	}
}

func TestLoadFeedTerminatesOnScrollBudget(t *testing.T) {
	// A feed that keeps producing one new card per scroll never
	// triggers target, end marker or stall; only the iteration bound
	// stops it.
	feed := &fakeFeed{grow: 1}
	LoadFeed(context.Background(), feed, 1000, 10)
	if feed.scrolls > 10 {
		t.Fatalf("loader scrolled %d times, budget was 10", feed.scrolls)
	}
}

func TestLoadFeedStopsAtEndOfList(t *testing.T) {
	feed := &fakeFeed{grow: 3, endAt: 9}
	got := LoadFeed(context.Background(), feed, 100, 40)
	if got < 9 {
		t.Fatalf("expected the end-marker count of 9, got %d", got)
	}
	if feed.scrolls >= 40 {
		t.Fatal("loader should stop at the end marker, not exhaust its budget")
	}
}

func TestLoadFeedStopsWhenStalled(t *testing.T) {
	// Feed is stuck at 7 cards; the loader must treat that as
	// exhaustion well before the scroll budget.
	feed := &fakeFeed{count: 7, grow: 0}
	got := LoadFeed(context.Background(), feed, 50, 40)
	if got != 7 {
		t.Fatalf("expected the stalled count of 7, got %d", got)
	}
	if feed.scrolls > stallLimit+1 {
		t.Fatalf("loader kept scrolling a stalled feed: %d scrolls", feed.scrolls)
	}
}

func TestLoadFeedHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := &fakeFeed{grow: 1}
	LoadFeed(ctx, feed, 100, 40)
	if feed.scrolls != 0 {
		t.Fatalf("cancelled context should stop the loop, got %d scrolls", feed.scrolls)
	}
}
