package gmaps

import (
	"context"

	"gmaps-scraper/utils"
)

// feedDriver is the slice of a Session the scroll loader needs. Kept
// narrow so the loop's termination behavior is testable without a
// browser.
type feedDriver interface {
	CardCount(ctx context.Context) (int, error)
	EndOfList(ctx context.Context) bool
	ScrollFeed(ctx context.Context)
	Settle(ctx context.Context)
}

// stallLimit is how many consecutive scrolls may leave the card count
// unchanged before the feed counts as exhausted.
const stallLimit = 3

// LoadFeed drives the virtualized feed until targetCount cards are
// materialized, the end-of-list marker shows, the count stalls, or
// maxScrolls iterations pass. It never fails: reaching fewer cards than
// asked for is a normal terminal state, and the only observable effect
// is the returned card count.
func LoadFeed(ctx context.Context, drv feedDriver, targetCount, maxScrolls int) int {
	utils.Info("Scrolling feed, target: %d results", targetCount)

	lastCount := 0
	stalled := 0
	finalCount := 0

	for i := 0; i < maxScrolls; i++ {
		if ctx.Err() != nil {
			break
		}

		count, err := drv.CardCount(ctx)
		if err != nil {
			utils.Warn("Card count failed on scroll %d: %v", i+1, err)
			count = lastCount
		}
		finalCount = count

		if count >= targetCount {
			utils.Success("Feed reached target: %d cards", count)
			return count
		}

		if drv.EndOfList(ctx) {
			utils.Info("End of list marker visible after %d cards", count)
			return count
		}

		if count == lastCount {
			stalled++
			if stalled > stallLimit {
				utils.Info("Card count stalled at %d for %d scrolls, treating feed as exhausted", count, stalled)
				return count
			}
		} else {
			stalled = 0
		}
		lastCount = count

		drv.ScrollFeed(ctx)
		drv.Settle(ctx)
	}

	utils.Info("Scroll budget spent, final count: %d cards", finalCount)
	return finalCount
}
