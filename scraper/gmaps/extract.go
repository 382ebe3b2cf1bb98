package gmaps

import (
	"context"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// DetailView describes how (and whether) a card's detail view opened.
type DetailView struct {
	Reached   bool
	Navigated bool
	URL       string
}

// cardDriver is the slice of a Session the extractor needs, so one
// throwing card and the stop conditions can be exercised with a fake.
type cardDriver interface {
	CardCount(ctx context.Context) (int, error)
	CardAttached(ctx context.Context, index int) bool
	CardSummary(ctx context.Context, index int) (models.BusinessListing, error)
	OpenDetail(ctx context.Context, index int) (DetailView, error)
	DetailFields(ctx context.Context, listing *models.BusinessListing) error
	CloseDetail(ctx context.Context, navigated bool) error
}

// emptyStreakLimit stops extraction after this many consecutive indices
// that accepted nothing new — the feed has stopped producing
// distinguishable content.
const emptyStreakLimit = 3

// ExtractListings walks the materialized cards index by index and
// converts them into unique BusinessListings, visiting each card's
// detail view for the secondary fields. Detail navigation invalidates
// previously held card references, so the live card list is re-queried
// at the start of every index — that is a correctness requirement, not
// an optimization. One bad card never aborts the run.
func ExtractListings(ctx context.Context, drv cardDriver, maxResults int) []models.BusinessListing {
	results := make([]models.BusinessListing, 0, maxResults)
	seen := make(map[string]struct{}, maxResults)
	emptyStreak := 0

	for index := 0; len(results) < maxResults; index++ {
		if ctx.Err() != nil {
			break
		}

		count, err := drv.CardCount(ctx)
		if err != nil {
			utils.Warn("Card re-query failed at index %d: %v", index, err)
			break
		}
		if index >= count {
			utils.Info("Processed all %d available cards", count)
			break
		}

		accepted := extractOne(ctx, drv, index, seen, &results)
		if accepted {
			emptyStreak = 0
			utils.Success("✓ %d/%d %s", len(results), maxResults, results[len(results)-1].Name)
		} else {
			emptyStreak++
			if emptyStreak >= emptyStreakLimit {
				utils.Info("%d consecutive indices yielded nothing new, stopping", emptyStreak)
				break
			}
		}
	}

	utils.Info("Extraction finished with %d unique listings", len(results))
	return results
}

// extractOne processes a single index and reports whether it appended a
// new unique listing. Every failure inside is absorbed here.
func extractOne(ctx context.Context, drv cardDriver, index int, seen map[string]struct{}, results *[]models.BusinessListing) (accepted bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Warn("Card %d panicked: %v", index, r)
			accepted = false
		}
	}()

	if !drv.CardAttached(ctx, index) {
		utils.Warn("Card %d is detached, skipping ahead", index)
		return false
	}

	listing, err := drv.CardSummary(ctx, index)
	if err != nil {
		utils.Warn("Card %d summary failed: %v", index, err)
		return false
	}

	view, err := drv.OpenDetail(ctx, index)
	if err != nil {
		utils.Warn("Card %d detail click failed: %v", index, err)
	} else if view.Reached {
		if view.URL != "" {
			listing.MapsURL = view.URL
		}
		if err := drv.DetailFields(ctx, &listing); err != nil {
			utils.Warn("Card %d detail fields failed: %v", index, err)
		}
		if err := drv.CloseDetail(ctx, view.Navigated); err != nil {
			utils.Warn("Card %d detail close failed: %v", index, err)
		}
	}

	// A nameless card is still clicked through for its side effects but
	// never counted.
	key := listing.DedupKey()
	if key == "" {
		utils.Warn("Card %d has no name, discarding", index)
		return false
	}
	if _, dup := seen[key]; dup {
		return false
	}

	seen[key] = struct{}{}
	*results = append(*results, listing)
	return true
}
