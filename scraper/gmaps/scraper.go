package gmaps

import (
	"context"
	"net/url"
	"time"

	"gmaps-scraper/config"
	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// Scraper runs one full scrape session per query: session bootstrap,
// navigation, consent handling, scroll-to-target, extraction, cleanup.
// Each Run owns its own browser; Scraper itself is stateless and safe
// for concurrent Runs.
type Scraper struct {
	cfg *config.Config
}

func NewScraper(cfg *config.Config) *Scraper {
	return &Scraper{cfg: cfg}
}

// Run executes the pipeline for a single query and always produces
// exactly one ScrapeResult — internal failures are converted into a
// failed result, never raised. Browser resources are released on every
// path.
func (s *Scraper) Run(ctx context.Context, query string, maxResults int) models.ScrapeResult {
	utils.Info("Starting scrape for query: %q (max %d)", query, maxResults)

	session, err := NewSession(ctx, s.cfg)
	if err != nil {
		utils.Error("Scrape failed for %q: %v", query, err)
		return models.FailedResult(query, err.Error())
	}
	defer session.Close()

	fail := func(err error) models.ScrapeResult {
		utils.Error("Scrape failed for %q: %v", query, err)
		session.Screenshot(ctx, "error_state_"+query)
		return models.FailedResult(query, err.Error())
	}

	// Establish the session on the homepage first; arriving at a deep
	// search URL with no history is a bot tell.
	if err := session.Navigate(ctx, s.cfg.BaseURL); err != nil {
		return fail(err)
	}
	session.DismissConsent(ctx)
	session.SimulateHumanPacing(ctx)

	searchURL := s.cfg.SearchURL + url.QueryEscape(query)
	utils.Info("Navigating to %s", searchURL)
	if err := session.Navigate(ctx, searchURL); err != nil {
		return fail(err)
	}
	session.DismissConsent(ctx)
	session.SimulateHumanPacing(ctx)

	if err := session.WaitForResults(ctx); err != nil {
		return fail(err)
	}

	LoadFeed(ctx, session, maxResults, s.cfg.MaxScrolls)
	session.Screenshot(ctx, "loaded_results_"+query)

	businesses := ExtractListings(ctx, session, maxResults)

	utils.Success("Scraped %d businesses for query: %q", len(businesses), query)
	return models.ScrapeResult{
		Query:      query,
		Businesses: businesses,
		TotalFound: len(businesses),
		Success:    true,
		ScrapedAt:  time.Now().UTC(),
	}
}
