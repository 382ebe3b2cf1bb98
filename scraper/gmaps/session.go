package gmaps

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"gmaps-scraper/config"
	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// Session owns one browser process and one page. All navigation and
// interaction for a single scrape run goes through it; Close releases
// the page and the browser regardless of how the run ended.
type Session struct {
	cfg         *config.Config
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// NewSession launches Chrome with the stealth launch options and opens
// one tab. The returned session is bound to parent: cancelling it tears
// the whole browser down.
func NewSession(parent context.Context, cfg *config.Config) (*Session, error) {
	utils.Info("Launching Chrome browser...")

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, utils.StealthOpts(cfg.Headless)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Registering the fingerprint mask also forces the browser process
	// to start now, so a broken Chrome install fails here instead of
	// mid-run. The mask must be in place before the first navigation.
	startCtx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx, utils.InstallFingerprintMask()); err != nil {
		tabCancel()
		allocCancel()
		return nil, &SessionInitError{Err: err}
	}

	utils.Success("Browser ready")
	return &Session{
		cfg:         cfg,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}, nil
}

// Close releases the page and the browser process.
func (s *Session) Close() {
	utils.Info("Closing browser...")
	s.tabCancel()
	s.allocCancel()
}

// Navigate loads url with a bounded DOM-ready wait, retrying with
// jittered backoff on any failure. Returns a NavigationError carrying
// the last underlying error once the attempt budget is spent.
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := utils.Retry(s.cfg.NavRetries, func() error {
		navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
		defer cancel()
		return chromedp.Run(navCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			utils.HideWebDriver(),
		)
	})
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// consentProbe is one strategy for finding and clicking a consent
// button. It reports whether it clicked anything; its error is always
// swallowed by the caller.
type consentProbe struct {
	name   string
	script string
}

func consentProbes() []consentProbe {
	probes := make([]consentProbe, 0, len(consentAttributeSelectors)+1)
	for _, sel := range consentAttributeSelectors {
		script := fmt.Sprintf(`(() => {
			const btn = document.querySelector(%q);
			if (!btn || btn.offsetParent === null) return false;
			btn.scrollIntoView({ block: 'center' });
			btn.click();
			return true;
		})()`, sel)
		probes = append(probes, consentProbe{name: sel, script: script})
	}

	texts, _ := json.Marshal(consentTexts)
	textScript := fmt.Sprintf(`(() => {
		const wanted = %s;
		for (const btn of document.querySelectorAll('button, [role="button"]')) {
			if (btn.offsetParent === null) continue;
			const label = (btn.textContent || '').trim();
			if (wanted.some(t => label === t || label.startsWith(t + ' '))) {
				btn.click();
				return true;
			}
		}
		return false;
	})()`, texts)
	probes = append(probes, consentProbe{name: "text fallback", script: textScript})

	return probes
}

// DismissConsent walks the consent probe chain and reports whether a
// prompt was found and dismissed. No prompt is a normal outcome; a
// probe that errors is skipped, never surfaced.
func (s *Session) DismissConsent(ctx context.Context) bool {
	time.Sleep(time.Second)

	for _, probe := range consentProbes() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		var clicked bool
		err := chromedp.Run(probeCtx, chromedp.Evaluate(probe.script, &clicked))
		cancel()
		if err != nil {
			continue
		}
		if clicked {
			utils.Info("Dismissed consent prompt via %s", probe.name)
			time.Sleep(2 * time.Second)
			return true
		}
	}

	utils.Info("No consent prompt found")
	return false
}

// SimulateHumanPacing injects randomized pointer movement and short
// pauses between major steps. Bots move in straight lines and zero
// delays; this doesn't.
func (s *Session) SimulateHumanPacing(ctx context.Context) {
	moves := 2 + rand.Intn(3)
	for i := 0; i < moves; i++ {
		x := float64(100 + rand.Intn(900))
		y := float64(100 + rand.Intn(500))
		moveCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_ = chromedp.Run(moveCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}))
		cancel()
		utils.RandomDelay(200*time.Millisecond, 800*time.Millisecond)
	}
}

// WaitForResults is the required checkpoint after the search
// navigation: at least one known results-container selector must
// attach. Exhausting the probe list is fatal to the run.
func (s *Session) WaitForResults(ctx context.Context) error {
	for i, sel := range resultsContainerSelectors {
		timeout := 20 * time.Second
		if i > 0 {
			timeout = 3 * time.Second
		}
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancel()
		if err == nil {
			if i > 0 {
				utils.Info("Found results via alternative selector: %s", sel)
			}
			return nil
		}
	}
	return &SelectorTimeoutError{Selector: strings.Join(resultsContainerSelectors, ", ")}
}

// Location returns the page's current URL, empty on failure.
func (s *Session) Location(ctx context.Context) string {
	var url string
	locCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(locCtx, chromedp.Location(&url)); err != nil {
		return ""
	}
	return url
}

// Screenshot writes a full-page PNG into the screenshot directory,
// named by label and timestamp. Diagnostics only: failures are logged
// and swallowed.
func (s *Session) Screenshot(ctx context.Context, label string) {
	var buf []byte
	shotCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, 80)); err != nil {
		utils.Warn("Screenshot %q failed: %v", label, err)
		return
	}

	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0755); err != nil {
		utils.Warn("Could not create screenshot dir: %v", err)
		return
	}

	name := fmt.Sprintf("%s_%s.png", safeFileName(label), time.Now().Format("20060102_150405"))
	path := filepath.Join(s.cfg.ScreenshotDir, name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		utils.Warn("Could not write screenshot: %v", err)
		return
	}
	utils.Info("Screenshot saved: %s", path)
}

// --- feedDriver implementation ---

func (s *Session) CardCount(ctx context.Context) (int, error) {
	var count int
	countCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(countCtx, chromedp.Evaluate(cardCountScript, &count)); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Session) EndOfList(ctx context.Context) bool {
	var done bool
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.Evaluate(endOfListScript, &done)); err != nil {
		return false
	}
	return done
}

// ScrollFeed hovers the feed and issues a wheel delta against it, then
// falls through the JS scroll tier chain if the wheel had no effect.
// Never returns an error; a scroll that moved nothing is reported by
// the next CardCount staying flat.
func (s *Session) ScrollFeed(ctx context.Context) {
	scrollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Wheel input against the feed's center looks like a trackpad; the
	// JS tiers below are the fallback when the feed isn't hittable.
	var rect []float64
	rectScript := `(() => {
		const feed = document.querySelector('div[role="feed"]');
		if (!feed) return [];
		const r = feed.getBoundingClientRect();
		return [r.left + r.width / 2, r.top + r.height / 2];
	})()`
	if err := chromedp.Run(scrollCtx, chromedp.Evaluate(rectScript, &rect)); err == nil && len(rect) == 2 {
		_ = chromedp.Run(scrollCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			if err := input.DispatchMouseEvent(input.MouseMoved, rect[0], rect[1]).Do(ctx); err != nil {
				return err
			}
			return input.DispatchMouseEvent(input.MouseWheel, rect[0], rect[1]).
				WithDeltaX(0).WithDeltaY(500).Do(ctx)
		}))
	}

	var scrolled bool
	if err := chromedp.Run(scrollCtx, chromedp.Evaluate(scrollFeedScript, &scrolled)); err != nil {
		utils.Warn("Feed scroll evaluate failed: %v", err)
		return
	}
	if !scrolled {
		utils.Warn("All scroll tiers fell through to window scroll")
	}
}

func (s *Session) Settle(ctx context.Context) {
	select {
	case <-time.After(s.cfg.ScrollSettle):
	case <-ctx.Done():
	}
}

// --- cardDriver implementation ---

func (s *Session) CardAttached(ctx context.Context, index int) bool {
	script := fmt.Sprintf(`(() => {
		const cards = document.querySelectorAll('div.Nv2PK');
		return %d < cards.length && cards[%d].isConnected;
	})()`, index, index)

	var attached bool
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.Evaluate(script, &attached)); err != nil {
		return false
	}
	return attached
}

type rawSummary struct {
	Found     bool   `json:"found"`
	Connected bool   `json:"connected"`
	Name      string `json:"name"`
	Rating    string `json:"rating"`
	Reviews   string `json:"reviews"`
	Category  string `json:"category"`
	Address   string `json:"address"`
	URL       string `json:"url"`
}

func (s *Session) CardSummary(ctx context.Context, index int) (models.BusinessListing, error) {
	var payload string
	sumCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	script := fmt.Sprintf(cardSummaryScript, index)
	if err := chromedp.Run(sumCtx, chromedp.Evaluate(script, &payload)); err != nil {
		return models.BusinessListing{}, fmt.Errorf("card %d summary: %w", index, err)
	}

	var raw rawSummary
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return models.BusinessListing{}, fmt.Errorf("card %d summary decode: %w", index, err)
	}
	if !raw.Found {
		return models.BusinessListing{}, fmt.Errorf("card %d vanished from the feed", index)
	}

	return models.BusinessListing{
		Name:        strings.TrimSpace(raw.Name),
		Rating:      parseRating(raw.Rating),
		ReviewCount: parseReviews(raw.Reviews),
		Category:    strings.TrimSpace(raw.Category),
		Address:     strings.TrimSpace(raw.Address),
		MapsURL:     strings.TrimSpace(raw.URL),
		Photos:      []string{},
	}, nil
}

// OpenDetail clicks the indexed card and races a URL change against the
// appearance of a detail heading; whichever happens first wins. A
// timeout is non-fatal and comes back as Reached=false.
func (s *Session) OpenDetail(ctx context.Context, index int) (DetailView, error) {
	origin := s.Location(ctx)

	var clicked bool
	clickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := chromedp.Run(clickCtx, chromedp.Evaluate(fmt.Sprintf(clickCardScript, index), &clicked))
	cancel()
	if err != nil || !clicked {
		return DetailView{}, fmt.Errorf("card %d click failed: %v", index, err)
	}

	raceCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	var opened bool
	err = chromedp.Run(raceCtx, chromedp.Poll(detailRaceExpr(origin), &opened, chromedp.WithPollingInterval(250*time.Millisecond)))
	cancel()
	if err != nil {
		// Neither signal arrived in time; keep whatever the card gave us.
		return DetailView{Reached: false}, nil
	}

	current := s.Location(ctx)
	return DetailView{
		Reached:   true,
		Navigated: detailNavigated(origin, current),
		URL:       current,
	}, nil
}

// detailRaceExpr is the poll expression detecting an opened detail
// view. Without a usable origin URL the location half would always be
// true, so only the heading probe is raced.
func detailRaceExpr(origin string) string {
	headingExpr := fmt.Sprintf(`!!document.querySelector(%q)`, detailHeadingSelector)
	if origin == "" {
		return headingExpr
	}
	return fmt.Sprintf(`window.location.href !== %q || %s`, origin, headingExpr)
}

// detailNavigated reports whether the detail opened by URL navigation
// rather than in place. Navigated=true triggers NavigateBack on close,
// so an unknown origin or current URL must never claim a navigation.
func detailNavigated(origin, current string) bool {
	return origin != "" && current != "" && current != origin
}

type rawDetail struct {
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Address     string   `json:"address"`
	Hours       string   `json:"hours"`
	PriceLevel  string   `json:"priceLevel"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}

// DetailFields fills the listing's secondary fields from the open
// detail view. Every field is independently optional: a miss leaves the
// zero value in place.
func (s *Session) DetailFields(ctx context.Context, listing *models.BusinessListing) error {
	// The panel populates asynchronously after the heading appears.
	utils.RandomDelay(1500*time.Millisecond, 2500*time.Millisecond)

	var payload string
	detCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := chromedp.Run(detCtx, chromedp.Evaluate(detailFieldsScript, &payload)); err != nil {
		return fmt.Errorf("detail fields: %w", err)
	}

	var raw rawDetail
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return fmt.Errorf("detail fields decode: %w", err)
	}

	if raw.Phone != "" {
		listing.Phone = strings.TrimSpace(raw.Phone)
	}
	if raw.Website != "" {
		listing.Website = strings.TrimSpace(raw.Website)
	}
	if raw.Address != "" {
		listing.Address = strings.TrimSpace(raw.Address)
	}
	if raw.Hours != "" {
		listing.Hours = strings.TrimSpace(raw.Hours)
	}
	if raw.PriceLevel != "" {
		listing.PriceLevel = strings.TrimSpace(raw.PriceLevel)
	}
	if raw.Description != "" {
		listing.Description = strings.TrimSpace(raw.Description)
	}
	if len(raw.Photos) > 0 {
		listing.Photos = raw.Photos
	}
	return nil
}

// CloseDetail returns to the list view: reverse the navigation if one
// happened, otherwise dismiss the in-place panel with Escape.
func (s *Session) CloseDetail(ctx context.Context, navigated bool) error {
	closeCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	if navigated {
		return chromedp.Run(closeCtx,
			chromedp.NavigateBack(),
			chromedp.WaitReady(cardSelector, chromedp.ByQuery),
		)
	}

	if err := chromedp.Run(closeCtx, chromedp.KeyEvent(kb.Escape)); err != nil {
		return err
	}
	time.Sleep(time.Second)
	return nil
}

func safeFileName(input string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '/', r == '\\', r == ':':
			return '_'
		default:
			return r
		}
	}, input)
	return strings.Trim(mapped, "_")
}
