package utils

import (
	"context"
	"math/rand"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// userAgents — real browser strings rotated per session so each scrape
// looks like a different real browser.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
}

func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// StealthOpts returns the Chrome launch options for one session.
//
// The sandbox/background-throttling flags are required on hosts without
// OS-level sandbox privileges; the rest strip the automation tells that
// Maps' scripts check before serving the full UI.
func StealthOpts(headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-domain-reliability", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(RandomUserAgent()),
	}

	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	return opts
}

// fingerprintScript patches JS-visible automation tells before scraping:
// the webdriver flag, plugin/language lists, the chrome object's timing
// hooks, the permissions API and the timezone offset.
const fingerprintScript = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	delete navigator.__proto__.webdriver;

	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });

	window.chrome = {
		runtime: {},
		loadTimes: function() {
			return {
				commitLoadTime: performance.timeOrigin + performance.now(),
				connectionInfo: 'h2',
				finishDocumentLoadTime: performance.timeOrigin + performance.now(),
				finishLoadTime: performance.timeOrigin + performance.now(),
				firstPaintAfterLoadTime: 0,
				firstPaintTime: performance.timeOrigin + performance.now(),
				navigationType: 'Other',
				npnNegotiatedProtocol: 'h2',
				requestTime: performance.timeOrigin,
				startLoadTime: performance.timeOrigin + performance.now(),
				wasAlternateProtocolAvailable: false,
				wasFetchedViaSpdy: true,
				wasNpnNegotiated: true
			};
		},
		csi: function() {
			return { pageT: Date.now(), tran: 15 };
		}
	};

	const originalQuery = window.navigator.permissions.query;
	window.navigator.permissions.query = (parameters) => (
		parameters.name === 'notifications'
			? Promise.resolve({ state: 'denied' })
			: originalQuery(parameters)
	);

	Date.prototype.getTimezoneOffset = function() { return 300; };
`

// InstallFingerprintMask registers fingerprintScript to run in every
// new document before any page script executes. Must happen once at
// session creation, before the first navigation, or detection code
// running during document load sees the unmasked values.
func InstallFingerprintMask() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(fingerprintScript).Do(ctx)
		return err
	})
}

// HideWebDriver re-applies fingerprintScript on the current document.
// InstallFingerprintMask covers documents created after registration;
// this covers the one already open.
func HideWebDriver() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.Evaluate(fingerprintScript, nil).Do(ctx)
	})
}
