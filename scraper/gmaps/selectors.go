package gmaps

// CSS selectors for Google Maps results. Maps ships obfuscated class
// names that rotate rarely but without warning, so every lookup that
// uses one of these carries a fallback path.
const (
	// One result card in the feed.
	cardSelector = "div.Nv2PK"

	// Card-level fields.
	cardNameSelector    = ".qBF1Pd"
	cardRatingSelector  = ".MW4etd"
	cardReviewsSelector = ".UY7F9"
	cardInfoSelector    = ".W4Efsd"
	cardLinkSelector    = "a.hfpxzc"

	// The scrollable feed and its end marker.
	feedSelector      = `div[role="feed"]`
	endOfListSelector = "span.HlvSq"

	// Detail view headings — either of these appearing means the detail
	// view is open, whether or not the URL changed.
	detailHeadingSelector = `h1.DUwDvf, [role='main'] h1, .x3AX1-LfntMc-header-title, .rogA2c`
)

// resultsContainerSelectors is the checkpoint probe order for detecting
// that search results rendered at all. Failing every one of these is a
// fatal run error.
var resultsContainerSelectors = []string{
	".m6QErb",
	`[role="main"]`,
	"div.Nv2PK",
	".section-result",
	"[data-result-index]",
}

// consentAttributeSelectors are the exact-match consent button probes,
// tried before any text scanning.
var consentAttributeSelectors = []string{
	`button[jsname="b3VHJd"]`,
	`button[aria-label="Accept all"]`,
	`button[aria-label="I agree"]`,
	`[data-testid="accept-all-button"]`,
	`button[data-idom-class="XWZjwc"]`,
	`button.VfPpkd-LgbsSe-OWXEXe-k8QpJ`,
}

// consentTexts drives the generic fallback probe: any visible button
// whose text starts with one of these gets clicked.
var consentTexts = []string{"Accept all", "Accept", "OK", "Continue", "Agree"}

// cardCountScript counts currently materialized result cards.
const cardCountScript = `document.querySelectorAll('div.Nv2PK').length`

// endOfListScript reports whether the feed's terminal marker is
// rendered. The class probe comes first; the text probe covers layouts
// where the marker class rotated.
const endOfListScript = `(() => {
	if (document.querySelector('span.HlvSq')) return true;
	const feed = document.querySelector('div[role="feed"]');
	if (!feed) return false;
	return /reached the end of the list/i.test(feed.innerText || '');
})()`

// scrollFeedScript tries each scroll tier in order and reports whether
// any of them actually moved a scroll position. Tiers: the feed
// container, alternative containers, the nearest scrollable ancestor of
// a card, and finally the window.
const scrollFeedScript = `(() => {
	const tryScroll = (el) => {
		if (!el || el.scrollHeight <= el.clientHeight) return false;
		const before = el.scrollTop;
		el.scrollBy(0, 500);
		return el.scrollTop > before;
	};

	const feed = document.querySelector('div[role="feed"]');
	if (tryScroll(feed)) return true;

	const fallbacks = ['.m6QErb', '[role="main"]', '.TFQHme', 'div.Nv2PK'];
	for (const sel of fallbacks) {
		if (tryScroll(document.querySelector(sel))) return true;
	}

	const card = document.querySelector('div.Nv2PK');
	if (card) {
		let parent = card.parentElement;
		while (parent && parent !== document.body) {
			if (tryScroll(parent)) return true;
			parent = parent.parentElement;
		}
	}

	window.scrollBy(0, 500);
	return false;
})()`

// cardSummaryScript extracts the card-level fields of the i-th card.
// Every lookup is independently optional; a missing field comes back as
// an empty string, never as a thrown error.
const cardSummaryScript = `((i) => {
	const cards = document.querySelectorAll('div.Nv2PK');
	if (i >= cards.length) return JSON.stringify({ found: false });
	const card = cards[i];

	const pick = (sel) => {
		const node = card.querySelector(sel);
		return node ? (node.textContent || '').trim() : '';
	};

	// First non-nested info row is the category line, nested rows hold
	// the address.
	let category = '';
	let address = '';
	const infoRows = card.querySelectorAll('.W4Efsd');
	for (const row of infoRows) {
		const nested = row.querySelector('.W4Efsd');
		if (nested) {
			if (!address) address = (nested.textContent || '').trim();
		} else if (!category) {
			const spans = row.querySelectorAll('span');
			category = spans.length ? (spans[0].textContent || '').trim() : (row.textContent || '').trim();
		}
	}

	const link = card.querySelector('a.hfpxzc');
	return JSON.stringify({
		found: true,
		connected: card.isConnected,
		name: pick('.qBF1Pd'),
		rating: pick('.MW4etd'),
		reviews: pick('.UY7F9'),
		category: category,
		address: address,
		url: link ? link.href : ''
	});
})(%d)`

// clickCardScript activates the i-th card, preferring its anchor so the
// navigation path matches a real user click.
const clickCardScript = `((i) => {
	const cards = document.querySelectorAll('div.Nv2PK');
	if (i >= cards.length) return false;
	const card = cards[i];
	const link = card.querySelector('a.hfpxzc');
	(link || card).click();
	return true;
})(%d)`

// detailFieldsScript pulls the secondary fields from an open detail
// view using attribute-labeled lookups. Each field falls back through
// its own probe list and never throws.
const detailFieldsScript = `(() => {
	const text = (node) => node ? (node.textContent || '').trim() : '';

	let phone = '';
	const phoneNodes = document.querySelectorAll(
		'button[data-item-id^="phone:tel"], a[href^="tel:"], div[data-item-id^="phone"] span, button[aria-label^="Phone:"] span');
	for (const node of phoneNodes) {
		const value = text(node) || (node.href || '').replace(/^tel:/, '');
		if (value && /[\d\s\-\+\(\)]{5,}/.test(value)) { phone = value.trim(); break; }
	}

	let website = '';
	const websiteSelectors = [
		'a[data-item-id="authority"]',
		'a[data-item-id="website"]',
		'a[aria-label="Website"]',
		'a[href^="https://www.google.com/url?"][aria-label*="Website"]'
	];
	for (const sel of websiteSelectors) {
		const node = document.querySelector(sel);
		if (node && node.href && !node.href.includes('google.com/maps')) { website = node.href; break; }
	}

	let address = '';
	const addressNode = document.querySelector('button[data-item-id="address"], [data-item-id="address"]');
	if (addressNode) {
		address = text(addressNode).replace(/^[^\w]+/, '');
	}

	let hours = '';
	const hoursNode = document.querySelector('[data-item-id="oh"], [data-value*="hours"], [aria-label*="Hours"] .ZDu9vd');
	if (hoursNode) hours = text(hoursNode);

	let priceLevel = '';
	const priceNode = document.querySelector('span[aria-label*="Price:"], [data-value*="price"]');
	if (priceNode) priceLevel = text(priceNode) || (priceNode.getAttribute('aria-label') || '');

	let description = '';
	const descNode = document.querySelector('[data-item-id="place-info-links:"] span, .PYvSYb, [data-value*="description"]');
	if (descNode) description = text(descNode);

	const photos = [];
	for (const img of document.querySelectorAll('button[jsaction*="heroHeaderImage"] img, .ZKCDEc img')) {
		if (img.src && photos.length < 5) photos.push(img.src);
	}

	return JSON.stringify({
		phone: phone, website: website, address: address,
		hours: hours, priceLevel: priceLevel,
		description: description, photos: photos
	});
})()`
