package models

import (
	"strings"
	"time"
)

// BusinessListing is one business discovered in the results feed.
// Card-level fields are filled first, detail-view fields afterwards;
// once appended to a ScrapeResult the value is never mutated again.
type BusinessListing struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	Category    string   `json:"category"`
	Hours       string   `json:"hours"`
	PriceLevel  string   `json:"priceLevel"`
	MapsURL     string   `json:"googleMapsUrl"`
	Photos      []string `json:"photos"`
	Description string   `json:"description"`
}

// DedupKey identifies a listing within one run. Two listings are
// duplicates iff the case-folded (name, address, phone) tuple matches.
// An empty key means the listing has no name and must not be counted.
func (b BusinessListing) DedupKey() string {
	name := strings.ToLower(strings.TrimSpace(b.Name))
	if name == "" {
		return ""
	}
	address := strings.ToLower(strings.TrimSpace(b.Address))
	phone := strings.ToLower(strings.TrimSpace(b.Phone))
	return name + "|" + address + "|" + phone
}

// ScrapeRequest is the caller's input for one scrape job.
type ScrapeRequest struct {
	Query      string `json:"query" validate:"required"`
	MaxResults int    `json:"maxResults"`
}

// ClampMaxResults resets an out-of-range maxResults to def instead of
// rejecting the request. In-range values pass through unchanged.
func ClampMaxResults(maxResults, def, min, max int) int {
	if maxResults < min || maxResults > max {
		return def
	}
	return maxResults
}

// ScrapeResult is the single output of one orchestrator run.
// Success implies ErrorMessage is empty; failure implies Businesses is
// empty and ErrorMessage is set.
type ScrapeResult struct {
	Query        string            `json:"query"`
	Businesses   []BusinessListing `json:"businesses"`
	TotalFound   int               `json:"totalFound"`
	Success      bool              `json:"success"`
	ErrorMessage string            `json:"errorMessage"`
	ScrapedAt    time.Time         `json:"scrapedAt"`
}

// FailedResult builds the Failed-shaped result for a run that could not
// complete.
func FailedResult(query, errMsg string) ScrapeResult {
	return ScrapeResult{
		Query:        query,
		Businesses:   []BusinessListing{},
		Success:      false,
		ErrorMessage: errMsg,
		ScrapedAt:    time.Now().UTC(),
	}
}

// JobStatus is the lifecycle state of a tracked scrape job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one coordinator-tracked unit of work. The coordinator owns the
// job table exclusively; nothing else mutates these.
type Job struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	ClientTag string        `json:"clientTag,omitempty"`
	Status    JobStatus     `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Result    *ScrapeResult `json:"result,omitempty"`
}
