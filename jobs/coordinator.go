package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gmaps-scraper/config"
	"gmaps-scraper/models"
	"gmaps-scraper/storage"
	"gmaps-scraper/utils"
)

// Runner executes one scrape and always returns a result, never an
// error — the orchestrator satisfies this.
type Runner interface {
	Run(ctx context.Context, query string, maxResults int) models.ScrapeResult
}

// Coordinator decouples callers from the orchestrator's long runtime:
// it assigns job ids, bounds concurrent runs with an admission gate,
// records per-job state, answers polls and evicts stale entries. It is
// the sole owner of the job table.
type Coordinator struct {
	runner     Runner
	csv        *storage.CSVWriter
	gate       chan struct{}
	runTimeout time.Duration
	retention  time.Duration

	mu   sync.RWMutex
	jobs map[string]*models.Job

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCoordinator starts the retention sweeper and returns a ready
// coordinator. Close stops the sweeper.
func NewCoordinator(runner Runner, cfg *config.Config) *Coordinator {
	c := &Coordinator{
		runner:     runner,
		csv:        storage.NewCSVWriter(cfg.CSVDir),
		gate:       make(chan struct{}, cfg.MaxConcurrentJobs),
		runTimeout: cfg.RunTimeout,
		retention:  cfg.JobRetention,
		jobs:       make(map[string]*models.Job),
		stop:       make(chan struct{}),
	}
	go c.sweep(cfg.SweepInterval)
	return c
}

func (c *Coordinator) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Enqueue records a Queued job and schedules exactly one run for it
// without blocking the caller.
func (c *Coordinator) Enqueue(query string, maxResults int, clientTag string) string {
	job := &models.Job{
		ID:        uuid.NewString(),
		Query:     query,
		ClientTag: clientTag,
		Status:    models.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()

	utils.Info("Enqueued job %s for query %q", job.ID, query)
	go c.process(job.ID, query, maxResults)
	return job.ID
}

// process waits for a gate slot, runs the scrape, and records the
// outcome. Panics from the runner are converted into a failed job at
// this boundary; nothing escapes to crash the coordinator.
func (c *Coordinator) process(jobID, query string, maxResults int) {
	c.gate <- struct{}{}
	defer func() { <-c.gate }()

	c.setStatus(jobID, models.StatusProcessing)
	utils.Info("Job %s started processing", jobID)

	result := c.runSafely(query, maxResults)

	status := models.StatusCompleted
	if !result.Success {
		status = models.StatusFailed
	}

	// A successful run also lands on disk, so results survive the job
	// table's retention window.
	if result.Success && len(result.Businesses) > 0 {
		if _, err := c.csv.Write(query, result.Businesses); err != nil {
			utils.Warn("Could not save CSV for job %s: %v", jobID, err)
		}
	}

	c.finish(jobID, status, result)
	utils.Info("Job %s finished with status %s (%d results)", jobID, status, result.TotalFound)
}

func (c *Coordinator) runSafely(query string, maxResults int) (result models.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			utils.Error("Scrape run panicked for query %q: %v", query, r)
			result = models.FailedResult(query, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// A run that hangs past its inner retry budgets would hold its gate
	// slot forever; the deadline caps that.
	ctx, cancel := context.WithTimeout(context.Background(), c.runTimeout)
	defer cancel()
	return c.runner.Run(ctx, query, maxResults)
}

// GetResult answers a poll. A terminal job returns its result verbatim;
// a known but unfinished job returns a synthesized non-success
// descriptor reflecting its status; an unknown id returns nil.
func (c *Coordinator) GetResult(jobID string) *models.ScrapeResult {
	// The worker goroutine mutates Status and Result under the write
	// lock, so both are copied out before the lock is released.
	c.mu.RLock()
	job, ok := c.jobs[jobID]
	if !ok {
		c.mu.RUnlock()
		return nil
	}
	status := job.Status
	result := job.Result
	query := job.Query
	c.mu.RUnlock()

	if status.Terminal() && result != nil {
		return result
	}

	queued, processing := c.counts()
	descriptor := models.FailedResult(query, fmt.Sprintf(
		"Job is still %s. Please try again later. (%d queued, %d processing)",
		status, queued, processing,
	))
	return &descriptor
}

// Status reports the job's current status, false when unknown.
func (c *Coordinator) Status(jobID string) (models.JobStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, ok := c.jobs[jobID]
	if !ok {
		return "", false
	}
	return job.Status, true
}

func (c *Coordinator) counts() (queued, processing int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, job := range c.jobs {
		switch job.Status {
		case models.StatusQueued:
			queued++
		case models.StatusProcessing:
			processing++
		}
	}
	return queued, processing
}

func (c *Coordinator) setStatus(jobID string, status models.JobStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if job, ok := c.jobs[jobID]; ok {
		job.Status = status
	}
}

func (c *Coordinator) finish(jobID string, status models.JobStatus, result models.ScrapeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if job, ok := c.jobs[jobID]; ok {
		job.Status = status
		job.Result = &result
	}
}

func (c *Coordinator) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired(time.Now().UTC())
		}
	}
}

// evictExpired drops entries older than the retention window. A job
// that is still Processing is never evicted, no matter how old.
func (c *Coordinator) evictExpired(now time.Time) {
	cutoff := now.Add(-c.retention)

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, job := range c.jobs {
		if job.Status == models.StatusProcessing {
			continue
		}
		if job.CreatedAt.Before(cutoff) {
			delete(c.jobs, id)
			utils.Info("Evicted stale job %s (created %s)", id, job.CreatedAt.Format(time.RFC3339))
		}
	}
}
