package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gmaps-scraper/config"
	"gmaps-scraper/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MaxConcurrentJobs = 2
	cfg.RunTimeout = 5 * time.Second
	cfg.JobRetention = 2 * time.Hour
	cfg.SweepInterval = time.Hour
	cfg.CSVDir = t.TempDir()
	return cfg
}

// gatedRunner blocks each run until a token arrives on release.
// A run whose query equals skipGate returns without waiting.
type gatedRunner struct {
	release  chan struct{}
	skipGate string
	fail     bool
}

func (r *gatedRunner) Run(ctx context.Context, query string, maxResults int) models.ScrapeResult {
	if query != r.skipGate {
		<-r.release
	}
	if r.fail {
		return models.FailedResult(query, "simulated failure")
	}
	return models.ScrapeResult{
		Query:      query,
		Businesses: []models.BusinessListing{{Name: "Fixture Cafe"}},
		TotalFound: 1,
		Success:    true,
		ScrapedAt:  time.Now().UTC(),
	}
}

type panicRunner struct{}

func (panicRunner) Run(ctx context.Context, query string, maxResults int) models.ScrapeResult {
	panic("browser went away")
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within timeout")
}

func TestEnqueueReturnsImmediately(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{})}
	c := NewCoordinator(runner, testConfig(t))
	defer c.Close()

	start := time.Now()
	jobID := c.Enqueue("cafes in Bristol", 10, "")
	if jobID == "" {
		t.Fatal("expected a job id")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("enqueue blocked on the run")
	}
	close(runner.release)
}

func TestGetResultPendingThenTerminal(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{})}
	c := NewCoordinator(runner, testConfig(t))
	defer c.Close()

	jobID := c.Enqueue("cafes in Bristol", 10, "tester")

	pending := c.GetResult(jobID)
	if pending == nil {
		t.Fatal("a known job must not report NotFound")
	}
	if pending.Success {
		t.Fatal("pending descriptor must not be successful")
	}
	if !strings.Contains(pending.ErrorMessage, "still") {
		t.Fatalf("pending message should reflect status, got %q", pending.ErrorMessage)
	}

	close(runner.release)
	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(jobID)
		return status.Terminal()
	})

	result := c.GetResult(jobID)
	if result == nil || !result.Success {
		t.Fatalf("expected terminal success result, got %+v", result)
	}
	if result.TotalFound != len(result.Businesses) {
		t.Fatalf("totalFound %d != %d businesses", result.TotalFound, len(result.Businesses))
	}
}

func TestGetResultUnknownJob(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{})}
	c := NewCoordinator(runner, testConfig(t))
	defer c.Close()

	if got := c.GetResult("no-such-job"); got != nil {
		t.Fatalf("unknown id must report NotFound, got %+v", got)
	}
}

func TestFailedRunBecomesFailedJob(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), fail: true}
	c := NewCoordinator(runner, testConfig(t))
	defer c.Close()

	jobID := c.Enqueue("cafes in Bristol", 10, "")
	close(runner.release)
	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(jobID)
		return status == models.StatusFailed
	})

	result := c.GetResult(jobID)
	if result == nil || result.Success || result.ErrorMessage == "" {
		t.Fatalf("expected failed result with message, got %+v", result)
	}
	if len(result.Businesses) != 0 {
		t.Fatal("failed result must carry no businesses")
	}
}

func TestPanickingRunBecomesFailedJob(t *testing.T) {
	c := NewCoordinator(panicRunner{}, testConfig(t))
	defer c.Close()

	jobID := c.Enqueue("cafes in Bristol", 10, "")
	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(jobID)
		return status == models.StatusFailed
	})

	result := c.GetResult(jobID)
	if result == nil || result.Success {
		t.Fatal("panic must surface as a failed job")
	}
	if !strings.Contains(result.ErrorMessage, "browser went away") {
		t.Fatalf("panic message lost: %q", result.ErrorMessage)
	}
}

func TestConcurrencyGate(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{})}
	c := NewCoordinator(runner, testConfig(t)) // gate size 2
	defer c.Close()

	ids := []string{
		c.Enqueue("query one", 5, ""),
		c.Enqueue("query two", 5, ""),
		c.Enqueue("query three", 5, ""),
	}

	waitUntil(t, 2*time.Second, func() bool {
		_, processing := c.counts()
		return processing == 2
	})

	queued, processing := c.counts()
	if processing != 2 || queued != 1 {
		t.Fatalf("gate of 2 with 3 jobs: got %d processing, %d queued", processing, queued)
	}

	// Finishing one run must admit the queued job.
	runner.release <- struct{}{}
	waitUntil(t, 2*time.Second, func() bool {
		queued, processing := c.counts()
		return queued == 0 && processing == 2
	})

	runner.release <- struct{}{}
	runner.release <- struct{}{}
	for _, id := range ids {
		id := id
		waitUntil(t, 2*time.Second, func() bool {
			status, _ := c.Status(id)
			return status.Terminal()
		})
	}
}

func TestCompletedJobWritesCSV(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), skipGate: "cafes in Bristol"}
	cfg := testConfig(t)
	c := NewCoordinator(runner, cfg)
	defer c.Close()

	jobID := c.Enqueue("cafes in Bristol", 10, "")
	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(jobID)
		return status == models.StatusCompleted
	})

	entries, err := os.ReadDir(cfg.CSVDir)
	if err != nil {
		t.Fatalf("reading CSV dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one CSV file, found %d", len(entries))
	}
	raw, err := os.ReadFile(filepath.Join(cfg.CSVDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("reading CSV file: %v", err)
	}
	if !strings.Contains(string(raw), "Fixture Cafe") {
		t.Fatalf("CSV missing the scraped listing: %q", raw)
	}
}

func TestFailedJobWritesNoCSV(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), skipGate: "cafes in Bristol", fail: true}
	cfg := testConfig(t)
	c := NewCoordinator(runner, cfg)
	defer c.Close()

	jobID := c.Enqueue("cafes in Bristol", 10, "")
	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(jobID)
		return status == models.StatusFailed
	})

	entries, err := os.ReadDir(cfg.CSVDir)
	if err != nil {
		t.Fatalf("reading CSV dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed run must not land on disk, found %d files", len(entries))
	}
}

// Polling while workers flip jobs to terminal is the steady-state
// workload; the race detector must stay quiet here.
func TestGetResultConcurrentWithCompletion(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), skipGate: "cafes in Bristol"}
	c := NewCoordinator(runner, testConfig(t))
	defer c.Close()

	ids := make([]string, 8)
	for i := range ids {
		ids[i] = c.Enqueue("cafes in Bristol", 5, "")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if result := c.GetResult(id); result != nil && result.Success {
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		result := c.GetResult(id)
		if result == nil || !result.Success {
			t.Fatalf("job %s did not complete: %+v", id, result)
		}
	}
}

func TestRetentionSweep(t *testing.T) {
	runner := &gatedRunner{release: make(chan struct{}), skipGate: "finished long ago"}
	c := NewCoordinator(runner, testConfig(t))
	defer c.Close()

	oldDone := c.Enqueue("finished long ago", 5, "")
	stuck := c.Enqueue("still running", 5, "")

	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(oldDone)
		return status.Terminal()
	})
	waitUntil(t, 2*time.Second, func() bool {
		status, _ := c.Status(stuck)
		return status == models.StatusProcessing
	})

	// Age both jobs past the retention window, then sweep.
	c.mu.Lock()
	for _, job := range c.jobs {
		job.CreatedAt = time.Now().UTC().Add(-3 * time.Hour)
	}
	c.mu.Unlock()
	c.evictExpired(time.Now().UTC())

	if got := c.GetResult(oldDone); got != nil {
		t.Fatal("expired terminal job must be evicted")
	}
	if got := c.GetResult(stuck); got == nil {
		t.Fatal("a Processing job must never be evicted")
	}

	close(runner.release)
}
