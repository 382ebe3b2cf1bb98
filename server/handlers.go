package server

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"gmaps-scraper/models"
	"gmaps-scraper/storage"
)

var validate = validator.New()

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "scraper service is healthy",
	})
}

// handleScrape validates the request, clamps maxResults and enqueues a
// job. The response returns immediately with the id to poll.
func (s *Server) handleScrape(c *fiber.Ctx) error {
	var req models.ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "query is required")
	}

	// Out-of-range maxResults is silently reset, not rejected.
	req.MaxResults = models.ClampMaxResults(
		req.MaxResults, s.cfg.DefaultMaxResults, s.cfg.MinMaxResults, s.cfg.MaxMaxResults)

	clientTag := c.Get("X-Client-Tag")
	jobID := s.coord.Enqueue(req.Query, req.MaxResults, clientTag)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"jobId":   jobID,
		"status":  string(models.StatusQueued),
		"message": fmt.Sprintf("Your scraping job has been queued. Poll /api/job/%s for the result.", jobID),
	})
}

// handleJobResult returns the terminal result verbatim, a pending
// descriptor for known unfinished jobs, or 404 for unknown ids.
func (s *Server) handleJobResult(c *fiber.Ctx) error {
	jobID := c.Params("jobId")

	result := s.coord.GetResult(jobID)
	if result == nil {
		return respondError(c, fiber.StatusNotFound, "Job not found")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// handleExport streams a completed job's listings as a CSV download.
func (s *Server) handleExport(c *fiber.Ctx) error {
	jobID := c.Params("jobId")

	status, known := s.coord.Status(jobID)
	if !known {
		return respondError(c, fiber.StatusNotFound, "Job not found")
	}
	if !status.Terminal() {
		return respondError(c, fiber.StatusConflict,
			fmt.Sprintf("Job is still %s; export is available once it completes", status))
	}

	result := s.coord.GetResult(jobID)
	if result == nil || !result.Success {
		return respondError(c, fiber.StatusConflict, "Job failed; nothing to export")
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.csv"`, strings.ReplaceAll(result.Query, " ", "_")))

	var buf strings.Builder
	if err := storage.WriteTo(&buf, result.Businesses); err != nil {
		return respondError(c, fiber.StatusInternalServerError, "could not format CSV")
	}
	return c.SendString(buf.String())
}

func respondError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
