package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

var csvHeader = []string{
	"name", "address", "phone", "website", "category",
	"rating", "review_count", "hours", "price_level", "maps_url",
}

// CSVWriter formats scraped listings as CSV, either into per-query
// files under its directory or onto an arbitrary writer for HTTP
// downloads. Pure formatting; no scraping logic.
type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write saves the listings of one query into a timestamped file and
// returns its path.
func (w *CSVWriter) Write(query string, listings []models.BusinessListing) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("could not create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", sanitizeQuery(query), time.Now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	if err := WriteTo(file, listings); err != nil {
		return "", err
	}

	utils.Success("Saved %d listings → %s", len(listings), path)
	return path, nil
}

// WriteTo streams the listings as CSV onto w. csv.Writer handles
// quoting, embedded commas and line endings.
func WriteTo(w io.Writer, listings []models.BusinessListing) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	for _, b := range listings {
		record := []string{
			b.Name,
			b.Address,
			b.Phone,
			b.Website,
			b.Category,
			strconv.FormatFloat(b.Rating, 'f', 1, 64),
			strconv.Itoa(b.ReviewCount),
			b.Hours,
			b.PriceLevel,
			b.MapsURL,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}

func sanitizeQuery(query string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(strings.TrimSpace(query)))
	return strings.Trim(mapped, "_")
}
