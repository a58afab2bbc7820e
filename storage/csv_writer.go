package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"property-trawler/models"
)

// CSVWriter writes the ranked collection as flat tabular rows.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

var csvHeader = []string{
	"id", "source", "title", "price", "currency", "rent_period", "address", "postcode",
	"bedrooms", "bathrooms", "property_type", "has_garden", "has_balcony",
	"images", "url", "listed_date", "match_score", "scraped_at",
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per property, in ranking order.
func (c *CSVWriter) Write(props []*models.Property) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range props {
		row := []string{
			p.ID,
			string(p.Source),
			p.Title,
			formatFloat(p.Price),
			p.Currency,
			p.RentPeriod,
			p.Address,
			p.Postcode,
			formatInt(p.Bedrooms),
			formatInt(p.Bathrooms),
			string(p.PropertyType),
			p.HasGarden.String(),
			p.HasBalcony.String(),
			strings.Join(p.Images, " "),
			p.URL,
			formatDate(p.ListedDate),
			formatFloat(p.MatchScore),
			p.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
