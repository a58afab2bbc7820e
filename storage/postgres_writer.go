package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"property-trawler/models"
)

// PostgresWriter persists the ranked collection to PostgreSQL. Each run
// replaces the previous collection: runs produce a fresh dataset, not a
// merge with historical state.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id            TEXT PRIMARY KEY,
			source        VARCHAR(50)  NOT NULL,
			title         TEXT         NOT NULL,
			description   TEXT         NOT NULL DEFAULT '',
			price         NUMERIC(12,2),
			currency      VARCHAR(3)   NOT NULL DEFAULT '',
			rent_period   VARCHAR(8)   NOT NULL DEFAULT '',
			address       TEXT         NOT NULL DEFAULT '',
			postcode      VARCHAR(10)  NOT NULL DEFAULT '',
			bedrooms      INT,
			bathrooms     INT,
			property_type VARCHAR(10)  NOT NULL DEFAULT 'unknown',
			has_garden    BOOLEAN,
			has_balcony   BOOLEAN,
			images        TEXT         NOT NULL DEFAULT '',
			url           TEXT         NOT NULL DEFAULT '',
			listed_date   DATE,
			match_score   NUMERIC(5,2),
			scraped_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_properties_score    ON properties(match_score);
		CREATE INDEX IF NOT EXISTS idx_properties_price    ON properties(price);
		CREATE INDEX IF NOT EXISTS idx_properties_source   ON properties(source);
		CREATE INDEX IF NOT EXISTS idx_properties_postcode ON properties(postcode);
	`)
	return err
}

// Clear deletes all stored properties from the previous run.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM properties")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts the ranked collection, clearing old data first.
func (pw *PostgresWriter) Write(props []*models.Property) error {
	if len(props) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(props); i += batchSize {
		end := i + batchSize
		if end > len(props) {
			end = len(props)
		}
		if err := pw.insertBatch(props[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const insertColumns = 18

func (pw *PostgresWriter) insertBatch(batch []*models.Property) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, p := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for c := 0; c < insertColumns; c++ {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			p.ID, string(p.Source), p.Title, p.Description,
			nullFloat(p.Price), p.Currency, p.RentPeriod, p.Address, p.Postcode,
			nullInt(p.Bedrooms), nullInt(p.Bathrooms), string(p.PropertyType),
			nullBool(p.HasGarden), nullBool(p.HasBalcony),
			strings.Join(p.Images, " "), p.URL, nullTime(p.ListedDate), nullFloat(p.MatchScore),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO properties (id, source, title, description, price, currency, rent_period,
			address, postcode, bedrooms, bathrooms, property_type, has_garden, has_balcony,
			images, url, listed_date, match_score)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves the stored collection ranked by match score, for
// downstream consumers that read from the database instead of the files.
func (pw *PostgresWriter) FetchAll() ([]*models.Property, error) {
	rows, err := pw.db.Query(`
		SELECT id, source, title, description, price, currency, rent_period,
			address, postcode, bedrooms, bathrooms, property_type,
			has_garden, has_balcony, images, url, listed_date, match_score, scraped_at
		FROM properties
		ORDER BY match_score DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var props []*models.Property
	for rows.Next() {
		p := &models.Property{}
		var source, propertyType, images string
		var price, score sql.NullFloat64
		var bedrooms, bathrooms sql.NullInt64
		var garden, balcony sql.NullBool
		var listedDate sql.NullTime

		if err := rows.Scan(
			&p.ID, &source, &p.Title, &p.Description, &price, &p.Currency, &p.RentPeriod,
			&p.Address, &p.Postcode, &bedrooms, &bathrooms, &propertyType,
			&garden, &balcony, &images, &p.URL, &listedDate, &score, &p.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		p.Source = models.Source(source)
		p.PropertyType = models.PropertyType(propertyType)
		if price.Valid {
			p.Price = &price.Float64
		}
		if score.Valid {
			p.MatchScore = &score.Float64
		}
		if bedrooms.Valid {
			v := int(bedrooms.Int64)
			p.Bedrooms = &v
		}
		if bathrooms.Valid {
			v := int(bathrooms.Int64)
			p.Bathrooms = &v
		}
		p.HasGarden = tristateFromNull(garden)
		p.HasBalcony = tristateFromNull(balcony)
		if listedDate.Valid {
			d := listedDate.Time
			p.ListedDate = &d
		}
		if images != "" {
			p.Images = strings.Fields(images)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullBool(t models.Tristate) interface{} {
	switch t {
	case models.Yes:
		return true
	case models.No:
		return false
	default:
		return nil
	}
}

func tristateFromNull(b sql.NullBool) models.Tristate {
	if !b.Valid {
		return models.Unknown
	}
	if b.Bool {
		return models.Yes
	}
	return models.No
}
