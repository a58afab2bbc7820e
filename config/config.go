package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"property-trawler/models"
)

// Config holds all application configuration loaded from environment variables.
// Search criteria live in a separate YAML file (see LoadCriteria); the env
// config covers storage targets and scraper tuning.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	MaxRetries     int
	RequestDelayMs int
	MaxPages       int

	JSONOutputPath string
	CSVOutputPath  string
	CriteriaFile   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "trawler"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "trawler123"),
		PostgresDB:       getEnv("POSTGRES_DB", "property_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RequestDelayMs: getEnvInt("REQUEST_DELAY_MS", 2000),
		MaxPages:       getEnvInt("MAX_PAGES", 5),

		JSONOutputPath: getEnv("JSON_OUTPUT_PATH", "./output/properties.json"),
		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/properties.csv"),
		CriteriaFile:   getEnv("CRITERIA_FILE", "criteria.yaml"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// LoadCriteria reads the search-criteria YAML file. A missing file yields the
// default criteria rather than an error; a present-but-invalid file is fatal
// since a full scrape against criteria the user didn't intend wastes every
// site's goodwill.
func (c *Config) LoadCriteria() (*models.SearchCriteria, error) {
	criteria := DefaultCriteria()
	criteria.MaxPages = c.MaxPages
	criteria.RequestDelayMs = c.RequestDelayMs

	data, err := os.ReadFile(c.CriteriaFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[config] Criteria file %s not found, using defaults", c.CriteriaFile)
			return criteria, nil
		}
		return nil, fmt.Errorf("config: read criteria file %q: %w", c.CriteriaFile, err)
	}

	if err := yaml.Unmarshal(data, criteria); err != nil {
		return nil, fmt.Errorf("config: parse criteria file %q: %w", c.CriteriaFile, err)
	}
	if criteria.MaxPages == 0 {
		criteria.MaxPages = c.MaxPages
	}
	if criteria.RequestDelayMs == 0 {
		criteria.RequestDelayMs = c.RequestDelayMs
	}
	return criteria, nil
}

// DefaultCriteria returns the criteria used when no criteria file exists:
// search London for any property type, exclude nothing.
func DefaultCriteria() *models.SearchCriteria {
	return &models.SearchCriteria{
		Locations:    []string{"London"},
		PropertyType: models.FilterEither,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
