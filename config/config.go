package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// defaultDropColumns are the URL, picture and scrape-metadata columns of a
// listings export that carry nothing worth analysing.
var defaultDropColumns = []string{
	"listing_url", "scrape_id", "last_scraped",
	"thumbnail_url", "medium_url", "picture_url", "xl_picture_url",
	"host_url", "host_thumbnail_url", "host_picture_url",
	"calendar_last_scraped", "license", "square_feet",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ListingsCSV string
	CalendarCSV string
	ReviewsCSV  string

	OutputDir      string
	ChartOutputDir string
	XLSXOutputPath string
	DropColumns    []string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency  int
	MaxRetries      int
	WatchDebounceMs int
	LogLevel        string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	outputDir := getEnv("OUTPUT_DIR", "./output")

	return &Config{
		ListingsCSV: getEnv("LISTINGS_CSV", "./data/listings.csv"),
		CalendarCSV: getEnv("CALENDAR_CSV", "./data/calendar.csv"),
		ReviewsCSV:  getEnv("REVIEWS_CSV", "./data/reviews.csv"),

		OutputDir:      outputDir,
		ChartOutputDir: getEnv("CHART_OUTPUT_DIR", filepath.Join(outputDir, "charts")),
		XLSXOutputPath: getEnv("XLSX_OUTPUT_PATH", filepath.Join(outputDir, "summary.xlsx")),
		DropColumns:    getEnvList("DROP_COLUMNS", defaultDropColumns),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "analyst"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "analyst123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		WatchDebounceMs: getEnvInt("WATCH_DEBOUNCE_MS", 500),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
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

// InputFiles lists the dataset files that exist among the configured inputs.
func (c *Config) InputFiles() []string {
	var files []string
	for _, p := range []string{c.ListingsCSV, c.CalendarCSV, c.ReviewsCSV} {
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	return files
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

// getEnvList splits a comma-separated variable. An explicitly empty list is
// written as "-".
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if val == "-" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
