package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/tmp/eda")
	t.Setenv("DROP_COLUMNS", "")

	cfg := Load()

	assert.Equal(t, "/tmp/eda/charts", cfg.ChartOutputDir)
	assert.Equal(t, "/tmp/eda/summary.xlsx", cfg.XLSXOutputPath)
	assert.Equal(t, defaultDropColumns, cfg.DropColumns)
	assert.False(t, cfg.PostgresEnabled)
	assert.Equal(t, 4, cfg.MaxConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DROP_COLUMNS", " listing_url, ,host_url ")
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("MAX_CONCURRENCY", "not-a-number")
	t.Setenv("CHART_OUTPUT_DIR", "/srv/png")

	cfg := Load()

	assert.Equal(t, []string{"listing_url", "host_url"}, cfg.DropColumns)
	assert.True(t, cfg.PostgresEnabled)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, "/srv/png", cfg.ChartOutputDir)
}

func TestEmptyDropList(t *testing.T) {
	t.Setenv("DROP_COLUMNS", "-")
	assert.Empty(t, Load().DropColumns)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}
