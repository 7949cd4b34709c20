package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"casecorpus/pkg/models"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.RateLimit.RequestsPerMinute != 20 {
		t.Errorf("Expected default requests per minute to be 20, got %d", config.RateLimit.RequestsPerMinute)
	}
	if config.Fetch.Concurrency != 2 {
		t.Errorf("Expected default concurrency to be 2, got %d", config.Fetch.Concurrency)
	}
	if config.Archive.ResultSelector != "div.metadata span.title a" {
		t.Errorf("Unexpected default result selector %q", config.Archive.ResultSelector)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CASECORPUS_BASE_URL", "http://localhost:8080")
	t.Setenv("CASECORPUS_REQUESTS_PER_MINUTE", "30")
	t.Setenv("CASECORPUS_CONCURRENCY", "4")
	t.Setenv("CASECORPUS_FETCH_TIMEOUT", "45s")
	t.Setenv("CASECORPUS_RAW_DIR", "/tmp/raw")
	t.Setenv("CASECORPUS_LOG_LEVEL", "debug")
	t.Setenv("CASECORPUS_METRICS_ADDR", ":9191")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Archive.BaseURL != "http://localhost:8080" {
		t.Errorf("Expected base URL override, got %s", config.Archive.BaseURL)
	}
	if config.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("Expected requests per minute to be 30, got %d", config.RateLimit.RequestsPerMinute)
	}
	if config.Fetch.Concurrency != 4 {
		t.Errorf("Expected concurrency to be 4, got %d", config.Fetch.Concurrency)
	}
	if config.Fetch.Timeout != 45*time.Second {
		t.Errorf("Expected timeout to be 45s, got %v", config.Fetch.Timeout)
	}
	if config.Output.RawDirectory != "/tmp/raw" {
		t.Errorf("Expected raw directory to be /tmp/raw, got %s", config.Output.RawDirectory)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
	if !config.Metrics.Enabled || config.Metrics.Address != ":9191" {
		t.Errorf("Expected metrics enabled on :9191, got %+v", config.Metrics)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("CASECORPUS_CONCURRENCY", "many")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "CASECORPUS_CONCURRENCY") {
		t.Errorf("Expected error naming CASECORPUS_CONCURRENCY, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "casecorpus.yaml")
	content := `
archive:
  base_url: http://archive.test
windows:
  - end_date: "1985-12-31"
  - start_date: "2021-01-01"
    end_date: "2021-12-31"
    max_cases: 2
fetch:
  timeout: 10s
  max_cases: 50
output:
  corpus_file: out/corpus.json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Archive.BaseURL != "http://archive.test" {
		t.Errorf("Expected base URL from file, got %s", config.Archive.BaseURL)
	}
	if config.Archive.ResultSelector == "" {
		t.Error("Expected unspecified fields to keep their defaults")
	}
	if config.Fetch.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", config.Fetch.Timeout)
	}

	windows, err := config.SearchWindows(time.Now())
	if err != nil {
		t.Fatalf("SearchWindows failed: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("Expected 2 windows, got %d", len(windows))
	}
	if !windows[0].Start.IsZero() {
		t.Errorf("Expected open start for first window, got %v", windows[0].Start)
	}
	if got := windows[0].End.Format(models.DateLayout); got != "1986-01-01" {
		t.Errorf("Expected exclusive end 1986-01-01, got %s", got)
	}
	if windows[0].MaxCases != 50 {
		t.Errorf("Expected global max cases to apply, got %d", windows[0].MaxCases)
	}
	if windows[1].MaxCases != 2 {
		t.Errorf("Expected window max cases 2, got %d", windows[1].MaxCases)
	}
	if got := windows[1].LastDay().Format(models.DateLayout); got != "2021-12-31" {
		t.Errorf("Expected last day 2021-12-31, got %s", got)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestDefaultWindows(t *testing.T) {
	today := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	windows := DefaultWindows(today)

	want := []string{
		"[-inf, 1986-01-01)",
		"[1986-01-01, 1996-01-01)",
		"[1996-01-01, 2006-01-01)",
		"[2006-01-01, 2016-01-01)",
		"[2016-01-01, 2026-01-01)",
		"[2026-01-01, 2026-10-20)",
	}
	if len(windows) != len(want) {
		t.Fatalf("Expected %d windows, got %d: %v", len(want), len(windows), windows)
	}
	for i, w := range windows {
		if w.String() != want[i] {
			t.Errorf("Window %d: expected %s, got %s", i, want[i], w.String())
		}
	}
}

func TestDefaultWindowsEndsMidDecade(t *testing.T) {
	today := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	windows := DefaultWindows(today)

	last := windows[len(windows)-1]
	if got := last.String(); got != "[2016-01-01, 2021-07-01)" {
		t.Errorf("Expected final window to end today, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing base url", func(c *Config) { c.Archive.BaseURL = "" }, "base URL"},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }, "concurrency must be positive"},
		{"negative max cases", func(c *Config) { c.Fetch.MaxCases = -1 }, "max cases"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"no keywords", func(c *Config) { c.Classifier.CriminalKeywords = nil }, "criminal keyword"},
		{
			"inverted window",
			func(c *Config) {
				c.Windows = []WindowConfig{{StartDate: "2021-12-31", EndDate: "2021-01-01"}}
			},
			"start_date",
		},
		{
			"bad window date",
			func(c *Config) { c.Windows = []WindowConfig{{EndDate: "31/12/2021"}} },
			"end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStatisticsPath(t *testing.T) {
	config := DefaultConfig()
	config.Output.CorpusFile = "data/processed/annotation.json"
	if got := config.StatisticsPath(); got != "data/processed/annotation_statistics.json" {
		t.Errorf("Unexpected statistics path %s", got)
	}

	config.Output.StatisticsFile = "stats.json"
	if got := config.StatisticsPath(); got != "stats.json" {
		t.Errorf("Expected explicit statistics path, got %s", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Windows = []WindowConfig{{StartDate: "2021-01-01", EndDate: "2021-12-31"}}
	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(loaded.Windows) != 1 || loaded.Windows[0].EndDate != "2021-12-31" {
		t.Errorf("Windows did not survive round trip: %+v", loaded.Windows)
	}
	if loaded.Fetch.Timeout != config.Fetch.Timeout {
		t.Errorf("Timeout did not survive round trip: %v", loaded.Fetch.Timeout)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"base-url":    "http://flags.test",
		"concurrency": 5,
		"max-cases":   0,
		"timeout":     5 * time.Second,
		"corpus":      "flag.json",
	})

	if config.Archive.BaseURL != "http://flags.test" {
		t.Errorf("Expected base URL from flags, got %s", config.Archive.BaseURL)
	}
	if config.Fetch.Concurrency != 5 {
		t.Errorf("Expected concurrency 5, got %d", config.Fetch.Concurrency)
	}
	if config.Fetch.MaxCases != 0 {
		t.Errorf("Zero flag value should not override, got %d", config.Fetch.MaxCases)
	}
	if config.Fetch.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", config.Fetch.Timeout)
	}
	if config.Output.CorpusFile != "flag.json" {
		t.Errorf("Expected corpus file from flags, got %s", config.Output.CorpusFile)
	}
}
