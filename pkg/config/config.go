package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"casecorpus/pkg/models"
)

// Config holds all configuration options for the corpus builder
type Config struct {
	// Archive being crawled
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Search windows, processed in order
	Windows []WindowConfig `yaml:"windows" json:"windows"`

	// Fetch settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Classifier keyword sets
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`

	// Annotation pass settings
	Annotate AnnotateConfig `yaml:"annotate" json:"annotate"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics exposition
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ArchiveConfig describes the judicial archive and its search page layout
type ArchiveConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	SearchPath     string `yaml:"search_path" json:"search_path"`
	SubjectID      string `yaml:"subject_id" json:"subject_id"`
	ResultSelector string `yaml:"result_selector" json:"result_selector"`
	FrameSelector  string `yaml:"frame_selector" json:"frame_selector"`
}

// WindowConfig is one configured search window. EndDate is inclusive, as
// typed by a human; StartDate may be empty for an open beginning.
type WindowConfig struct {
	StartDate string `yaml:"start_date" json:"start_date"`
	EndDate   string `yaml:"end_date" json:"end_date"`
	MaxCases  int    `yaml:"max_cases,omitempty" json:"max_cases,omitempty"`
}

// FetchConfig holds document fetching configuration
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	MaxPages    int           `yaml:"max_pages" json:"max_pages"`
	MaxCases    int           `yaml:"max_cases" json:"max_cases"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// OutputConfig holds output file locations
type OutputConfig struct {
	RawDirectory   string `yaml:"raw_directory" json:"raw_directory"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	CorpusFile     string `yaml:"corpus_file" json:"corpus_file"`
	StatisticsFile string `yaml:"statistics_file" json:"statistics_file"`
}

// ClassifierConfig holds the lexical keyword sets
type ClassifierConfig struct {
	CriminalKeywords []string `yaml:"criminal_keywords" json:"criminal_keywords"`
	StatuteKeywords  []string `yaml:"statute_keywords" json:"statute_keywords"`
}

// AnnotateConfig holds extraction pass configuration
type AnnotateConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			BaseURL:        "https://decisions.scc-csc.ca",
			SearchPath:     "/scc-csc/en/d/s/index.do",
			SubjectID:      "16",
			ResultSelector: "div.metadata span.title a",
			FrameSelector:  "iframe#decisia-iframe",
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			Concurrency: 2,
			MaxPages:    30,
			MaxCases:    0, // 0 means no limit
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 20,
			BurstSize:         1,
		},
		Output: OutputConfig{
			RawDirectory:   "./data/raw",
			CheckpointFile: "./data/processed/scraped_links.json",
			CorpusFile:     "./data/processed/annotation.json",
		},
		Classifier: ClassifierConfig{
			CriminalKeywords: []string{"criminal"},
			StatuteKeywords:  []string{"criminal"},
		},
		Annotate: AnnotateConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if baseURL := os.Getenv("CASECORPUS_BASE_URL"); baseURL != "" {
		c.Archive.BaseURL = baseURL
	}
	if subject := os.Getenv("CASECORPUS_SUBJECT_ID"); subject != "" {
		c.Archive.SubjectID = subject
	}

	if timeout := os.Getenv("CASECORPUS_FETCH_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("CASECORPUS_FETCH_TIMEOUT: %w", err))
		} else {
			c.Fetch.Timeout = d
		}
	}
	if err := envInt("CASECORPUS_CONCURRENCY", &c.Fetch.Concurrency); err != nil {
		errs = append(errs, err)
	}
	if err := envInt("CASECORPUS_MAX_CASES", &c.Fetch.MaxCases); err != nil {
		errs = append(errs, err)
	}
	if err := envInt("CASECORPUS_REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute); err != nil {
		errs = append(errs, err)
	}

	if rawDir := os.Getenv("CASECORPUS_RAW_DIR"); rawDir != "" {
		c.Output.RawDirectory = rawDir
	}
	if checkpoint := os.Getenv("CASECORPUS_CHECKPOINT_FILE"); checkpoint != "" {
		c.Output.CheckpointFile = checkpoint
	}
	if corpus := os.Getenv("CASECORPUS_CORPUS_FILE"); corpus != "" {
		c.Output.CorpusFile = corpus
	}

	if logLevel := os.Getenv("CASECORPUS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("CASECORPUS_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	if addr := os.Getenv("CASECORPUS_METRICS_ADDR"); addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Address = addr
	}

	return errors.Join(errs...)
}

func envInt(key string, target *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = val
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"casecorpus.yaml",
		"casecorpus.yml",
		".casecorpus.yaml",
		filepath.Join(home, ".config", "casecorpus", "config.yaml"),
		filepath.Join(home, ".casecorpus.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Archive.BaseURL == "" {
		errs = append(errs, errors.New("archive base URL is required"))
	}
	if c.Archive.ResultSelector == "" {
		errs = append(errs, errors.New("archive result selector is required"))
	}

	if _, err := c.SearchWindows(time.Now()); err != nil {
		errs = append(errs, err)
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.Concurrency <= 0 {
		errs = append(errs, errors.New("fetch concurrency must be positive"))
	}
	if c.Fetch.Concurrency > 8 {
		errs = append(errs, errors.New("fetch concurrency should not exceed 8"))
	}
	if c.Fetch.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Fetch.MaxCases < 0 {
		errs = append(errs, errors.New("max cases cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Output.RawDirectory == "" {
		errs = append(errs, errors.New("raw directory is required"))
	}
	if c.Output.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}
	if c.Output.CorpusFile == "" {
		errs = append(errs, errors.New("corpus file is required"))
	}

	if len(c.Classifier.CriminalKeywords) == 0 {
		errs = append(errs, errors.New("at least one criminal keyword is required"))
	}

	if c.Annotate.Workers <= 0 {
		errs = append(errs, errors.New("annotate workers must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// StatisticsPath returns the statistics output path, derived from the corpus
// file name when not configured.
func (c *Config) StatisticsPath() string {
	if c.Output.StatisticsFile != "" {
		return c.Output.StatisticsFile
	}
	corpus := c.Output.CorpusFile
	if strings.HasSuffix(corpus, ".json") {
		return strings.TrimSuffix(corpus, ".json") + "_statistics.json"
	}
	return corpus + "_statistics.json"
}

// SearchWindows resolves the configured windows into half-open intervals.
// Without configured windows the archive's decade windows up to today are used.
func (c *Config) SearchWindows(today time.Time) ([]models.SearchWindow, error) {
	if len(c.Windows) == 0 {
		windows := DefaultWindows(today)
		for i := range windows {
			windows[i].MaxCases = c.Fetch.MaxCases
		}
		return windows, nil
	}

	windows := make([]models.SearchWindow, 0, len(c.Windows))
	for i, wc := range c.Windows {
		w, err := wc.resolve()
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i+1, err)
		}
		if w.MaxCases == 0 {
			w.MaxCases = c.Fetch.MaxCases
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (wc WindowConfig) resolve() (models.SearchWindow, error) {
	var w models.SearchWindow
	if wc.MaxCases < 0 {
		return w, errors.New("max_cases cannot be negative")
	}
	w.MaxCases = wc.MaxCases

	if wc.StartDate != "" {
		start, err := time.Parse(models.DateLayout, wc.StartDate)
		if err != nil {
			return w, fmt.Errorf("invalid start_date: %w", err)
		}
		w.Start = start
	}
	if wc.EndDate == "" {
		return w, errors.New("end_date is required")
	}
	last, err := time.Parse(models.DateLayout, wc.EndDate)
	if err != nil {
		return w, fmt.Errorf("invalid end_date: %w", err)
	}
	w.End = last.AddDate(0, 0, 1)

	if !w.Start.IsZero() && !w.Start.Before(w.End) {
		return w, errors.New("start_date must not be after end_date")
	}
	return w, nil
}

// DefaultWindows returns one window for everything up to 1985 followed by
// ten-year windows from 1986, the last one ending today.
func DefaultWindows(today time.Time) []models.SearchWindow {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	windows := []models.SearchWindow{
		{End: time.Date(1986, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for startYear := 1986; startYear <= today.Year(); startYear += 10 {
		start := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
		endYear := startYear + 9
		if today.Year() <= endYear {
			windows = append(windows, models.SearchWindow{Start: start, End: today.AddDate(0, 0, 1)})
			break
		}
		windows = append(windows, models.SearchWindow{
			Start: start,
			End:   time.Date(endYear+1, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	return windows
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Archive.BaseURL = baseURL
	}
	if rawDir, ok := flags["raw-dir"].(string); ok && rawDir != "" {
		c.Output.RawDirectory = rawDir
	}
	if checkpoint, ok := flags["checkpoint"].(string); ok && checkpoint != "" {
		c.Output.CheckpointFile = checkpoint
	}
	if corpus, ok := flags["corpus"].(string); ok && corpus != "" {
		c.Output.CorpusFile = corpus
	}
	if stats, ok := flags["statistics"].(string); ok && stats != "" {
		c.Output.StatisticsFile = stats
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Fetch.Concurrency = concurrency
	}
	if maxCases, ok := flags["max-cases"].(int); ok && maxCases > 0 {
		c.Fetch.MaxCases = maxCases
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Fetch.Timeout = timeout
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.Enabled = true
		c.Metrics.Address = addr
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".casecorpus.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
