package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"casecorpus/pkg/config"
	"casecorpus/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage casecorpus configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (CASECORPUS_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as 'casecorpus.yaml' unless a
different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check it:
  - YAML syntax
  - Search window dates and ordering
  - Value ranges
  - Output path accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)
}

const exampleConfig = `# casecorpus configuration file
#
# Every option can also be set with an environment variable prefixed with
# CASECORPUS_, for example CASECORPUS_CHECKPOINT_FILE or CASECORPUS_LOG_LEVEL.

# Archive being crawled
archive:
  base_url: "https://decisions.scc-csc.ca"
  search_path: "/scc-csc/en/d/s/index.do"
  # Archive subject filter; 16 is criminal law
  subject_id: "16"
  # CSS selector for case links on a result page
  result_selector: "div.metadata span.title a"
  # Case pages embed the decision in this frame
  frame_selector: "iframe#decisia-iframe"

# Search windows, crawled in order. end_date is inclusive.
# Leave empty to use one window up to 1985 and decade windows since 1986.
windows:
  # - start_date: ""
  #   end_date: "1985-12-31"
  # - start_date: "1986-01-01"
  #   end_date: "1995-12-31"
  #   max_cases: 100

fetch:
  # Timeout for a single request
  timeout: 30s
  # Concurrent case downloads within a window (1-8)
  concurrency: 2
  # Result pages read per window
  max_pages: 30
  # New cases fetched per window, 0 for no limit
  max_cases: 0
  # user_agent: "casecorpus/1.0"

rate_limit:
  requests_per_minute: 20
  burst_size: 1

output:
  raw_directory: "./data/raw"
  checkpoint_file: "./data/processed/scraped_links.json"
  corpus_file: "./data/processed/annotation.json"
  # Defaults to the corpus file name with _statistics appended
  statistics_file: ""

classifier:
  # A case is criminal when its subjects or a cited statute contain one of these
  criminal_keywords: ["criminal"]
  # Only cited statutes containing one of these are kept
  statute_keywords: ["criminal"]

annotate:
  workers: 4

logging:
  # debug, info, warn, error
  level: "info"
  # Rotated log file, empty for stderr only
  file: ""
  max_size: 100
  max_backups: 3
  max_age: 7
  compress: false

metrics:
  enabled: false
  address: ":9090"
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "casecorpus.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	printer := ui.NewPrinter(cmd.OutOrStdout(), noColor)
	printer.Success("Configuration file created: " + configPath)
	printer.Plain("\nNext steps:\n")
	printer.Dim("1. Adjust the search windows and output paths")
	printer.Dim("2. Run 'casecorpus config validate' to check the configuration")
	printer.Dim("3. Start with 'casecorpus run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	printer := ui.NewPrinter(cmd.OutOrStdout(), noColor)
	printer.Highlight("Current configuration")
	printer.Plain(string(data))

	source := "(none found)"
	if configFile != "" {
		source = configFile
	}
	printer.Plain("\n")
	printer.Info("Configuration file", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	printer := ui.NewPrinter(cmd.OutOrStdout(), noColor)

	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return err
	}

	var problems []error
	for _, dir := range []string{
		cfg.Output.RawDirectory,
		filepath.Dir(cfg.Output.CheckpointFile),
		filepath.Dir(cfg.Output.CorpusFile),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create %s: %w", dir, err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	windows, err := cfg.SearchWindows(todayUTC())
	if err != nil {
		return err
	}

	printer.Success("Configuration is valid")
	printer.Summary("\nConfiguration summary", []ui.Row{
		{Label: "Archive", Value: cfg.Archive.BaseURL},
		{Label: "Search windows", Value: fmt.Sprint(len(windows))},
		{Label: "Concurrency", Value: fmt.Sprint(cfg.Fetch.Concurrency)},
		{Label: "Rate limit", Value: fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute)},
		{Label: "Checkpoint", Value: cfg.Output.CheckpointFile},
		{Label: "Corpus", Value: cfg.Output.CorpusFile},
		{Label: "Log level", Value: cfg.Logging.Level},
	})
	return nil
}
