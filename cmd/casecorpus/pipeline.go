package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"casecorpus/pkg/archive"
	"casecorpus/pkg/config"
	"casecorpus/pkg/models"
	"casecorpus/pkg/ui"
)

var generationDate string

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch every unrecorded case in the configured search windows",
	Long: `Walk the search windows in order, page through each window's results and
fetch every case that is not yet in the checkpoint file. Each stored case is
recorded immediately, so the command can be interrupted and rerun at any time.

A window whose result pages cannot be loaded is logged and skipped. A case
that fails to download is left unrecorded and retried on the next run.`,
	Example: `  # Crawl with the default decade windows
  casecorpus crawl

  # Crawl at most 50 new cases per window with 4 workers
  casecorpus crawl --max-cases 50 --concurrency 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		summary, err := a.crawl(cmd.Context())
		a.printCrawl(summary)
		return err
	},
}

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Rebuild the corpus and statistics from the recorded cases",
	Long: `Extract metadata, facts and cited statutes from every recorded case document,
keep the criminal law cases and write the corpus and its statistics. The
corpus is rebuilt from the whole checkpoint on every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		summary, err := a.annotate(cmd.Context(), generationDate)
		if err != nil {
			return err
		}
		a.printAnnotate(summary)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Crawl, then annotate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}

		crawled, err := a.crawl(cmd.Context())
		a.printCrawl(crawled)
		if err != nil {
			return err
		}

		summary, err := a.annotate(cmd.Context(), generationDate)
		if err != nil {
			return err
		}
		a.printAnnotate(summary)
		return nil
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Print the resolved search windows and their first result page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, flagOverrides(cmd))
		if err != nil {
			return err
		}
		windows, err := cfg.SearchWindows(todayUTC())
		if err != nil {
			return err
		}

		search := archive.NewSearch(cfg.Archive)
		printer := ui.NewPrinter(cmd.OutOrStdout(), noColor)
		rows := make([]ui.Row, 0, len(windows))
		for _, w := range windows {
			rows = append(rows, ui.Row{Label: w.String(), Value: windowDetail(w, search)})
		}
		printer.Summary(fmt.Sprintf("%d search windows", len(windows)), rows)
		return nil
	},
}

func windowDetail(w models.SearchWindow, search archive.Search) string {
	limit := "no case limit"
	if w.MaxCases > 0 {
		limit = "max " + strconv.Itoa(w.MaxCases) + " cases"
	}
	return limit + "  " + search.URL(w, 1)
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", "", "archive base URL")
	cmd.Flags().Int("concurrency", 0, "number of concurrent case downloads")
	cmd.Flags().Int("max-cases", 0, "maximum new cases per window (0 means no limit)")
	cmd.Flags().Duration("timeout", 0, "timeout for a single fetch")
	cmd.Flags().Int("requests-per-minute", 0, "request rate limit against the archive")
}

func addAnnotateFlags(cmd *cobra.Command) {
	cmd.Flags().String("corpus", "", "corpus output file")
	cmd.Flags().String("statistics", "", "statistics output file (default derived from --corpus)")
	cmd.Flags().StringVar(&generationDate, "date", "", "generation date stamped into the statistics (default today)")
}

func init() {
	addCrawlFlags(crawlCmd)
	addAnnotateFlags(annotateCmd)
	addCrawlFlags(runCmd)
	addAnnotateFlags(runCmd)
	windowsCmd.Flags().String("base-url", "", "archive base URL")
	windowsCmd.Flags().Int("max-cases", 0, "maximum new cases per window (0 means no limit)")

	rootCmd.AddCommand(crawlCmd, annotateCmd, runCmd, windowsCmd)
}
