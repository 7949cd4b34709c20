// Package crawl drives the resumable crawl over the archive's search windows.
//
// Windows are processed one at a time in configuration order. For each
// window the crawler pages through the search results, drops links the
// checkpoint registry already holds, and hands the rest to a bounded worker
// pool that fetches, stores and records each case. A window whose result
// pages cannot be navigated is logged and skipped; later windows still run.
// A case that fails to fetch is left unrecorded so the next run retries it.
//
// Example:
//
//	crawler := crawl.New(crawl.Options{
//		Windows:     windows,
//		Search:      archive.NewSearch(cfg.Archive),
//		Fetcher:     archive.NewClient(cfg, limiter, log),
//		Registry:    registry,
//		Store:       metadata.NewStore(rawStore),
//		Concurrency: cfg.Fetch.Concurrency,
//		MaxPages:    cfg.Fetch.MaxPages,
//		Timeout:     cfg.Fetch.Timeout,
//		Logger:      log,
//	})
//	summary, err := crawler.Run(ctx)
package crawl
