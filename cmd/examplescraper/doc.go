// Package main is a sample scraper node built on pkg/scraper.
//
// It fetches the job URL with the colly fetcher, emits one record per page
// and follows same-site links breadth first until the "max_pages" parameter,
// the row quota or a cancellation stops it. The job proxy, when present, is
// applied to every request.
//
// Run it the way the orchestrator does:
//
//	examplescraper job.json             # collect
//	examplescraper --help job.json      # write the description into job.json
//	examplescraper --features job.json  # write the column schema into job.json
package main
