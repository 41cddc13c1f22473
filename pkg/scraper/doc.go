// Package scraper is the runtime a scraper binary links against to run under
// the orchestrator.
//
// The orchestrator starts the binary with a job file path and one of three
// modes:
//
//	scraper FILE             collect records into FILE's output_folder
//	scraper --help FILE      overwrite FILE with the node description
//	scraper --features FILE  overwrite FILE with the column schema
//
// A binary declares a Node and hands its collection loop to Node.Main:
//
//	node := &scraper.Node{
//		Description: "Collects product pages",
//		Columns:     []scraper.Column{{Name: "price", Type: scraper.Numerical}},
//	}
//	node.Main(func(ctx context.Context, job *scraper.Job) error {
//		return job.Add(scraper.Record{URL: job.URL(), Text: "..."})
//	})
//
// Records are buffered and written in batches of <id>.json files guarded by
// a transient <id>.lock marker. The run's context is cancelled when a STOP
// file appears in the output folder or the process receives SIGINT/SIGTERM;
// buffered records are flushed on every exit path. Quota exhaustion and
// cancellation end the process with status 0.
//
// A Node runs one job per process and is not safe for concurrent use.
package scraper
