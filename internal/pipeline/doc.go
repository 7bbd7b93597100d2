// Package pipeline maps the per-clip pipeline (download, transcode, record)
// over a list of segments with a bounded number of concurrent workers. A
// failing clip is recorded and skipped; only cancellation stops a run.
package pipeline
