// Package model defines domain data structures used across the app: CSV
// segments, per-clip tasks, the batch aggregate, and status enums. Status
// transitions are explicit so the pipeline and summaries agree on counts.
package model
