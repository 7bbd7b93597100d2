package pipeline

import (
	"time"

	"github.com/ytget/audioset-dl/internal/model"
)

// Summary reports the outcome of a run.
type Summary struct {
	Total           int
	Counts          map[model.TaskStatus]int
	Failed          []*model.ClipTask
	ManifestEntries int
	// Duplicates counts input segments dropped because an earlier row
	// produced the same clip.
	Duplicates int
	Elapsed    time.Duration
}

func newSummary(batch *model.Batch, manifestEntries int, elapsed time.Duration) *Summary {
	return &Summary{
		Total:           batch.Len(),
		Counts:          batch.Counts(),
		Failed:          batch.Failed(),
		ManifestEntries: manifestEntries,
		Elapsed:         elapsed,
	}
}

// Succeeded counts clips present in the dataset after the run.
func (s *Summary) Succeeded() int {
	return s.Counts[model.TaskStatusCompleted] + s.Counts[model.TaskStatusSkipped]
}

// HasFailures reports whether any clip failed.
func (s *Summary) HasFailures() bool {
	return s.Counts[model.TaskStatusError] > 0
}
