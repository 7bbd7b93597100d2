package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskIDPrefix marks clip task ids in logs.
const TaskIDPrefix = "clip-"

// ClipTask represents the processing of a single segment
type ClipTask struct {
	ID           string
	Segment      Segment
	Status       TaskStatus
	DownloadPath string    // path to the downloaded section
	OutputPath   string    // path to the normalised wav
	Duration     float64   // duration recorded in the manifest
	LastError    string    // last error message if any
	StartedAt    time.Time // when processing started
	FinishedAt   time.Time // when processing finished
}

// NewClipTask creates a pending task for seg.
func NewClipTask(seg Segment) *ClipTask {
	return &ClipTask{
		ID:      generateTaskID(),
		Segment: seg,
		Status:  TaskStatusPending,
	}
}

// Elapsed returns how long the task ran, or zero if it never started.
func (ct *ClipTask) Elapsed() time.Duration {
	if ct.StartedAt.IsZero() {
		return 0
	}
	if ct.FinishedAt.IsZero() {
		return time.Since(ct.StartedAt)
	}
	return ct.FinishedAt.Sub(ct.StartedAt)
}

// GetDisplayName returns the output file stem, or the segment base name
func (ct *ClipTask) GetDisplayName() string {
	if ct.OutputPath != "" {
		name := filepath.Base(ct.OutputPath)
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return ct.Segment.BaseName()
}

// generateTaskID generates a time ordered unique task ID
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
