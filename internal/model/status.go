package model

// TaskStatus represents the status of a clip task
type TaskStatus string

const (
	// TaskStatusPending means the clip is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusDownloading means the section download is in progress
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusTranscoding means ffmpeg/sox are normalising the audio
	TaskStatusTranscoding TaskStatus = "Transcoding"

	// TaskStatusCompleted means the clip was processed and recorded
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusSkipped means the processed file already existed
	TaskStatusSkipped TaskStatus = "Skipped"

	// TaskStatusError means the clip failed with an error
	TaskStatusError TaskStatus = "Error"
)

// AllStatuses lists statuses in pipeline order.
var AllStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusDownloading,
	TaskStatusTranscoding,
	TaskStatusCompleted,
	TaskStatusSkipped,
	TaskStatusError,
}

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is in an active state
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusDownloading || ts == TaskStatusTranscoding
}

// IsFinished returns true if the task is in a finished state (completed, skipped, or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusSkipped || ts == TaskStatusError
}
