package model

import (
	"sync"
	"time"
)

// Batch tracks every clip task of a single run
type Batch struct {
	mu        sync.RWMutex
	tasks     []*ClipTask
	CreatedAt time.Time
}

// NewBatch creates a batch with one pending task per segment
func NewBatch(segments []Segment) *Batch {
	b := &Batch{
		tasks:     make([]*ClipTask, 0, len(segments)),
		CreatedAt: time.Now(),
	}
	for _, seg := range segments {
		b.tasks = append(b.tasks, NewClipTask(seg))
	}
	return b
}

// Tasks returns the tasks in CSV order
func (b *Batch) Tasks() []*ClipTask {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*ClipTask, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Len returns the number of tasks
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tasks)
}

// UpdateStatus moves a task to status and stamps start/finish times
func (b *Batch) UpdateStatus(task *ClipTask, status TaskStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if task.StartedAt.IsZero() && status != TaskStatusPending {
		task.StartedAt = now
	}
	task.Status = status
	if status.IsFinished() {
		task.FinishedAt = now
	}
}

// Fail marks a task as failed with err
func (b *Batch) Fail(task *ClipTask, err error) {
	b.mu.Lock()
	if err != nil {
		task.LastError = err.Error()
	}
	b.mu.Unlock()
	b.UpdateStatus(task, TaskStatusError)
}

// Update runs fn with the batch lock held so task fields can be set safely
func (b *Batch) Update(task *ClipTask, fn func(*ClipTask)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(task)
}

// Counts returns the number of tasks per status
func (b *Batch) Counts() map[TaskStatus]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	counts := make(map[TaskStatus]int, len(AllStatuses))
	for _, task := range b.tasks {
		counts[task.Status]++
	}
	return counts
}

// Failed returns all tasks with error status
func (b *Batch) Failed() []*ClipTask {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var failed []*ClipTask
	for _, task := range b.tasks {
		if task.Status == TaskStatusError {
			failed = append(failed, task)
		}
	}
	return failed
}

// GetProgress returns finished tasks as percentage of the batch
func (b *Batch) GetProgress() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.tasks) == 0 {
		return 0
	}
	finished := 0
	for _, task := range b.tasks {
		if task.Status.IsFinished() {
			finished++
		}
	}
	return float64(finished) / float64(len(b.tasks)) * 100
}

// HasErrors checks if any task has errors
func (b *Batch) HasErrors() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, task := range b.tasks {
		if task.Status == TaskStatusError {
			return true
		}
	}
	return false
}
