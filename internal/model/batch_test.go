package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSegments() []Segment {
	return []Segment{
		{VideoID: "a", StartSeconds: 0, EndSeconds: 10},
		{VideoID: "b", StartSeconds: 10, EndSeconds: 20},
		{VideoID: "c", StartSeconds: 20, EndSeconds: 30},
		{VideoID: "d", StartSeconds: 30, EndSeconds: 40},
	}
}

func TestNewBatch(t *testing.T) {
	batch := NewBatch(testSegments())

	require.Equal(t, 4, batch.Len())
	tasks := batch.Tasks()
	assert.Equal(t, "a", tasks[0].Segment.VideoID)
	assert.Equal(t, "d", tasks[3].Segment.VideoID)
	assert.Equal(t, 4, batch.Counts()[TaskStatusPending])
	assert.Zero(t, batch.GetProgress())
	assert.False(t, batch.HasErrors())
}

func TestBatch_StatusTransitions(t *testing.T) {
	batch := NewBatch(testSegments())
	tasks := batch.Tasks()

	batch.UpdateStatus(tasks[0], TaskStatusDownloading)
	assert.False(t, tasks[0].StartedAt.IsZero())
	assert.True(t, tasks[0].FinishedAt.IsZero())

	batch.UpdateStatus(tasks[0], TaskStatusCompleted)
	batch.UpdateStatus(tasks[1], TaskStatusSkipped)
	batch.Fail(tasks[2], errors.New("video unavailable"))

	counts := batch.Counts()
	assert.Equal(t, 1, counts[TaskStatusCompleted])
	assert.Equal(t, 1, counts[TaskStatusSkipped])
	assert.Equal(t, 1, counts[TaskStatusError])
	assert.Equal(t, 1, counts[TaskStatusPending])
	assert.InDelta(t, 75.0, batch.GetProgress(), 0.001)

	require.True(t, batch.HasErrors())
	failed := batch.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].Segment.VideoID)
	assert.Equal(t, "video unavailable", failed[0].LastError)
	assert.False(t, failed[0].FinishedAt.IsZero())
}

func TestBatch_Update(t *testing.T) {
	batch := NewBatch(testSegments()[:1])
	task := batch.Tasks()[0]

	batch.Update(task, func(ct *ClipTask) {
		ct.OutputPath = "/tmp/out.wav"
	})
	assert.Equal(t, "/tmp/out.wav", task.OutputPath)
}
