package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisJobLifecycle(t *testing.T) {
	job := NewAnalysisJob("user-1", "user-1/clip.mp4", 2)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	job.MarkFailed("boom", KindProbe)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempt)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.Empty(t, job.ErrorMessage)
	assert.Equal(t, KindUnknown, job.FailedStage)
	assert.False(t, job.CanRetry())

	report := &AnalysisReport{VideoPath: "input.mp4"}
	job.MarkCompleted(report, map[FrameType]string{FrameTypeI: "k"}, "r.mp4")
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)

	msg := NewAnalysisResultMessage(job)
	assert.Equal(t, job.ID, msg.JobID)
	assert.Equal(t, "r.mp4", msg.ReconstructKey)
	assert.Empty(t, msg.FailedStage)
	require.NotNil(t, msg.Stream)
}

func TestResultMessageCarriesFailedStage(t *testing.T) {
	job := NewAnalysisJob("u", "v", 1)
	job.MarkProcessing()
	job.MarkFailed("no video stream", KindProbe)

	msg := NewAnalysisResultMessage(job)
	assert.Equal(t, "probe", msg.FailedStage)
	assert.Nil(t, msg.Stream)
	assert.Equal(t, JobStatusFailed, msg.Status)
}
