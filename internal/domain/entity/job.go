package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// AnalysisJob tracks one analysis request across delivery attempts.
type AnalysisJob struct {
	ID             uuid.UUID
	UserID         string
	VideoKey       string
	Status         JobStatus
	Attempt        int
	MaxAttempts    int
	ErrorMessage   string
	FailedStage    ErrorKind
	Report         *AnalysisReport
	ArtifactKeys   map[FrameType]string
	ReconstructKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func NewAnalysisJob(userID, videoKey string, maxAttempts int) *AnalysisJob {
	now := time.Now().UTC()
	return &AnalysisJob{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *AnalysisJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.ErrorMessage = ""
	j.FailedStage = KindUnknown
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) MarkCompleted(report *AnalysisReport, artifactKeys map[FrameType]string, reconstructKey string) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Report = report
	j.ArtifactKeys = artifactKeys
	j.ReconstructKey = reconstructKey
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *AnalysisJob) MarkFailed(errMsg string, stage ErrorKind) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.FailedStage = stage
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
