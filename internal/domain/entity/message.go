package entity

import "github.com/google/uuid"

// AnalysisRequestMessage is the inbound message from the frametype.analysis queue.
type AnalysisRequestMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	UserID         string    `json:"user_id"`
	VideoKey       string    `json:"video_key"`
	FileSize       int64     `json:"file_size"`
	UserEmail      string    `json:"user_email"`
	FrameTypes     []string  `json:"frame_types,omitempty"`
	Reconstruct    bool      `json:"reconstruct"`
	ReconstructFPS float64   `json:"reconstruct_fps,omitempty"`
}

// AnalysisResultMessage is the outbound message published to the frametype.result queue.
type AnalysisResultMessage struct {
	JobID          uuid.UUID            `json:"job_id"`
	UserID         string               `json:"user_id"`
	Status         JobStatus            `json:"status"`
	VideoKey       string               `json:"video_key"`
	Stream         *StreamInfo          `json:"stream,omitempty"`
	Distribution   *FrameDistribution   `json:"distribution,omitempty"`
	Sizes          *SizeComparison      `json:"sizes,omitempty"`
	ArtifactKeys   map[FrameType]string `json:"artifact_keys,omitempty"`
	ReconstructKey string               `json:"reconstruct_key,omitempty"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	FailedStage    string               `json:"failed_stage,omitempty"`
	Attempt        int                  `json:"attempt"`
	MaxAttempts    int                  `json:"max_attempts"`
}

// NewAnalysisResultMessage snapshots a job for publishing.
func NewAnalysisResultMessage(job *AnalysisJob) AnalysisResultMessage {
	msg := AnalysisResultMessage{
		JobID:          job.ID,
		UserID:         job.UserID,
		Status:         job.Status,
		VideoKey:       job.VideoKey,
		ArtifactKeys:   job.ArtifactKeys,
		ReconstructKey: job.ReconstructKey,
		ErrorMessage:   job.ErrorMessage,
		Attempt:        job.Attempt,
		MaxAttempts:    job.MaxAttempts,
	}
	if job.FailedStage != KindUnknown {
		msg.FailedStage = job.FailedStage.String()
	}
	if job.Report != nil {
		msg.Stream = &job.Report.Stream
		msg.Distribution = &job.Report.Distribution
		msg.Sizes = &job.Report.Sizes
	}
	return msg
}
