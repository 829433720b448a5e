// Package memory keeps analysis job state for the lifetime of the worker
// process. Nothing is written to disk or to a database.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/google/uuid"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobExists   = errors.New("job already exists")
)

type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]entity.AnalysisJob
}

func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]entity.AnalysisJob)}
}

func (r *JobRepository) Create(_ context.Context, job *entity.AnalysisJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("insert job %s: %w", job.ID, ErrJobExists)
	}
	r.jobs[job.ID] = clone(job)
	return nil
}

func (r *JobRepository) Update(_ context.Context, job *entity.AnalysisJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return fmt.Errorf("update job %s: %w", job.ID, ErrJobNotFound)
	}
	r.jobs[job.ID] = clone(job)
	return nil
}

// FindByID returns a copy; callers must Update to persist changes.
func (r *JobRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.AnalysisJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("find job by id %s: %w", id, ErrJobNotFound)
	}
	out := clone(&job)
	return &out, nil
}

func (r *JobRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return fmt.Errorf("delete job %s: %w", id, ErrJobNotFound)
	}
	delete(r.jobs, id)
	return nil
}

func (r *JobRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// clone copies the job deeply enough that neither side can mutate the other.
// Frame paths are dropped: they point into a workdir that does not outlive
// the attempt.
func clone(job *entity.AnalysisJob) entity.AnalysisJob {
	out := *job

	if job.ArtifactKeys != nil {
		out.ArtifactKeys = make(map[entity.FrameType]string, len(job.ArtifactKeys))
		for t, k := range job.ArtifactKeys {
			out.ArtifactKeys[t] = k
		}
	}
	if job.CompletedAt != nil {
		at := *job.CompletedAt
		out.CompletedAt = &at
	}
	if job.Report != nil {
		out.Report = cloneReport(job.Report)
	}
	return out
}

func cloneReport(r *entity.AnalysisReport) *entity.AnalysisReport {
	out := *r

	if r.Distribution.Counts != nil {
		out.Distribution.Counts = make(entity.FrameTypeCounts, len(r.Distribution.Counts))
		for t, n := range r.Distribution.Counts {
			out.Distribution.Counts[t] = n
		}
	}
	if r.Distribution.Percentages != nil {
		out.Distribution.Percentages = make(entity.FrameTypePercentages, len(r.Distribution.Percentages))
		for t, p := range r.Distribution.Percentages {
			out.Distribution.Percentages[t] = p
		}
	}
	if r.Extractions != nil {
		out.Extractions = make([]entity.ExtractionSummary, len(r.Extractions))
		for i, ex := range r.Extractions {
			ex.FramePaths = nil
			out.Extractions[i] = ex
		}
	}
	out.Sizes.Reports = append([]entity.SizeReport(nil), r.Sizes.Reports...)
	out.Sizes.Leaders = append([]entity.FrameType(nil), r.Sizes.Leaders...)
	return &out
}
